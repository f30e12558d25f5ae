package scaffold

import "github.com/matthewbaird/flowgen/internal/model"

// Message is a command, event, or state as the templates see it.
type Message struct {
	Name     string
	Source   string // given, when, or then
	Fields   []model.Field
	Declared bool
	Local    bool   // owned by the slice being rendered
	Path     string // import path of the owning module from this slice
}

// Item is one given/when/then entry with its declared field shape.
type Item struct {
	Kind        string
	Ref         string
	Data        map[string]any
	Fields      []model.Field
	ErrorType   string
	Message     string
	Description string
	Assignments []Assignment
}

// Assignment is one property of an emitted event or dispatched command:
// copied from the triggering message when it carries the key, otherwise the
// example value.
type Assignment struct {
	Key         string
	FromTrigger bool
	Value       any
	Type        string
}

// Condition is one merged decision-table row.
type Condition struct {
	Description   string
	Given         []Item
	When          Item
	Then          []Item
	Events        []Item
	IsError       bool
	ErrorType     string
	ErrorMessage  string
	FailingFields []string
}

// Decision is a command's decision table.
type Decision struct {
	Command    Message
	Conditions []Condition
	Errors     []Condition // error conditions only, in order
	Success    *Condition  // first succeeding condition, nil if none
}

// Example is one given/when/then row for spec templates.
type Example struct {
	Rule         string
	Description  string
	Given        []Item
	When         []Item
	Then         []Item
	IsError      bool
	ErrorType    string
	ErrorMessage string
}

// Stream describes the slice's event-stream sink.
type Stream struct {
	Found     bool
	Target    string
	Pattern   string
	ExampleID string
	Literal   string // template literal body reading from command.data
}

// Integration is an external package the slice dispatches through.
type Integration struct {
	Name   string
	Source string
}

// Reaction is the commands a react slice dispatches for one trigger event.
type Reaction struct {
	Event    string
	Commands []Item
}
