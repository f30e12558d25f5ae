// Package model holds the canonical, strictly-typed representation of a flow
// document: flows of slices, their given/when/then examples, and the flat
// table of message definitions they reference.
//
// Everything downstream of Decode works on these types. Loose JSON shapes
// (legacy gwt arrays, key-presence discriminated items) never leave this
// package.
package model

import "strings"

// Kind classifies a message definition.
type Kind string

const (
	KindCommand Kind = "command"
	KindEvent   Kind = "event"
	KindState   Kind = "state"
)

// Field is one declared member of a message.
type Field struct {
	Name        string
	Type        string // type expression, see internal/typeexpr
	Required    bool
	Description string
}

// Message is one declared command, event, or state type.
type Message struct {
	Kind        Kind
	Name        string
	Description string
	Fields      []Field
}

// SliceType is the behavioral category of a slice.
type SliceType string

const (
	SliceCommand SliceType = "command"
	SliceQuery   SliceType = "query"
	SliceReact   SliceType = "react"
)

// Document is a whole generation input.
type Document struct {
	Flows        []Flow
	Messages     []Message
	Integrations []Integration
}

// Flow groups slices for output directory naming.
type Flow struct {
	Name   string
	Slices []Slice
}

// Integration is an external package a slice can dispatch through.
type Integration struct {
	Name   string
	Source string
}

// Slice is one vertical unit of behavior within a flow.
type Slice struct {
	Type        SliceType
	Name        string
	Description string
	Request     string // GraphQL request text, query/command slices only
	Via         []string
	Data        []DataItem
	Rules       []Rule
}

// Examples flattens every rule's examples in declaration order.
func (s Slice) Examples() []Example {
	var out []Example
	for _, r := range s.Rules {
		out = append(out, r.Examples...)
	}
	return out
}

// DataItem is one entry of a slice's server.data list: a target message plus
// where it is written to (destination) or read from (origin).
type DataItem struct {
	Target      Target
	Destination *Endpoint
	Origin      *Endpoint
}

// Target names the message a data item is about.
type Target struct {
	Type string // "Event", "Command", "State"
	Name string
}

// IsState reports whether the target designates a state (read model) type.
func (t Target) IsState() bool { return strings.EqualFold(t.Type, "state") }

// Endpoint is a data sink or source.
type Endpoint struct {
	Type    string // "stream", "projection", "integration", ...
	Name    string
	Pattern string // stream id pattern with ${field} placeholders
	IDField string // projection document id field
}

// Rule groups examples under a business rule description.
type Rule struct {
	Description string
	Examples    []Example
}

// Example is one given/when/then row.
type Example struct {
	Description string
	Given       []Item
	When        []Item
	Then        []Item
}

// Command returns the example's when-command, if the first when item is one.
func (e Example) Command() (Item, bool) {
	if len(e.When) == 0 || e.When[0].Kind != ItemCommand || e.When[0].Ref == "" {
		return Item{}, false
	}
	return e.When[0], true
}

// Error returns the example's first error outcome.
func (e Example) Error() (Item, bool) {
	for _, it := range e.Then {
		if it.Kind == ItemError {
			return it, true
		}
	}
	return Item{}, false
}

// ItemKind tags a given/when/then entry.
type ItemKind int

const (
	ItemEvent ItemKind = iota + 1
	ItemCommand
	ItemState
	ItemError
)

func (k ItemKind) String() string {
	switch k {
	case ItemEvent:
		return "event"
	case ItemCommand:
		return "command"
	case ItemState:
		return "state"
	case ItemError:
		return "error"
	}
	return "unknown"
}

// Item is a single given/when/then entry. Ref names the message for
// event/command/state items; ErrorType and Message are set for error items.
type Item struct {
	Kind        ItemKind
	Ref         string
	Data        map[string]any
	ErrorType   string
	Message     string
	Description string
}
