// Package decision collapses a command slice's given/when/then rows into one
// routing table per command, with inferred failing fields for error rows.
package decision

import (
	"encoding/json"

	"github.com/matthewbaird/flowgen/internal/model"
)

// Condition is one canonical row of a command's decision table.
type Condition struct {
	Description   string
	Given         []model.Item
	When          map[string]any
	Then          []model.Item
	FailingFields []string
}

// Succeeds reports whether the condition records at least one event outcome.
func (c Condition) Succeeds() bool { return c.first(model.ItemEvent) != nil }

// Error returns the condition's first error outcome.
func (c Condition) Error() (model.Item, bool) {
	if it := c.first(model.ItemError); it != nil {
		return *it, true
	}
	return model.Item{}, false
}

// Events returns the event outcomes in encounter order.
func (c Condition) Events() []model.Item {
	var out []model.Item
	for _, it := range c.Then {
		if it.Kind == model.ItemEvent {
			out = append(out, it)
		}
	}
	return out
}

func (c Condition) first(kind model.ItemKind) *model.Item {
	for i := range c.Then {
		if c.Then[i].Kind == kind {
			return &c.Then[i]
		}
	}
	return nil
}

// Command is a command name with its merged conditions.
type Command struct {
	Name       string
	Conditions []Condition
	Baseline   map[string]any // when-data of the first succeeding condition, nil if none
}

// Table is the decision table of a slice, commands in first-seen order.
type Table struct {
	Commands []Command
}

// Builder builds tables with a replaceable failing-field policy.
type Builder struct {
	Policy Policy
}

// Build is shorthand for a Builder using EmptyStringPolicy.
func Build(slice model.Slice) *Table {
	return Builder{Policy: EmptyStringPolicy}.Build(slice)
}

// Build groups rows by commandRef, merges rows with deep-equal when-data and
// computes failing fields for every error row against the success baseline.
// Rows without a commandRef are skipped.
func (b Builder) Build(slice model.Slice) *Table {
	policy := b.Policy
	if policy == nil {
		policy = EmptyStringPolicy
	}

	t := &Table{}
	index := map[string]int{}
	keys := map[string]map[string]int{} // command -> canonical when -> condition index

	for _, ex := range slice.Examples() {
		cmd, ok := ex.Command()
		if !ok {
			continue
		}
		ci, ok := index[cmd.Ref]
		if !ok {
			ci = len(t.Commands)
			index[cmd.Ref] = ci
			keys[cmd.Ref] = map[string]int{}
			t.Commands = append(t.Commands, Command{Name: cmd.Ref})
		}
		c := &t.Commands[ci]

		key := canonical(cmd.Data)
		if at, dup := keys[cmd.Ref][key]; dup {
			c.Conditions[at].Then = append(c.Conditions[at].Then, ex.Then...)
			continue
		}
		keys[cmd.Ref][key] = len(c.Conditions)
		c.Conditions = append(c.Conditions, Condition{
			Description: ex.Description,
			Given:       ex.Given,
			When:        cmd.Data,
			Then:        append([]model.Item(nil), ex.Then...),
		})
	}

	for i := range t.Commands {
		c := &t.Commands[i]
		for _, cond := range c.Conditions {
			if cond.Succeeds() {
				c.Baseline = cond.When
				break
			}
		}
		for j := range c.Conditions {
			cond := &c.Conditions[j]
			cond.FailingFields = []string{}
			if _, isErr := cond.Error(); isErr && c.Baseline != nil {
				cond.FailingFields = policy(c.Baseline, cond.When)
			}
		}
	}
	return t
}

// canonical renders data as JSON with sorted keys so structurally equal maps
// compare equal.
func canonical(data map[string]any) string {
	if len(data) == 0 {
		return "{}"
	}
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(b)
}
