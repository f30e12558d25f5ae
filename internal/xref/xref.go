// Package xref resolves which slice canonically owns an event or command, and
// turns those owners into relative TypeScript import paths.
package xref

import (
	"github.com/matthewbaird/flowgen/internal/gwt"
	"github.com/matthewbaird/flowgen/internal/model"
)

// Origin identifies a slice within a flow.
type Origin struct {
	Flow  string
	Slice string
}

// Resolver answers owner lookups from an index built once over all flows.
// An event is owned by the first command or react slice, in flow-then-slice
// declaration order, whose then outcomes include it; a command by the first
// command slice whose when names it. Two owners of one name are not
// disambiguated: the first one declared wins.
type Resolver struct {
	events   map[string]Origin
	commands map[string]Origin
}

// NewResolver indexes every producer and declarer in flows.
func NewResolver(flows []model.Flow) *Resolver {
	r := &Resolver{
		events:   make(map[string]Origin),
		commands: make(map[string]Origin),
	}
	for _, f := range flows {
		for _, s := range f.Slices {
			here := Origin{Flow: f.Name, Slice: s.Name}
			for _, ex := range s.Examples() {
				if s.Type == model.SliceCommand || s.Type == model.SliceReact {
					for _, it := range ex.Then {
						if it.Kind == model.ItemEvent {
							setOnce(r.events, it.Ref, here)
						}
					}
				}
				if s.Type == model.SliceCommand {
					if cmd, ok := ex.Command(); ok {
						setOnce(r.commands, cmd.Ref, here)
					}
				}
			}
		}
	}
	return r
}

func setOnce(m map[string]Origin, key string, o Origin) {
	if _, ok := m[key]; !ok {
		m[key] = o
	}
}

// EventSource returns the producing slice of eventType.
func (r *Resolver) EventSource(eventType string) (Origin, bool) {
	o, ok := r.events[eventType]
	return o, ok
}

// CommandSource returns the declaring slice of commandType.
func (r *Resolver) CommandSource(commandType string) (Origin, bool) {
	o, ok := r.commands[commandType]
	return o, ok
}

// Annotate fills SourceFlow/SourceSlice on every extracted event and command.
// Misses fall back to current: the message is assumed to be local.
func (r *Resolver) Annotate(x *gwt.Extracted, current Origin) {
	for i := range x.Events {
		o, ok := r.EventSource(x.Events[i].Name)
		if !ok {
			o = current
		}
		x.Events[i].SourceFlow, x.Events[i].SourceSlice = o.Flow, o.Slice
	}
	for i := range x.Commands {
		o, ok := r.CommandSource(x.Commands[i].Name)
		if !ok {
			o = current
		}
		x.Commands[i].SourceFlow, x.Commands[i].SourceSlice = o.Flow, o.Slice
	}
}
