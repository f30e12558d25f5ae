// Package gwt extracts the message model a slice touches from its
// given/when/then examples.
package gwt

import (
	"log/slog"

	"github.com/matthewbaird/flowgen/internal/model"
)

// Source records where in a given/when/then row a message was first seen.
type Source string

const (
	SourceGiven Source = "given"
	SourceWhen  Source = "when"
	SourceThen  Source = "then"
)

// MessageRef is a message referenced by a slice, with its declared shape and,
// after cross-slice resolution, the slice that owns it.
type MessageRef struct {
	Name        string
	Kind        model.Kind
	Source      Source
	Fields      []model.Field
	Declared    bool // found in the message catalog
	SourceFlow  string
	SourceSlice string
}

// Extracted is the per-slice message aggregate.
type Extracted struct {
	Commands          []MessageRef
	Events            []MessageRef
	States            []MessageRef
	CommandSchemas    map[string]model.Message
	ProjectionIDField string
}

// Extractor walks slices against a message catalog.
type Extractor struct {
	catalog *model.Catalog
	logger  *slog.Logger
}

// NewExtractor returns an Extractor. A nil logger uses slog.Default().
func NewExtractor(catalog *model.Catalog, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{catalog: catalog, logger: logger}
}

// Extract dispatches on the slice type.
func (e *Extractor) Extract(slice model.Slice) *Extracted {
	switch slice.Type {
	case model.SliceCommand:
		return e.extractCommand(slice)
	case model.SliceQuery:
		return e.extractQuery(slice)
	case model.SliceReact:
		return e.extractReact(slice)
	}
	return &Extracted{CommandSchemas: map[string]model.Message{}}
}

// collector deduplicates refs by name, first occurrence wins.
type collector struct {
	e    *Extractor
	kind model.Kind
	seen map[string]bool
	refs []MessageRef
}

func (e *Extractor) collector(kind model.Kind) *collector {
	return &collector{e: e, kind: kind, seen: map[string]bool{}}
}

func (c *collector) add(name string, src Source) {
	if name == "" || c.seen[name] {
		return
	}
	c.seen[name] = true
	c.refs = append(c.refs, c.e.ref(c.kind, name, src))
}

func (e *Extractor) ref(kind model.Kind, name string, src Source) MessageRef {
	r := MessageRef{Name: name, Kind: kind, Source: src}
	if m, ok := e.catalog.Lookup(kind, name); ok {
		r.Fields = m.Fields
		r.Declared = true
	} else {
		e.logger.Warn("unknown message reference",
			"kind", kind, "name", name, "hint", e.catalog.Suggest(kind, name))
	}
	return r
}

func (e *Extractor) extractCommand(slice model.Slice) *Extracted {
	commands := e.collector(model.KindCommand)
	events := e.collector(model.KindEvent)
	states := e.collector(model.KindState)

	var rows []model.Example
	for _, ex := range slice.Examples() {
		cmd, ok := ex.Command()
		if !ok {
			e.logger.Debug("skipping example without commandRef", "slice", slice.Name, "example", ex.Description)
			continue
		}
		commands.add(cmd.Ref, SourceWhen)
		rows = append(rows, ex)
	}
	// then-events first: an event produced here must be tagged as such even
	// when an earlier row also lists it as a precondition.
	for _, ex := range rows {
		for _, it := range ex.Then {
			if it.Kind == model.ItemEvent {
				events.add(it.Ref, SourceThen)
			}
		}
	}
	for _, ex := range rows {
		for _, it := range ex.Given {
			switch it.Kind {
			case model.ItemEvent:
				events.add(it.Ref, SourceGiven)
			case model.ItemState:
				states.add(it.Ref, SourceGiven)
			}
		}
	}

	return &Extracted{
		Commands:       commands.refs,
		Events:         events.refs,
		States:         states.refs,
		CommandSchemas: e.schemas(commands.refs),
	}
}

func (e *Extractor) extractQuery(slice model.Slice) *Extracted {
	events := e.collector(model.KindEvent)
	for _, ex := range slice.Examples() {
		for _, it := range ex.Given {
			if it.Kind == model.ItemEvent {
				events.add(it.Ref, SourceGiven)
			}
		}
		for _, it := range ex.When {
			if it.Kind == model.ItemEvent {
				events.add(it.Ref, SourceWhen)
			}
		}
	}

	states := e.collector(model.KindState)
	x := &Extracted{CommandSchemas: map[string]model.Message{}}
	for _, d := range slice.Data {
		if !d.Target.IsState() {
			continue
		}
		states.add(d.Target.Name, SourceThen)
		if d.Origin != nil && d.Origin.IDField != "" && x.ProjectionIDField == "" {
			x.ProjectionIDField = d.Origin.IDField
		}
	}
	x.Events = events.refs
	x.States = states.refs
	return x
}

func (e *Extractor) extractReact(slice model.Slice) *Extracted {
	events := e.collector(model.KindEvent)
	commands := e.collector(model.KindCommand)
	examples := slice.Examples()
	for _, ex := range examples {
		for _, it := range ex.When {
			if it.Kind == model.ItemEvent {
				events.add(it.Ref, SourceWhen)
			}
		}
	}
	for _, ex := range examples {
		for _, it := range ex.Given {
			if it.Kind == model.ItemEvent {
				events.add(it.Ref, SourceGiven)
			}
		}
		for _, it := range ex.Then {
			if it.Kind == model.ItemCommand {
				commands.add(it.Ref, SourceThen)
			}
		}
	}
	return &Extracted{
		Commands:       commands.refs,
		Events:         events.refs,
		CommandSchemas: e.schemas(commands.refs),
	}
}

func (e *Extractor) schemas(refs []MessageRef) map[string]model.Message {
	out := make(map[string]model.Message, len(refs))
	for _, r := range refs {
		if m, ok := e.catalog.Lookup(model.KindCommand, r.Name); ok {
			out[r.Name] = m
		}
	}
	return out
}
