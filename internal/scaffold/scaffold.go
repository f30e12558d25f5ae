// Package scaffold assembles the flat record every template of a slice
// renders from. The record is plain data: names, fields, import groups,
// decision tables and example values. Turning it into source text is the
// renderer's job.
package scaffold

import (
	"log/slog"
	"sort"

	"github.com/matthewbaird/flowgen/internal/decision"
	"github.com/matthewbaird/flowgen/internal/enums"
	"github.com/matthewbaird/flowgen/internal/gqlreq"
	"github.com/matthewbaird/flowgen/internal/gwt"
	"github.com/matthewbaird/flowgen/internal/model"
	"github.com/matthewbaird/flowgen/internal/naming"
	"github.com/matthewbaird/flowgen/internal/plan"
	"github.com/matthewbaird/flowgen/internal/stream"
	"github.com/matthewbaird/flowgen/internal/typeexpr"
	"github.com/matthewbaird/flowgen/internal/xref"
)

// emmettErrors are the error classes @event-driven-io/emmett exports.
var emmettErrors = map[string]bool{
	"EmmettError":       true,
	"ValidationError":   true,
	"IllegalStateError": true,
	"NotFoundError":     true,
	"ConcurrencyError":  true,
}

// builtinErrors are JavaScript globals; they are neither imported nor declared.
var builtinErrors = map[string]bool{
	"Error":          true,
	"TypeError":      true,
	"RangeError":     true,
	"ReferenceError": true,
	"SyntaxError":    true,
	"EvalError":      true,
	"URIError":       true,
	"AggregateError": true,
}

// Options locate generated files.
type Options struct {
	OutDir      string // base directory of flow output
	SharedTypes string // shared types module path, same root as OutDir
}

// Assembler builds slice records. After New it only reads its inputs, so
// one Assembler serves concurrent slices.
type Assembler struct {
	catalog      *model.Catalog
	registry     *enums.Registry
	resolver     *xref.Resolver
	extractor    *gwt.Extractor
	integrations map[string]model.Integration
	opts         Options
	logger       *slog.Logger
}

// New returns an Assembler for doc. Cross-slice resolution indexes every flow
// in doc, including flows that will not be rendered.
func New(doc *model.Document, catalog *model.Catalog, registry *enums.Registry, opts Options, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	integrations := make(map[string]model.Integration, len(doc.Integrations))
	for _, in := range doc.Integrations {
		if _, ok := integrations[in.Name]; !ok {
			integrations[in.Name] = in
		}
	}
	return &Assembler{
		catalog:      catalog,
		registry:     registry,
		resolver:     xref.NewResolver(doc.Flows),
		extractor:    gwt.NewExtractor(catalog, logger),
		integrations: integrations,
		opts:         opts,
		logger:       logger,
	}
}

// Assemble builds the record for one slice. Every key is present for every
// slice type so templates fail loudly only on genuine typos.
func (a *Assembler) Assemble(flow model.Flow, slice model.Slice) map[string]any {
	current := xref.Origin{Flow: flow.Name, Slice: slice.Name}
	log := a.logger.With("flow", flow.Name, "slice", slice.Name)

	x := a.extractor.Extract(slice)
	a.resolver.Annotate(x, current)

	commands := a.messages(x.Commands, current, "commands")
	events := a.messages(x.Events, current, "events")
	states := make([]Message, 0, len(x.States))
	for _, r := range x.States {
		states = append(states, Message{
			Name: r.Name, Source: string(r.Source), Fields: r.Fields,
			Declared: r.Declared, Local: true, Path: "./state",
		})
	}

	dir := plan.SliceDir(a.opts.OutDir, flow.Name, slice.Name)
	usedErrors := usedErrorTypes(slice)
	known, custom := splitErrors(usedErrors)

	name := naming.Pascal(slice.Name)
	stateName := name + "State"
	if slice.Type == model.SliceQuery && len(states) > 0 {
		stateName = states[0].Name
	}
	idField := x.ProjectionIDField
	if idField == "" {
		idField = "id"
	}

	return map[string]any{
		"flow":              flow.Name,
		"slice":             slice.Name,
		"sliceType":         string(slice.Type),
		"description":       slice.Description,
		"name":              name,
		"camelName":         naming.Camel(slice.Name),
		"stateName":         stateName,
		"collection":        naming.Camel(stateName),
		"commands":          commands,
		"events":            events,
		"states":            states,
		"localCommands":     localOnly(commands),
		"localEvents":       localOnly(events),
		"eventImports":      groupExternal(events),
		"commandImports":    groupExternal(commands),
		"commandFields":     flatten(commands),
		"stateFields":       flatten(states),
		"commandEnums":      a.enumsOf(commands),
		"eventEnums":        a.enumsOf(events),
		"stateEnums":        a.enumsOf(states),
		"localCommandEnums": a.enumsOf(localOnly(commands)),
		"localEventEnums":   a.enumsOf(localOnly(events)),
		"sharedTypesPath":   xref.RelativeTo(dir, a.opts.SharedTypes),
		"usedErrors":        usedErrors,
		"emmettErrors":      known,
		"customErrors":      custom,
		"decisions":         a.decisions(slice, commands),
		"examples":          a.examples(slice),
		"reactions":         a.reactions(slice),
		"request":           a.request(slice, log),
		"stream":            a.stream(slice),
		"integrations":      a.sliceIntegrations(slice, log),
		"projectionIdField": idField,
	}
}

func (a *Assembler) messages(refs []gwt.MessageRef, current xref.Origin, module string) []Message {
	out := make([]Message, 0, len(refs))
	for _, r := range refs {
		owner := xref.Origin{Flow: r.SourceFlow, Slice: r.SourceSlice}
		if owner == (xref.Origin{}) {
			owner = current
		}
		out = append(out, Message{
			Name:     r.Name,
			Source:   string(r.Source),
			Fields:   r.Fields,
			Declared: r.Declared,
			Local:    owner == current,
			Path:     xref.ModulePath(current, owner, module),
		})
	}
	return out
}

func localOnly(msgs []Message) []Message {
	out := []Message{}
	for _, m := range msgs {
		if m.Local {
			out = append(out, m)
		}
	}
	return out
}

func groupExternal(msgs []Message) []xref.ImportGroup {
	var imports []xref.Import
	for _, m := range msgs {
		if !m.Local {
			imports = append(imports, xref.Import{Name: m.Name, Path: m.Path})
		}
	}
	return xref.GroupImports(imports)
}

func flatten(msgs []Message) []model.Field {
	var out []model.Field
	for _, m := range msgs {
		out = append(out, m.Fields...)
	}
	return out
}

// usedErrorTypes is every distinct errorType in the slice's then outcomes.
func usedErrorTypes(slice model.Slice) []string {
	seen := map[string]bool{}
	for _, ex := range slice.Examples() {
		for _, it := range ex.Then {
			if it.Kind == model.ItemError && it.ErrorType != "" {
				seen[it.ErrorType] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// splitErrors sorts error class names into emmett imports and classes the
// slice declares itself. Builtins land in neither.
func splitErrors(used []string) (known, custom []string) {
	for _, e := range used {
		switch {
		case builtinErrors[e]:
		case emmettErrors[e]:
			known = append(known, e)
		default:
			custom = append(custom, e)
		}
	}
	return known, custom
}

// enumsOf lists the registered enums the fields of msgs render as, sorted.
func (a *Assembler) enumsOf(msgs []Message) []string {
	seen := map[string]bool{}
	classifier := a.registry.Classifier()
	var walk func(e *typeexpr.Expr)
	walk = func(e *typeexpr.Expr) {
		switch e.Category {
		case typeexpr.LiteralUnion:
			if d, ok := a.registry.ForExpr(e); ok {
				seen[d.Name] = true
			}
		case typeexpr.Array:
			walk(e.Elem)
		case typeexpr.InlineObject:
			for _, m := range e.Members {
				walk(m.Type)
			}
		}
	}
	for _, m := range msgs {
		for _, f := range m.Fields {
			walk(classifier.Classify(f.Type))
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (a *Assembler) fields(kind model.ItemKind, ref string) []model.Field {
	switch kind {
	case model.ItemEvent:
		return a.catalog.Fields(model.KindEvent, ref)
	case model.ItemCommand:
		return a.catalog.Fields(model.KindCommand, ref)
	case model.ItemState:
		return a.catalog.Fields(model.KindState, ref)
	}
	return nil
}

func (a *Assembler) item(it model.Item) Item {
	data := it.Data
	if data == nil {
		data = map[string]any{}
	}
	return Item{
		Kind:        it.Kind.String(),
		Ref:         it.Ref,
		Data:        data,
		Fields:      a.fields(it.Kind, it.Ref),
		ErrorType:   it.ErrorType,
		Message:     it.Message,
		Description: it.Description,
	}
}

func (a *Assembler) items(in []model.Item) []Item {
	out := make([]Item, 0, len(in))
	for _, it := range in {
		out = append(out, a.item(it))
	}
	return out
}

// withAssignments fills target's properties from trigger where the trigger
// carries the same key, falling back to target's example values.
func withAssignments(target Item, trigger Item) Item {
	has := map[string]bool{}
	for _, f := range trigger.Fields {
		has[f.Name] = true
	}
	for k := range trigger.Data {
		has[k] = true
	}

	types := map[string]string{}
	var keys []string
	for _, f := range target.Fields {
		keys = append(keys, f.Name)
		types[f.Name] = f.Type
	}
	var extra []string
	for k := range target.Data {
		if _, declared := types[k]; !declared {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	target.Assignments = make([]Assignment, 0, len(keys))
	for _, k := range keys {
		target.Assignments = append(target.Assignments, Assignment{
			Key:         k,
			FromTrigger: has[k],
			Value:       target.Data[k],
			Type:        types[k],
		})
	}
	return target
}

func (a *Assembler) decisions(slice model.Slice, commands []Message) []Decision {
	if slice.Type != model.SliceCommand {
		return []Decision{}
	}
	byName := map[string]Message{}
	for _, c := range commands {
		byName[c.Name] = c
	}

	table := decision.Build(slice)
	out := make([]Decision, 0, len(table.Commands))
	for _, c := range table.Commands {
		d := Decision{Command: byName[c.Name], Errors: []Condition{}}
		if d.Command.Name == "" {
			d.Command = Message{Name: c.Name, Local: true, Path: "./commands"}
		}
		for _, cond := range c.Conditions {
			when := a.item(model.Item{Kind: model.ItemCommand, Ref: c.Name, Data: cond.When})
			v := Condition{
				Description:   cond.Description,
				Given:         a.items(cond.Given),
				When:          when,
				Then:          a.items(cond.Then),
				FailingFields: cond.FailingFields,
			}
			for _, ev := range cond.Events() {
				v.Events = append(v.Events, withAssignments(a.item(ev), when))
			}
			if e, ok := cond.Error(); ok {
				v.IsError = true
				v.ErrorType = e.ErrorType
				v.ErrorMessage = e.Message
			}
			d.Conditions = append(d.Conditions, v)
		}
		for i := range d.Conditions {
			cond := d.Conditions[i]
			if cond.IsError {
				d.Errors = append(d.Errors, cond)
			} else if d.Success == nil && len(cond.Events) > 0 {
				d.Success = &d.Conditions[i]
			}
		}
		out = append(out, d)
	}
	return out
}

func (a *Assembler) examples(slice model.Slice) []Example {
	out := []Example{}
	for _, r := range slice.Rules {
		for _, ex := range r.Examples {
			if slice.Type == model.SliceCommand {
				if _, ok := ex.Command(); !ok {
					continue
				}
			}
			v := Example{
				Rule:        r.Description,
				Description: ex.Description,
				Given:       a.items(ex.Given),
				When:        a.items(ex.When),
				Then:        a.items(ex.Then),
			}
			if v.Description == "" {
				v.Description = r.Description
			}
			if failure, ok := ex.Error(); ok {
				v.IsError = true
				v.ErrorType = failure.ErrorType
				v.ErrorMessage = failure.Message
			}
			out = append(out, v)
		}
	}
	return out
}

// reactions maps each trigger event of a react slice to the commands of the
// first example it triggers.
func (a *Assembler) reactions(slice model.Slice) []Reaction {
	out := []Reaction{}
	if slice.Type != model.SliceReact {
		return out
	}
	seen := map[string]bool{}
	for _, ex := range slice.Examples() {
		for _, w := range ex.When {
			if w.Kind != model.ItemEvent || seen[w.Ref] {
				continue
			}
			seen[w.Ref] = true
			trigger := a.item(w)
			r := Reaction{Event: w.Ref, Commands: []Item{}}
			for _, it := range ex.Then {
				if it.Kind == model.ItemCommand {
					r.Commands = append(r.Commands, withAssignments(a.item(it), trigger))
				}
			}
			out = append(out, r)
		}
	}
	return out
}

func (a *Assembler) request(slice model.Slice, log *slog.Logger) *gqlreq.Request {
	if slice.Request == "" {
		return nil
	}
	req, err := gqlreq.Parse(slice.Request)
	if err != nil {
		log.Warn("ignoring unparsable request", "err", err)
		return nil
	}
	return req
}

func (a *Assembler) stream(slice model.Slice) Stream {
	s := Stream{Pattern: naming.Kebab(slice.Name) + "-${id}"}
	if sink, ok := stream.FindSink(slice.Data); ok {
		s.Found = true
		s.Target = sink.Target.Name
		if sink.Destination.Pattern != "" {
			s.Pattern = sink.Destination.Pattern
		}
	}
	s.ExampleID = stream.ResolveID(s.Pattern, stream.FirstExampleData(slice))
	s.Literal = stream.TemplateLiteral(s.Pattern, "command.data")
	return s
}

func (a *Assembler) sliceIntegrations(slice model.Slice, log *slog.Logger) []Integration {
	out := []Integration{}
	seen := map[string]bool{}
	for _, name := range slice.Via {
		if seen[name] {
			continue
		}
		seen[name] = true
		in, ok := a.integrations[name]
		if !ok {
			log.Warn("unknown integration", "via", name)
			continue
		}
		out = append(out, Integration{Name: in.Name, Source: in.Source})
	}
	return out
}
