// Package generator runs the whole pipeline over a flow document: the enum
// barrier, the shared types delta, and a bounded fan-out rendering every
// slice into an in-memory file plan.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/flowgen/internal/enums"
	"github.com/matthewbaird/flowgen/internal/eventbus"
	"github.com/matthewbaird/flowgen/internal/format"
	"github.com/matthewbaird/flowgen/internal/model"
	"github.com/matthewbaird/flowgen/internal/plan"
	"github.com/matthewbaird/flowgen/internal/render"
	"github.com/matthewbaird/flowgen/internal/scaffold"
	"github.com/matthewbaird/flowgen/internal/typeexpr"
)

// Options configure a Generator. Paths are slash-separated and relative to
// the root of the existing-files FS.
type Options struct {
	OutDir        string
	SharedTypes   string
	SpecsFilename string
	Concurrency   int
	Flows         FlowFilter // nil renders every flow
}

// FlowFilter decides which flows are rendered. config.Config satisfies it.
type FlowFilter interface {
	Includes(flow string) bool
}

// Generator produces file plans. It holds no per-run state.
type Generator struct {
	opts      Options
	formatter format.Formatter
	existing  fs.FS
	events    eventbus.Publisher
	logger    *slog.Logger
}

// New returns a Generator. existing is read for the current shared types
// module and may be nil for a fresh tree. Nil formatter, events and logger
// fall back to no formatting, no events and slog.Default().
func New(opts Options, formatter format.Formatter, existing fs.FS, events eventbus.Publisher, logger *slog.Logger) *Generator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if formatter == nil {
		formatter = format.Identity{}
	}
	if events == nil {
		events = eventbus.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{opts: opts, formatter: formatter, existing: existing, events: events, logger: logger}
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Files    []plan.File // sorted by path
	Enums    []enums.Definition
	NewEnums []enums.Definition // enums absent from the existing shared module
}

type job struct {
	flow  model.Flow
	slice model.Slice
}

// Generate renders doc. The first error from any slice aborts the run and
// discards everything rendered so far.
func (g *Generator) Generate(ctx context.Context, doc *model.Document) (*Result, error) {
	runID := eventbus.NewRunID()
	res, err := g.generate(ctx, runID, doc)
	if err != nil {
		g.events.Publish(ctx, eventbus.NewRunFailed(runID, err))
		return nil, err
	}
	g.events.Publish(ctx, eventbus.NewRunFinished(runID, len(res.Files)))
	return res, nil
}

func (g *Generator) generate(ctx context.Context, runID string, doc *model.Document) (*Result, error) {
	catalog := model.NewCatalog(doc.Messages)
	registry := enums.Derive(catalog.Messages(), typeexpr.NewClassifier(0))

	jobs := g.jobs(doc)
	g.events.Publish(ctx, eventbus.NewRunStarted(runID, len(jobs)))

	// Enum barrier: every enum is known and the shared module delta computed
	// before any slice renders.
	shared, delta, err := g.sharedModule(ctx, registry)
	if err != nil {
		return nil, err
	}
	g.events.Publish(ctx, eventbus.NewEnumsRegistered(runID, len(registry.Enums()), g.opts.SharedTypes))

	renderer, err := render.New(render.NewHelpers(registry))
	if err != nil {
		return nil, err
	}
	assembler := scaffold.New(doc, catalog, registry, scaffold.Options{
		OutDir:      g.opts.OutDir,
		SharedTypes: g.opts.SharedTypes,
	}, g.logger)

	results := make([][]plan.File, len(jobs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, j := range jobs {
		eg.Go(func() error {
			files, err := g.renderSlice(egCtx, renderer, assembler, j)
			if err != nil {
				return err
			}
			results[i] = files
			g.events.Publish(egCtx, eventbus.NewSliceRendered(runID, j.flow.Name, j.slice.Name, len(files)))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var files []plan.File
	if shared != nil {
		files = append(files, *shared)
	}
	for _, r := range results {
		files = append(files, r...)
	}
	plan.Sort(files)
	g.warnDuplicates(files)
	for _, f := range files {
		g.events.Publish(ctx, eventbus.NewFilePlanned(runID, f.Flow, f.Slice, f.Path))
	}

	return &Result{RunID: runID, Files: files, Enums: registry.Enums(), NewEnums: delta}, nil
}

// jobs lists the renderable slices of allowed flows in declaration order.
func (g *Generator) jobs(doc *model.Document) []job {
	var out []job
	for _, f := range doc.Flows {
		if g.opts.Flows != nil && !g.opts.Flows.Includes(f.Name) {
			g.logger.Debug("skipping flow", "flow", f.Name)
			continue
		}
		for _, s := range f.Slices {
			if len(render.Catalogue(s.Type, "")) == 0 {
				continue
			}
			out = append(out, job{flow: f, slice: s})
		}
	}
	return out
}

// sharedModule diffs the desired enums against the parsed existing module and
// returns the file to write, or nil when nothing changes.
func (g *Generator) sharedModule(ctx context.Context, registry *enums.Registry) (*plan.File, []enums.Definition, error) {
	existing, err := g.readExisting(g.opts.SharedTypes)
	if err != nil {
		return nil, nil, err
	}
	desired := registry.Enums()

	var delta []enums.Definition
	if existing == nil {
		delta = desired
	} else {
		mod, err := enums.ParseModule(existing)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", g.opts.SharedTypes, err)
		}
		delta = enums.Delta(mod, desired)
	}

	out, err := enums.Merge(existing, delta)
	if err != nil {
		return nil, nil, fmt.Errorf("merging %s: %w", g.opts.SharedTypes, err)
	}
	if out == nil {
		return nil, delta, nil
	}
	formatted, err := g.formatter.Format(ctx, g.opts.SharedTypes, out)
	if err != nil {
		return nil, nil, fmt.Errorf("formatting %s: %w", g.opts.SharedTypes, err)
	}
	return &plan.File{Path: g.opts.SharedTypes, Contents: formatted}, delta, nil
}

// readExisting returns nil, nil when the file does not exist.
func (g *Generator) readExisting(path string) ([]byte, error) {
	if g.existing == nil {
		return nil, nil
	}
	data, err := fs.ReadFile(g.existing, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (g *Generator) renderSlice(ctx context.Context, r *render.Renderer, a *scaffold.Assembler, j job) ([]plan.File, error) {
	data := a.Assemble(j.flow, j.slice)
	catalogue := render.Catalogue(j.slice.Type, g.opts.SpecsFilename)
	files := make([]plan.File, 0, len(catalogue))
	for _, f := range catalogue {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.Render(f.Template, data)
		if err != nil {
			return nil, fmt.Errorf("flow %q slice %q: %w", j.flow.Name, j.slice.Name, err)
		}
		path := plan.OutputPath(g.opts.OutDir, j.flow.Name, j.slice.Name, f.Output)
		out, err = g.formatter.Format(ctx, path, out)
		if err != nil {
			return nil, fmt.Errorf("formatting %s: %w", path, err)
		}
		files = append(files, plan.File{
			Path:     path,
			Contents: out,
			Flow:     j.flow.Name,
			Slice:    j.slice.Name,
			Template: f.Template,
		})
	}
	return files, nil
}

func (g *Generator) warnDuplicates(files []plan.File) {
	for i := 1; i < len(files); i++ {
		if files[i].Path == files[i-1].Path {
			g.logger.Warn("two slices render to the same path", "path", files[i].Path,
				"first", files[i-1].Slice, "second", files[i].Slice)
		}
	}
}
