// Package render binds assembled slice records to the embedded TypeScript
// templates.
//
// Templates execute with missingkey=error: a template that reads a key the
// assembler did not provide fails the file instead of rendering "<no value>".
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"github.com/matthewbaird/flowgen/internal/model"
)

//go:embed templates
var templateFS embed.FS

// ErrUnknownTemplate is returned when a template name is not in the catalogue.
var ErrUnknownTemplate = errors.New("unknown template")

// DefaultSpecsFilename is the command slice's spec file name.
const DefaultSpecsFilename = "decide.specs.ts"

// File pairs a template with the file name it renders to inside the slice
// directory.
type File struct {
	Template string
	Output   string
}

var catalogue = map[model.SliceType][]string{
	model.SliceCommand: {
		"commands.ts", "events.ts", "state.ts", "decide.ts", "evolve.ts",
		"handle.ts", "mutation.resolver.ts", "decide.specs.ts", "register.ts",
	},
	model.SliceQuery: {
		"projection.ts", "state.ts", "projection.specs.ts", "query.resolver.ts",
	},
	model.SliceReact: {
		"react.ts", "react.specs.ts", "register.ts",
	},
}

// Catalogue lists the files generated for a slice type, in render order.
// specsFilename renames the command slice's spec file; empty keeps the default.
func Catalogue(t model.SliceType, specsFilename string) []File {
	names := catalogue[t]
	files := make([]File, 0, len(names))
	for _, n := range names {
		f := File{Template: string(t) + "/" + n, Output: n}
		if t == model.SliceCommand && n == DefaultSpecsFilename && specsFilename != "" {
			f.Output = specsFilename
		}
		files = append(files, f)
	}
	return files
}

// Renderer executes catalogue templates. It is safe for concurrent use.
type Renderer struct {
	root *template.Template
}

// New parses every embedded template with the helpers bound.
func New(h *Helpers) (*Renderer, error) {
	root := template.New("flowgen").Funcs(h.FuncMap()).Option("missingkey=error")
	err := fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return err
		}
		src, err := templateFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".tmpl")
		if _, err := root.New(name).Parse(string(src)); err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{root: root}, nil
}

// Render executes the named template (e.g. "command/decide.ts") against data.
func (r *Renderer) Render(name string, data map[string]any) ([]byte, error) {
	t := r.root.Lookup(name)
	if t == nil || path.Dir(name) == "partials" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
