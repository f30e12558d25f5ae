// Package loader reads flow documents from JSON, YAML, or CUE and hands the
// concrete result to the model's ingestion boundary.
//
// Every format is built into a CUE value first, so a CUE model can compute
// or constrain parts of the document and all formats share one concreteness
// check before decoding.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/matthewbaird/flowgen/internal/model"
)

// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Options tune loading.
type Options struct {
	// Path selects a sub-value holding the document, e.g. "model" for a CUE
	// file declaring model: { flows: [...] }. Empty uses the root.
	Path string
}

// Load reads the document at path. A directory is loaded as a CUE package.
func Load(path string, opts Options) (*model.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	if info.IsDir() {
		return loadPackage(path, opts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	return Parse(filepath.Base(path), data, opts)
}

// Parse builds data, named by filename, into a document. The extension
// selects the format.
func Parse(filename string, data []byte, opts Options) (*model.Document, error) {
	ctx := cuecontext.New()
	var v cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		expr, err := cuejson.Extract(filename, data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}
		v = ctx.BuildExpr(expr)
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}
		v = ctx.BuildFile(f)
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	return decode(filename, v, opts)
}

func loadPackage(dir string, opts Options) (*model.Document, error) {
	insts := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(insts) == 0 {
		return nil, fmt.Errorf("loading %s: no CUE instances", dir)
	}
	if insts[0].Err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, insts[0].Err)
	}
	v := cuecontext.New().BuildInstance(insts[0])
	return decode(dir, v, opts)
}

func decode(name string, v cue.Value, opts Options) (*model.Document, error) {
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	if opts.Path != "" {
		v = v.LookupPath(cue.ParsePath(opts.Path))
		if !v.Exists() {
			return nil, fmt.Errorf("%s: path %q not found", name, opts.Path)
		}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating %s: %w", name, err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", name, err)
	}
	doc, err := model.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return doc, nil
}
