// Package plan holds generation output: file paths and contents, and the
// writer that puts them on disk.
package plan

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/matthewbaird/flowgen/internal/naming"
)

// File is one generated artifact. Path is slash-separated and relative to
// the project root unless the configured base dir is absolute.
type File struct {
	Path     string
	Contents []byte

	Flow     string // empty for the shared types module
	Slice    string
	Template string
}

// SliceDir is <baseDir>/<kebab(flow)>/<kebab(slice)>.
func SliceDir(baseDir, flow, slice string) string {
	return path.Join(baseDir, naming.Kebab(flow), naming.Kebab(slice))
}

// OutputPath is the path of file within a slice directory.
func OutputPath(baseDir, flow, slice, file string) string {
	return path.Join(SliceDir(baseDir, flow, slice), file)
}

// Sort orders files by path.
func Sort(files []File) {
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}

// Writer persists a plan.
type Writer interface {
	Write(files []File) error
}

// DirWriter writes files under Root, creating directories as needed.
type DirWriter struct {
	Root string
}

// Write writes every file, stopping at the first failure.
func (w DirWriter) Write(files []File) error {
	for _, f := range files {
		p := filepath.FromSlash(f.Path)
		if !filepath.IsAbs(p) {
			p = filepath.Join(w.Root, p)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(p, f.Contents, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
	}
	return nil
}
