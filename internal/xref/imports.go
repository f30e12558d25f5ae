package xref

import (
	"path"
	"sort"
	"strings"

	"github.com/matthewbaird/flowgen/internal/naming"
)

// ModulePath returns the import path from a file in slice from to module
// (e.g. "events") of slice to. Directory names are kebab-cased.
func ModulePath(from, to Origin, module string) string {
	switch {
	case from == to:
		return "./" + module
	case naming.Kebab(from.Flow) == naming.Kebab(to.Flow):
		return "../" + naming.Kebab(to.Slice) + "/" + module
	default:
		return "../../" + naming.Kebab(to.Flow) + "/" + naming.Kebab(to.Slice) + "/" + module
	}
}

// RelativeTo returns an import path from the directory fromDir to the module
// file target (both slash-separated, relative to the same root). The ".ts"
// extension is dropped.
func RelativeTo(fromDir, target string) string {
	target = trimExt(target)
	from := splitClean(fromDir)
	to := splitClean(path.Dir(target))

	i := 0
	for i < len(from) && i < len(to) && from[i] == to[i] {
		i++
	}
	var parts []string
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	parts = append(parts, path.Base(target))
	rel := path.Join(parts...)
	if len(from[i:]) == 0 {
		rel = "./" + rel
	}
	return rel
}

func trimExt(p string) string {
	if ext := path.Ext(p); ext == ".ts" || ext == ".tsx" {
		return p[:len(p)-len(ext)]
	}
	return p
}

func splitClean(p string) []string {
	p = path.Clean("/" + p)
	if p == "/" {
		return nil
	}
	return strings.Split(p[1:], "/")
}

// Import is one type name to import from a path.
type Import struct {
	Name string
	Path string
}

// ImportGroup is one import statement: every name pulled from Path.
type ImportGroup struct {
	Path  string
	Names []string
}

// GroupImports groups imports by path, sorts names within each group, drops
// duplicates, and sorts the groups by path so output is byte-stable.
func GroupImports(imports []Import) []ImportGroup {
	byPath := make(map[string]map[string]bool)
	for _, im := range imports {
		if im.Name == "" || im.Path == "" {
			continue
		}
		if byPath[im.Path] == nil {
			byPath[im.Path] = make(map[string]bool)
		}
		byPath[im.Path][im.Name] = true
	}

	groups := make([]ImportGroup, 0, len(byPath))
	for p, set := range byPath {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		groups = append(groups, ImportGroup{Path: p, Names: names})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Path < groups[j].Path })
	return groups
}
