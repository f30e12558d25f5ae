package render

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/matthewbaird/flowgen/internal/enums"
	"github.com/matthewbaird/flowgen/internal/model"
	"github.com/matthewbaird/flowgen/internal/naming"
	"github.com/matthewbaird/flowgen/internal/typeexpr"
)

// isoDate matches ISO-8601 dates with an optional time and offset.
var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?$`)

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Helpers are the pure functions templates call. They read the enum registry
// and never mutate it.
type Helpers struct {
	enums *enums.Registry
}

// NewHelpers binds helpers to the run's enum registry.
func NewHelpers(reg *enums.Registry) *Helpers {
	return &Helpers{enums: reg}
}

func (h *Helpers) classify(typeExpr string) *typeexpr.Expr {
	return h.enums.Classifier().Classify(typeExpr)
}

// TSType renders a type expression as a TypeScript type, substituting
// registered enums for their literal unions.
func (h *Helpers) TSType(typeExpr string) string {
	return h.tsType(h.classify(typeExpr))
}

func (h *Helpers) tsType(e *typeexpr.Expr) string {
	var s string
	switch e.Category {
	case typeexpr.Primitive:
		switch e.Name {
		case typeexpr.ID:
			s = "string"
		case typeexpr.Object:
			s = "Record<string, unknown>"
		default:
			s = e.Name
		}
	case typeexpr.Array:
		elem := h.tsType(e.Elem)
		if strings.Contains(elem, "|") {
			elem = "(" + elem + ")"
		}
		s = elem + "[]"
	case typeexpr.InlineObject:
		if len(e.Members) == 0 {
			s = "Record<string, never>"
			break
		}
		parts := make([]string, len(e.Members))
		for i, m := range e.Members {
			opt := ""
			if m.Optional {
				opt = "?"
			}
			parts[i] = propertyKey(m.Name) + opt + ": " + h.tsType(m.Type)
		}
		s = "{ " + strings.Join(parts, "; ") + " }"
	case typeexpr.LiteralUnion:
		if d, ok := h.enums.ForExpr(e); ok {
			s = d.Name
		} else {
			s = e.Signature()
		}
	default:
		s = e.Name
	}
	if e.Nullable {
		s += " | null"
	}
	return s
}

// GQLType renders a type expression as the type-graphql type thunk body used
// in @Field(() => T) and @Arg(..., () => T).
func (h *Helpers) GQLType(typeExpr string) string {
	return h.gqlType(h.classify(typeExpr))
}

func (h *Helpers) gqlType(e *typeexpr.Expr) string {
	switch e.Category {
	case typeexpr.Primitive:
		switch e.Name {
		case typeexpr.String:
			return "String"
		case typeexpr.Number:
			return "Float"
		case typeexpr.Boolean:
			return "Boolean"
		case typeexpr.Date:
			return "Date"
		case typeexpr.ID:
			return "ID"
		}
		return "GraphQLJSON"
	case typeexpr.Array:
		return "[" + h.gqlType(e.Elem) + "]"
	case typeexpr.InlineObject:
		return "GraphQLJSON"
	case typeexpr.LiteralUnion:
		if d, ok := h.enums.ForExpr(e); ok {
			return d.Name
		}
	}
	return "String"
}

// Nullable reports whether a type expression carries "| null".
func (h *Helpers) Nullable(typeExpr string) bool {
	return h.classify(typeExpr).Nullable
}

// UsesJSON reports whether any field renders as GraphQLJSON.
func (h *Helpers) UsesJSON(fields []model.Field) bool {
	for _, f := range fields {
		if strings.Contains(h.GQLType(f.Type), "GraphQLJSON") {
			return true
		}
	}
	return false
}

// Literal serializes an example value as TypeScript source for a field of
// typeExpr. ISO date strings become new Date(...) when the field is a Date or
// its type is unknown; enum-typed values become Enum.MEMBER.
func (h *Helpers) Literal(value any, typeExpr string) string {
	var e *typeexpr.Expr
	if strings.TrimSpace(typeExpr) != "" {
		e = h.classify(typeExpr)
	}
	return h.literal(value, e)
}

func (h *Helpers) literal(value any, e *typeexpr.Expr) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		if isoDate.MatchString(v) && (e == nil || e.IsDate() || isUnknown(e)) {
			return "new Date(" + Quote(v) + ")"
		}
		if e != nil {
			if d, ok := h.enums.ForExpr(e); ok {
				if key, ok := d.MemberFor(v); ok {
					return d.Name + "." + key
				}
			}
		}
		return Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any:
		var elem *typeexpr.Expr
		if e != nil && e.Category == typeexpr.Array {
			elem = e.Elem
		}
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = h.literal(x, elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		var order []string
		types := map[string]*typeexpr.Expr{}
		if e != nil && e.Category == typeexpr.InlineObject {
			for _, m := range e.Members {
				order = append(order, m.Name)
				types[m.Name] = m.Type
			}
		}
		return h.object(v, order, types)
	}
	return Quote(fmt.Sprint(value))
}

func isUnknown(e *typeexpr.Expr) bool {
	return (e.Category == typeexpr.Primitive && e.Name == typeexpr.Unknown) ||
		(e.Category == typeexpr.NamedRef && e.Name == typeexpr.Unknown)
}

// DataLiteral serializes example data as an object literal. Keys follow the
// message's field order; undeclared keys follow, sorted.
func (h *Helpers) DataLiteral(data map[string]any, fields []model.Field) string {
	order := make([]string, 0, len(fields))
	types := make(map[string]*typeexpr.Expr, len(fields))
	for _, f := range fields {
		order = append(order, f.Name)
		types[f.Name] = h.classify(f.Type)
	}
	return h.object(data, order, types)
}

func (h *Helpers) object(data map[string]any, order []string, types map[string]*typeexpr.Expr) string {
	if len(data) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(data))
	seen := make(map[string]bool, len(data))
	for _, k := range order {
		if _, ok := data[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range data {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = propertyKey(k) + ": " + h.literal(data[k], types[k])
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Quote renders s as a single-quoted TypeScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func propertyKey(k string) string {
	if identifier.MatchString(k) {
		return k
	}
	return Quote(k)
}

// Access renders a property read of key on expr.
func Access(expr, key string) string {
	if identifier.MatchString(key) {
		return expr + "." + key
	}
	return expr + "[" + Quote(key) + "]"
}

// FuncMap exposes the helpers and the naming functions to templates.
func (h *Helpers) FuncMap() template.FuncMap {
	return template.FuncMap{
		"tsType":      h.TSType,
		"gqlType":     h.GQLType,
		"nullable":    h.Nullable,
		"usesJSON":    h.UsesJSON,
		"literal":     h.Literal,
		"dataLiteral": h.DataLiteral,
		"quote":       Quote,
		"prop":        propertyKey,
		"access":      Access,
		"pascal":      naming.Pascal,
		"camel":       naming.Camel,
		"kebab":       naming.Kebab,
		"constant":    naming.Constant,
		"join":        strings.Join,
		"lower":       strings.ToLower,
		"add":         func(a, b int) int { return a + b },
		"last":        func(i, n int) bool { return i == n-1 },
		"union":       Union,
		"importOf":    importOf,
	}
}

// Union merges name lists into one sorted list without duplicates.
func Union(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, l := range lists {
		for _, n := range l {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

// namedImport is the value the enumImport partial renders.
type namedImport struct {
	Names []string
	Path  string
}

func importOf(names []string, path string) namedImport {
	return namedImport{Names: names, Path: path}
}
