// Package typeexpr classifies the textual type expressions used in message
// field definitions.
//
// Grammar (informal):
//
//	expr      = base [ "|" "null" ]
//	base      = primitive | "Array<" expr ">" | expr "[]" | "{" members "}"
//	          | literal { "|" literal } | name
//	primitive = "string" | "number" | "boolean" | "Date" | "unknown" | "object" | "ID"
//	members   = [ member { ("," | ";") member } ]
//	member    = name ["?"] ":" expr
package typeexpr

import (
	"sort"
	"strings"

	"github.com/matthewbaird/flowgen/internal/tslex"
)

// Category is the shape of a classified expression.
type Category int

const (
	Primitive Category = iota + 1
	Array
	InlineObject
	LiteralUnion
	NamedRef
)

func (c Category) String() string {
	switch c {
	case Primitive:
		return "primitive"
	case Array:
		return "array"
	case InlineObject:
		return "inline-object"
	case LiteralUnion:
		return "literal-union"
	case NamedRef:
		return "named-reference"
	}
	return "unknown"
}

// Primitive keywords.
const (
	String  = "string"
	Number  = "number"
	Boolean = "boolean"
	Date    = "Date"
	Unknown = "unknown"
	Object  = "object"
	ID      = "ID"
)

var primitives = map[string]bool{
	String: true, Number: true, Boolean: true, Date: true,
	Unknown: true, Object: true, ID: true,
}

// Expr is a classified type expression. Values returned by Classify may be
// shared through the cache and must not be mutated.
type Expr struct {
	Category Category
	Raw      string // trimmed input, nullable suffix included
	Nullable bool

	Name    string   // Primitive keyword or NamedRef text
	Elem    *Expr    // Array element
	Members []Member // InlineObject members in declaration order
	Values  []string // LiteralUnion values in declaration order
}

// Member is one property of an inline object type.
type Member struct {
	Name     string
	Optional bool
	Type     *Expr
}

// Classify parses a type expression. It never fails: anything it does not
// recognize becomes a NamedRef carrying the raw text.
func Classify(input string) *Expr {
	raw := strings.TrimSpace(input)
	base, nullable := stripNullable(raw)
	e := classifyBase(base)
	e.Raw = raw
	e.Nullable = nullable
	return e
}

// stripNullable removes a trailing top-level "| null" alternative.
func stripNullable(s string) (string, bool) {
	alts := tslex.SplitTopLevel(s, "|")
	if len(alts) < 2 || alts[len(alts)-1] != "null" {
		return s, false
	}
	return strings.Join(alts[:len(alts)-1], " | "), true
}

func classifyBase(s string) *Expr {
	if s == "" {
		return &Expr{Category: NamedRef, Name: Unknown}
	}
	if primitives[s] {
		return &Expr{Category: Primitive, Name: s}
	}
	if inner, ok := tslex.Wrapped(s, "Array<", ">"); ok {
		return &Expr{Category: Array, Elem: Classify(inner)}
	}
	if strings.HasSuffix(s, "[]") {
		inner := strings.TrimSuffix(s, "[]")
		if p, ok := tslex.Wrapped(inner, "(", ")"); ok {
			inner = p
		}
		if strings.TrimSpace(inner) != "" {
			return &Expr{Category: Array, Elem: Classify(inner)}
		}
	}
	if inner, ok := tslex.Wrapped(s, "{", "}"); ok {
		if members, ok := parseMembers(inner); ok {
			return &Expr{Category: InlineObject, Members: members}
		}
	}
	if values, ok := literalUnion(s); ok {
		return &Expr{Category: LiteralUnion, Values: values}
	}
	return &Expr{Category: NamedRef, Name: s}
}

func parseMembers(body string) ([]Member, bool) {
	members := []Member{}
	var parts []string
	for _, p := range tslex.SplitTopLevel(body, ",") {
		parts = append(parts, tslex.SplitTopLevel(p, ";")...)
	}
	for _, p := range parts {
		if p == "" {
			continue
		}
		nameAndType := tslex.SplitTopLevel(p, ":")
		if len(nameAndType) < 2 {
			return nil, false
		}
		name := nameAndType[0]
		typ := strings.Join(nameAndType[1:], ":")
		m := Member{Name: strings.TrimSpace(name)}
		if strings.HasSuffix(m.Name, "?") {
			m.Optional = true
			m.Name = strings.TrimSpace(strings.TrimSuffix(m.Name, "?"))
		}
		m.Name = strings.Trim(m.Name, `"'`)
		if m.Name == "" {
			return nil, false
		}
		m.Type = Classify(typ)
		members = append(members, m)
	}
	return members, true
}

// literalUnion accepts only alternatives that are all quoted string literals
// using one consistent quote style.
func literalUnion(s string) ([]string, bool) {
	alts := tslex.SplitTopLevel(s, "|")
	if len(alts) == 0 {
		return nil, false
	}
	var quote rune
	values := make([]string, 0, len(alts))
	for _, alt := range alts {
		tokens, errs := tslex.NewLexer(alt).Tokenize()
		if len(errs) > 0 || len(tokens) != 2 || tokens[0].Type != tslex.TokenString {
			return nil, false
		}
		q := tokens[0].Quote
		if q == '`' {
			return nil, false
		}
		if quote == 0 {
			quote = q
		} else if q != quote {
			return nil, false
		}
		values = append(values, tokens[0].Literal)
	}
	return values, true
}

// Signature is the enum deduplication key of a literal union: its values
// sorted and re-joined as 'a' | 'b'. Empty for any other category.
func (e *Expr) Signature() string {
	if e == nil || e.Category != LiteralUnion {
		return ""
	}
	return Signature(e.Values)
}

// Signature normalizes a literal value set into its deduplication key.
func Signature(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	quoted := make([]string, len(sorted))
	for i, v := range sorted {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
	}
	return strings.Join(quoted, " | ")
}

// IsDate reports whether e is the Date primitive.
func (e *Expr) IsDate() bool {
	return e != nil && e.Category == Primitive && e.Name == Date
}
