package enums

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/matthewbaird/flowgen/internal/tslex"
)

const (
	graphqlPackage  = "type-graphql"
	registerEnumFn  = "registerEnumType"
	registerImport  = "import { registerEnumType } from 'type-graphql';\n"
	generatedBanner = "// Shared enums synthesized from string-literal union field types.\n"
)

// Module is the parsed view of an existing shared types module: only what the
// enum append needs to know.
type Module struct {
	Enums           []string // declared enum names in source order
	ImportsRegister bool     // registerEnumType is imported from type-graphql
}

// Declares reports whether the module already declares an enum named name.
func (m *Module) Declares(name string) bool {
	for _, n := range m.Enums {
		if n == name {
			return true
		}
	}
	return false
}

// ParseModule reads enum declarations and the registerEnumType import out of
// TypeScript source. It understands `[export] [declare] [const] enum Name {`
// and `import { a, b } from 'pkg'`; everything else is skipped.
func ParseModule(src []byte) (*Module, error) {
	tokens, errs := tslex.NewLexer(string(src)).Tokenize()
	if len(errs) > 0 {
		return nil, fmt.Errorf("parsing shared types module: %w", errors.Join(errs...))
	}

	m := &Module{}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Type != tslex.TokenIdent {
			continue
		}
		switch tok.Literal {
		case "enum":
			if i+2 < len(tokens) && tokens[i+1].Type == tslex.TokenIdent && tokens[i+2].Is("{") {
				m.Enums = append(m.Enums, tokens[i+1].Literal)
				i += 2
			}
		case "import":
			next, names, from, ok := parseImport(tokens, i+1)
			if !ok {
				continue
			}
			if from == graphqlPackage {
				for _, n := range names {
					if n == registerEnumFn {
						m.ImportsRegister = true
					}
				}
			}
			i = next - 1
		}
	}
	return m, nil
}

// parseImport reads `{ a, b as c } from 'pkg'` starting at i.
func parseImport(tokens []tslex.Token, i int) (next int, names []string, from string, ok bool) {
	if i < len(tokens) && tokens[i].Type == tslex.TokenIdent && tokens[i].Literal == "type" {
		i++
	}
	if i >= len(tokens) || !tokens[i].Is("{") {
		return i, nil, "", false
	}
	i++
	for i < len(tokens) && !tokens[i].Is("}") {
		tok := tokens[i]
		if tok.Type == tslex.TokenIdent && tok.Literal != "type" && tok.Literal != "as" {
			// "x as y": keep the imported name x
			if i > 0 && tokens[i-1].Type == tslex.TokenIdent && tokens[i-1].Literal == "as" {
				i++
				continue
			}
			names = append(names, tok.Literal)
		}
		if tok.Type == tslex.TokenEOF {
			return i, nil, "", false
		}
		i++
	}
	if i+2 >= len(tokens) || tokens[i+1].Literal != "from" || tokens[i+2].Type != tslex.TokenString {
		return i, nil, "", false
	}
	return i + 3, names, tokens[i+2].Literal, true
}

// Delta returns the desired enums the existing module does not declare yet,
// preserving desired order.
func Delta(existing *Module, desired []Definition) []Definition {
	var out []Definition
	for _, d := range desired {
		if existing != nil && existing.Declares(d.Name) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Render emits TypeScript for defs: each enum followed by its GraphQL
// registration.
func Render(defs []Definition) string {
	var b strings.Builder
	for i, d := range defs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "export enum %s {\n", d.Name)
		for _, m := range d.Members() {
			fmt.Fprintf(&b, "  %s = '%s',\n", m.Key, escapeSingle(m.Value))
		}
		b.WriteString("}\n")
		fmt.Fprintf(&b, "%s(%s, { name: '%s' });\n", registerEnumFn, d.Name, d.Name)
	}
	return b.String()
}

// Merge appends the delta to existing module source. A nil existing source
// starts a fresh module. The result is nil when nothing changes.
func Merge(existing []byte, delta []Definition) ([]byte, error) {
	if len(delta) == 0 && existing != nil {
		return nil, nil
	}
	if existing == nil {
		return []byte(generatedBanner + registerImport + "\n" + Render(delta)), nil
	}

	m, err := ParseModule(existing)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if !m.ImportsRegister {
		buf.WriteString(registerImport)
	}
	buf.Write(bytes.TrimRight(existing, "\n"))
	buf.WriteString("\n\n")
	buf.WriteString(Render(delta))
	return buf.Bytes(), nil
}

func escapeSingle(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
