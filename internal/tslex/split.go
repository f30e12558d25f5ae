package tslex

import "strings"

// SplitTopLevel splits input on the punctuation sep wherever it appears
// outside of any (), [], {} or <> nesting and outside string literals.
// Parts are trimmed; empty parts are kept so callers can detect "a,,b".
// An input that is empty after trimming yields no parts.
func SplitTopLevel(input, sep string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	tokens, _ := NewLexer(input).Tokenize()

	var parts []string
	depth := 0
	start := 0
	for _, tok := range tokens {
		if tok.Type != TokenPunct {
			continue
		}
		switch tok.Literal {
		case "(", "[", "{", "<":
			depth++
		case ")", "]", "}", ">":
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(input[start:tok.Pos]))
				start = tok.End
			}
		}
	}
	parts = append(parts, strings.TrimSpace(input[start:]))
	return parts
}

// Wrapped reports whether the whole of input is enclosed by one matching
// open/close pair, e.g. "{ a: string }" but not "{ a } | { b }".
func Wrapped(input, open, close string) (inner string, ok bool) {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, open) || !strings.HasSuffix(s, close) {
		return "", false
	}
	tokens, _ := NewLexer(s).Tokenize()
	depth := 0
	for _, tok := range tokens {
		if tok.Type != TokenPunct {
			continue
		}
		switch tok.Literal {
		case "(", "[", "{", "<":
			depth++
		case ")", "]", "}", ">":
			depth--
			if depth == 0 && tok.End != len(s) {
				return "", false
			}
		}
	}
	if depth != 0 {
		return "", false
	}
	return strings.TrimSpace(s[len(open) : len(s)-len(close)]), true
}
