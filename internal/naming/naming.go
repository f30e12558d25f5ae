// Package naming converts free-form names ("Create listing", "listing_id",
// "ListingCreated") between the case styles used in generated code.
package naming

import (
	"strings"
	"unicode"
)

// Words splits s into words on separators, case boundaries, and
// letter/digit boundaries. "createListingV2 now" → [create Listing V 2 now].
func Words(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			switch {
			case unicode.IsUpper(r) && unicode.IsLower(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				// "HTTPServer" → HTTP Server
				flush()
			case unicode.IsDigit(r) != unicode.IsDigit(prev):
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Pascal converts s to PascalCase: "create listing" → "CreateListing".
func Pascal(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(capitalize(strings.ToLower(w)))
	}
	return b.String()
}

// Camel converts s to camelCase: "Create listing" → "createListing".
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return p
	}
	r := []rune(p)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Kebab converts s to kebab-case: "Create Listing" → "create-listing".
func Kebab(s string) string {
	return join(s, "-", strings.ToLower)
}

// Constant converts s to UPPER_SNAKE_CASE.
func Constant(s string) string {
	return join(s, "_", strings.ToUpper)
}

func join(s, sep string, conv func(string) string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = conv(w)
	}
	return strings.Join(words, sep)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
