package model

import (
	"fmt"
	"unicode"
)

// maxSuggestDistance bounds how far a misspelled reference may be from a
// declared name and still get a hint.
const maxSuggestDistance = 3

// editDistance is the case-insensitive rune edit distance between a and b.
func editDistance(a, b string) int {
	ra, rb := foldRunes(a), foldRunes(b)
	if len(ra) == 0 {
		return len(rb)
	}
	row, next := make([]int, len(rb)+1), make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i, ca := range ra {
		next[0] = i + 1
		for j, cb := range rb {
			sub := row[j]
			if ca != cb {
				sub++
			}
			next[j+1] = min(next[j]+1, row[j+1]+1, sub)
		}
		row, next = next, row
	}
	return row[len(rb)]
}

func foldRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

// Suggest returns a hint for a reference to an unknown message of kind, or
// "". Every declared message is a candidate; on equal distance a message of
// the requested kind wins, and a hit of another kind is named as such.
func (c *Catalog) Suggest(kind Kind, name string) string {
	var best Message
	bestDist := maxSuggestDistance + 1
	for _, m := range c.messages {
		d := editDistance(name, m.Name)
		if d < bestDist || (d == bestDist && m.Kind == kind && best.Kind != kind) {
			best, bestDist = m, d
		}
	}
	switch {
	case bestDist > maxSuggestDistance:
		return ""
	case best.Kind == kind:
		return fmt.Sprintf("did you mean '%s'?", best.Name)
	case best.Name == name:
		return fmt.Sprintf("'%s' is declared as %s, not %s", name, best.Kind, kind)
	default:
		return fmt.Sprintf("did you mean %s '%s'?", best.Kind, best.Name)
	}
}
