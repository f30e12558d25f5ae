// Package stream resolves event-stream id patterns such as
// "listing-${propertyId}".
package stream

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/matthewbaird/flowgen/internal/model"
)

var placeholder = regexp.MustCompile(`\$\{\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\}`)

// Unknown is substituted for placeholders whose key is missing.
const Unknown = "unknown"

// ResolveID substitutes each ${field} in pattern with the matching value from
// data, coerced to a string. Missing keys resolve to Unknown.
func ResolveID(pattern string, data map[string]any) string {
	return placeholder.ReplaceAllStringFunc(pattern, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := data[key]
		if !ok || v == nil {
			return Unknown
		}
		return stringify(v)
	})
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// TemplateLiteral rewrites pattern into the body of a TypeScript template
// literal reading each placeholder from expr, e.g. "listing-${command.data.propertyId}".
// Backticks and stray backslashes are escaped.
func TemplateLiteral(pattern, expr string) string {
	var out []byte
	last := 0
	for _, loc := range placeholder.FindAllStringSubmatchIndex(pattern, -1) {
		out = append(out, escapeLiteral(pattern[last:loc[0]])...)
		out = append(out, "${"+expr+"."+pattern[loc[2]:loc[3]]+"}"...)
		last = loc[1]
	}
	out = append(out, escapeLiteral(pattern[last:])...)
	return string(out)
}

func escapeLiteral(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '`', '\\':
			out = append(out, '\\', c)
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				out = append(out, '\\', c)
			} else {
				out = append(out, c)
			}
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// FindSink returns the first data item whose destination is a stream.
func FindSink(data []model.DataItem) (model.DataItem, bool) {
	for _, d := range data {
		if d.Destination != nil && d.Destination.Type == "stream" {
			return d, true
		}
	}
	return model.DataItem{}, false
}

// FirstExampleData returns the when-data of the first example that carries
// any, the source used to illustrate a stream id.
func FirstExampleData(slice model.Slice) map[string]any {
	for _, ex := range slice.Examples() {
		if len(ex.When) > 0 && len(ex.When[0].Data) > 0 {
			return ex.When[0].Data
		}
	}
	return map[string]any{}
}
