package decision

import "sort"

// Policy infers which when-data fields made an error row fail, given the
// when-data of the succeeding baseline row.
type Policy func(baseline, failing map[string]any) []string

// EmptyStringPolicy reports every key whose value is "" in the failing row
// while the baseline holds a non-empty value for it. Numeric, boolean and
// boundary failures are not detected and yield an empty list.
func EmptyStringPolicy(baseline, failing map[string]any) []string {
	out := []string{}
	for k, v := range failing {
		if s, ok := v.(string); !ok || s != "" {
			continue
		}
		if nonEmpty(baseline[k]) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func nonEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	}
	return true
}
