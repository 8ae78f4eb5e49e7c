package webhook

import (
	"fmt"
	"strings"
)

// MatchFilters reports whether the payload satisfies every filter. Filter
// keys are dot-notation paths into the payload; a filter value that is a
// slice matches when the payload value is any member of the set. A missing
// path never matches.
func MatchFilters(filters map[string]interface{}, payload map[string]interface{}) bool {
	for path, want := range filters {
		got, ok := lookupPath(payload, path)
		if !ok {
			return false
		}
		if !valueMatches(want, got) {
			return false
		}
	}
	return true
}

// lookupPath resolves a dot-notation path against nested maps.
func lookupPath(payload map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = payload
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func valueMatches(want, got interface{}) bool {
	switch set := want.(type) {
	case []interface{}:
		for _, member := range set {
			if equalScalar(member, got) {
				return true
			}
		}
		return false
	case []string:
		for _, member := range set {
			if equalScalar(member, got) {
				return true
			}
		}
		return false
	default:
		return equalScalar(want, got)
	}
}

// equalScalar compares via string rendering so that JSON numbers, ints, and
// their string forms all match each other.
func equalScalar(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
