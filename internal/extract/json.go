package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// extractJSON flattens a JSON document into "key: value" lines so nested
// values remain searchable as text.
func extractJSON(content []byte) (string, error) {
	var v interface{}
	if err := json.Unmarshal(content, &v); err != nil {
		return "", fmt.Errorf("parse JSON: %w", err)
	}

	var lines []string
	flattenJSON("", v, &lines)
	return strings.Join(lines, "\n"), nil
}

func flattenJSON(prefix string, v interface{}, lines *[]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSON(joinKey(prefix, k), t[k], lines)
		}
	case []interface{}:
		for i, e := range t {
			flattenJSON(fmt.Sprintf("%s[%d]", prefix, i), e, lines)
		}
	case nil:
		// skip nulls
	default:
		*lines = append(*lines, fmt.Sprintf("%s: %v", prefix, t))
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
