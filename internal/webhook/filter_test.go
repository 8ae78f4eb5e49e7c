package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func payload() map[string]interface{} {
	return map[string]interface{}{
		"schema": float64(7),
		"object": map[string]interface{}{
			"status": "published",
			"owner":  "alice",
		},
	}
}

func TestMatchFilters_Empty(t *testing.T) {
	assert.True(t, MatchFilters(nil, payload()))
	assert.True(t, MatchFilters(map[string]interface{}{}, payload()))
}

func TestMatchFilters_TopLevel(t *testing.T) {
	assert.True(t, MatchFilters(map[string]interface{}{"schema": 7}, payload()))
	assert.False(t, MatchFilters(map[string]interface{}{"schema": 8}, payload()))
}

func TestMatchFilters_DotNotation(t *testing.T) {
	assert.True(t, MatchFilters(map[string]interface{}{"object.status": "published"}, payload()))
	assert.False(t, MatchFilters(map[string]interface{}{"object.status": "draft"}, payload()))
}

func TestMatchFilters_MissingPathNeverMatches(t *testing.T) {
	assert.False(t, MatchFilters(map[string]interface{}{"object.missing": "x"}, payload()))
	assert.False(t, MatchFilters(map[string]interface{}{"object.status.deep": "x"}, payload()))
}

func TestMatchFilters_SetMembership(t *testing.T) {
	filters := map[string]interface{}{
		"object.status": []interface{}{"draft", "published"},
	}
	assert.True(t, MatchFilters(filters, payload()))

	filters["object.status"] = []interface{}{"draft", "archived"}
	assert.False(t, MatchFilters(filters, payload()))
}

func TestMatchFilters_AllMustMatch(t *testing.T) {
	filters := map[string]interface{}{
		"schema":        7,
		"object.owner":  "alice",
		"object.status": "published",
	}
	assert.True(t, MatchFilters(filters, payload()))

	filters["object.owner"] = "bob"
	assert.False(t, MatchFilters(filters, payload()))
}

func TestMatchFilters_NumericStringEquivalence(t *testing.T) {
	// JSON decoding turns numbers into float64; "7", 7 and 7.0 all match
	assert.True(t, MatchFilters(map[string]interface{}{"schema": "7"}, payload()))
}
