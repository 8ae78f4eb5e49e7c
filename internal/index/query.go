package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kilupskalvis/regidx/internal/models"
	"github.com/kilupskalvis/regidx/internal/solr"
)

// fieldAliases maps common logical filter names to their self_* physical
// fields. Unrecognized fields pass through unchanged: object-data fields are
// stored unprefixed.
var fieldAliases = map[string]string{
	"register":     "self_register_i",
	"schema":       "self_schema_i",
	"organisation": "self_organisation_s",
	"owner":        "self_owner_s",
	"created":      "self_created_dt",
	"updated":      "self_updated_dt",
	"published":    "self_published_dt",
}

// freeTextBoosts is the per-field weight table for free-text queries.
var freeTextBoosts = []struct {
	Field string
	Boost int
}{
	{"self_name_s", 3},
	{"self_description_t", 2},
	{"self_summary_t", 2},
	{FieldText, 1},
}

const defaultSort = "self_created_dt desc"

// Translator converts generic search queries into engine select parameters.
// Every translated query conjoins an exact-match tenant filter.
type Translator struct {
	tenantID string
}

// NewTranslator creates a translator bound to one tenant.
func NewTranslator(tenantID string) *Translator {
	return &Translator{tenantID: tenantID}
}

// Translate builds engine select parameters from a generic query.
func (t *Translator) Translate(q *models.SearchQuery) solr.SelectParams {
	params := solr.SelectParams{
		Query:         t.queryString(q),
		FilterQueries: t.filterQueries(q),
		Sort:          t.sortString(q),
	}
	params.Start, params.Rows = paginate(q)

	for _, f := range q.FacetFields {
		params.FacetFields = append(params.FacetFields, physicalField(f))
	}
	return params
}

// queryString returns *:* for an empty query, or a boosted OR combination
// of the free-text fields.
func (t *Translator) queryString(q *models.SearchQuery) string {
	text := strings.TrimSpace(q.FreeText)
	if text == "" {
		return "*:*"
	}

	escaped := EscapeQueryText(text)
	clauses := make([]string, 0, len(freeTextBoosts))
	for _, b := range freeTextBoosts {
		clause := fmt.Sprintf("%s:(%s)", b.Field, escaped)
		if b.Boost > 1 {
			clause += fmt.Sprintf("^%d", b.Boost)
		}
		clauses = append(clauses, clause)
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}

// filterQueries translates configured filters and always prepends the
// tenant-isolation filter.
func (t *Translator) filterQueries(q *models.SearchQuery) []string {
	fqs := []string{TenantFilter(t.tenantID)}

	fields := make([]string, 0, len(q.Filters))
	for f := range q.Filters {
		fields = append(fields, f)
	}
	// map iteration order is random; stable fq order keeps queries cacheable
	sort.Strings(fields)

	for _, f := range fields {
		phys := physicalField(f)
		switch v := q.Filters[f].(type) {
		case []interface{}:
			if len(v) == 0 {
				continue
			}
			parts := make([]string, len(v))
			for i, e := range v {
				parts[i] = quoteValue(e)
			}
			fqs = append(fqs, fmt.Sprintf("%s:(%s)", phys, strings.Join(parts, " OR ")))
		case []string:
			if len(v) == 0 {
				continue
			}
			parts := make([]string, len(v))
			for i, e := range v {
				parts[i] = quoteValue(e)
			}
			fqs = append(fqs, fmt.Sprintf("%s:(%s)", phys, strings.Join(parts, " OR ")))
		default:
			fqs = append(fqs, fmt.Sprintf("%s:%s", phys, quoteValue(v)))
		}
	}
	return fqs
}

func (t *Translator) sortString(q *models.SearchQuery) string {
	if len(q.Sort) == 0 {
		return defaultSort
	}
	parts := make([]string, 0, len(q.Sort))
	for _, s := range q.Sort {
		dir := strings.ToLower(s.Direction)
		if dir != "asc" {
			dir = "desc"
		}
		parts = append(parts, physicalField(s.Field)+" "+dir)
	}
	return strings.Join(parts, ", ")
}

// paginate converts page+limit to start+rows; explicit start/rows pass
// through unchanged.
func paginate(q *models.SearchQuery) (start, rows int) {
	if q.Start > 0 || q.Rows > 0 {
		rows = q.Rows
		if rows <= 0 {
			rows = 10
		}
		return q.Start, rows
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * limit, limit
}

// physicalField resolves a logical field name to its stored field name.
// "@self."-prefixed names map into the self_* namespace, aliases map to
// their physical mirrors, and everything else passes through.
func physicalField(name string) string {
	if rest, ok := strings.CutPrefix(name, "@self."); ok {
		if phys, ok := fieldAliases[rest]; ok {
			return phys
		}
		return "self_" + rest
	}
	if phys, ok := fieldAliases[name]; ok {
		return phys
	}
	return name
}

// TenantFilter returns the exact-match tenant isolation filter query.
func TenantFilter(tenantID string) string {
	return fmt.Sprintf("%s:%s", FieldTenant, quoteValue(tenantID))
}

// queryEscaper backslash-escapes the engine's query metacharacters.
var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`+`, `\+`,
	`-`, `\-`,
	`&`, `\&`,
	`|`, `\|`,
	`!`, `\!`,
	`(`, `\(`,
	`)`, `\)`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`^`, `\^`,
	`"`, `\"`,
	`~`, `\~`,
	`*`, `\*`,
	`?`, `\?`,
	`:`, `\:`,
	`/`, `\/`,
)

// EscapeQueryText escapes metacharacters while preserving whitespace, so
// multi-term free text still matches term-by-term.
func EscapeQueryText(s string) string {
	return queryEscaper.Replace(s)
}

// quoteValue renders a filter value as an escaped, quoted term.
func quoteValue(v interface{}) string {
	s := stringify(v)
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
