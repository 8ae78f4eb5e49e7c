// Package solr implements the Solr HTTP wire protocol: select, update with
// commit/optimize directives, ping, and collection administration.
package solr

import "encoding/json"

// Document is a flat engine document: field name to value.
type Document map[string]interface{}

// ResponseHeader is the common header of every Solr response.
type ResponseHeader struct {
	Status int `json:"status"`
	QTime  int `json:"QTime"`
}

// ResultBody holds matched documents and the total hit count.
type ResultBody struct {
	NumFound int64      `json:"numFound"`
	Start    int64      `json:"start"`
	Docs     []Document `json:"docs"`
}

// FacetCounts carries facet results. facet_fields is the flat
// [term, count, term, count, ...] pairing Solr emits.
type FacetCounts struct {
	FacetFields map[string][]json.RawMessage `json:"facet_fields"`
}

// Fields decodes facet_fields into per-field term counts.
func (fc *FacetCounts) Fields() map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(fc.FacetFields))
	for field, flat := range fc.FacetFields {
		counts := make(map[string]int64, len(flat)/2)
		for i := 0; i+1 < len(flat); i += 2 {
			var term string
			var count int64
			if err := json.Unmarshal(flat[i], &term); err != nil {
				continue
			}
			if err := json.Unmarshal(flat[i+1], &count); err != nil {
				continue
			}
			counts[term] = count
		}
		out[field] = counts
	}
	return out
}

// SelectResponse is the full response of a /select query.
type SelectResponse struct {
	ResponseHeader ResponseHeader `json:"responseHeader"`
	Response       ResultBody     `json:"response"`
	FacetCounts    *FacetCounts   `json:"facet_counts,omitempty"`
}

// collectionsListResponse is the collection-admin LIST response.
type collectionsListResponse struct {
	ResponseHeader ResponseHeader `json:"responseHeader"`
	Collections    []string       `json:"collections"`
}

// pingResponse is the /admin/ping response.
type pingResponse struct {
	ResponseHeader ResponseHeader `json:"responseHeader"`
	Status         string         `json:"status"`
}
