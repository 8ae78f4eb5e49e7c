package models

// SortField is a single sort clause.
type SortField struct {
	Field     string
	Direction string // "asc" or "desc"
}

// SearchQuery is the engine-independent query shape accepted by the index
// service. Filters values may be scalars or slices; slice values translate
// to an OR group of equality clauses.
type SearchQuery struct {
	FreeText    string
	Filters     map[string]interface{}
	Sort        []SortField
	Page        int // 1-based; converted to Start/Rows when set
	Limit       int
	Start       int // explicit offset, passes through unchanged
	Rows        int
	FacetFields []string
}
