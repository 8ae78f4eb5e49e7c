package index

// Statistics is a best-effort dashboard snapshot of process-lifetime
// operation counters. Counters reset on process restart; they approximate
// activity and are not a durability guarantee.
type Statistics struct {
	Enabled    bool    `json:"enabled"`
	TenantID   string  `json:"tenantId"`
	Collection string  `json:"collection"`
	Degraded   bool    `json:"degraded"`
	Indexes    int64   `json:"indexes"`
	Deletes    int64   `json:"deletes"`
	Searches   int64   `json:"searches"`
	Errors     int64   `json:"errors"`
	AvgIndexMS float64 `json:"avgIndexMs"`
	AvgQueryMS float64 `json:"avgQueryMs"`
	Error      string  `json:"error,omitempty"`
}

// Statistics returns the current counters. It never panics and never
// propagates an engine error; a placeholder structure with the Error field
// set is returned instead.
func (s *Service) Statistics() (st Statistics) {
	defer func() {
		if r := recover(); r != nil {
			st.Error = "statistics unavailable"
		}
	}()

	st = Statistics{
		Enabled:  s.cfg.Solr.Enabled,
		TenantID: s.resolver.TenantID(),
	}
	st.Collection, st.Degraded = s.Collection()
	if st.Collection == "" {
		st.Collection = s.resolver.CollectionName(s.cfg.Solr.Core)
		st.Error = "index client not yet initialized"
	}

	s.counters.mu.Lock()
	defer s.counters.mu.Unlock()
	st.Indexes = s.counters.indexes
	st.Deletes = s.counters.deletes
	st.Searches = s.counters.searches
	st.Errors = s.counters.errors
	if s.counters.indexes > 0 {
		st.AvgIndexMS = float64(s.counters.indexTime.Milliseconds()) / float64(s.counters.indexes)
	}
	if s.counters.searches > 0 {
		st.AvgQueryMS = float64(s.counters.searchTime.Milliseconds()) / float64(s.counters.searches)
	}
	return st
}
