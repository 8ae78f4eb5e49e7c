package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kilupskalvis/regidx/internal/index"
	"github.com/kilupskalvis/regidx/internal/models"
	"github.com/kilupskalvis/regidx/internal/solr"
)

// FastSearchIDs runs a minimal-payload search returning only the requested
// identifier fields, capped at MaxFastSearchResults regardless of the
// requested size.
func (p *Pipeline) FastSearchIDs(ctx context.Context, q *models.SearchQuery, fields []string, maxResults int) ([]solr.Document, error) {
	if len(fields) == 0 {
		fields = []string{index.FieldID}
	}
	if maxResults <= 0 || maxResults > MaxFastSearchResults {
		maxResults = MaxFastSearchResults
	}

	capped := *q
	capped.Start = 0
	capped.Rows = maxResults
	capped.Page = 0
	capped.Limit = 0

	docs, _, err := p.indexer.SearchRaw(ctx, &capped, fields)
	if err != nil {
		return nil, fmt.Errorf("fast id search: %w", err)
	}
	return docs, nil
}

// StreamProcessor receives one page of documents per call.
type StreamProcessor func(docs []solr.Document) error

// StreamSearch computes the total count once, then iterates offset-based
// pages invoking the processor per batch. Iteration hard-stops at
// MaxStreamOffset to bound worst-case cost, logging a warning if the cap is
// hit before the results are exhausted.
func (p *Pipeline) StreamSearch(ctx context.Context, q *models.SearchQuery, proc StreamProcessor, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	probe := *q
	probe.Start = 0
	probe.Rows = 1
	probe.Page = 0
	probe.Limit = 0
	_, total, err := p.indexer.SearchRaw(ctx, &probe, []string{index.FieldID})
	if err != nil {
		return fmt.Errorf("stream search count: %w", err)
	}

	for offset := 0; int64(offset) < total; offset += batchSize {
		if offset >= MaxStreamOffset {
			p.logger.Warn("stream search stopped at safety offset",
				zap.Int("offset", offset),
				zap.Int64("total", total))
			return nil
		}

		page := *q
		page.Start = offset
		page.Rows = batchSize
		page.Page = 0
		page.Limit = 0
		docs, _, err := p.indexer.SearchRaw(ctx, &page, nil)
		if err != nil {
			return fmt.Errorf("stream search page at %d: %w", offset, err)
		}
		if len(docs) == 0 {
			return nil
		}
		if err := proc(docs); err != nil {
			return fmt.Errorf("stream processor at %d: %w", offset, err)
		}
	}
	return nil
}
