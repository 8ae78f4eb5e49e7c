// Package pipeline provides long-running bulk indexing and streaming search
// loops over the index service. These are synchronous worker-style
// operations, not interactive request handlers.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kilupskalvis/regidx/internal/models"
	"github.com/kilupskalvis/regidx/internal/solr"
)

// Safety ceilings. Soft protective limits: hitting one truncates with a
// warning instead of failing.
const (
	MaxFastSearchResults = 50000
	MaxStreamOffset      = 100000
)

// ObjectStore is the paginated read surface of the object store.
type ObjectStore interface {
	FindAllInRange(ctx context.Context, offset, count int) ([]*models.RegistryObject, error)
	TotalCount(ctx context.Context) (int, error)
}

// Indexer is the slice of the index service the pipeline drives.
type Indexer interface {
	BulkIndexObjects(ctx context.Context, objs []*models.RegistryObject, commit bool) (int, bool)
	Commit(ctx context.Context) bool
	Optimize(ctx context.Context) bool
	SearchRaw(ctx context.Context, q *models.SearchQuery, fields []string) ([]solr.Document, int64, error)
}

// BulkResult summarizes a bulk indexing run.
type BulkResult struct {
	Processed        int
	Errors           int
	Batches          int
	Commits          int
	Elapsed          time.Duration
	ObjectsPerSecond float64
}

// Options tune the bulk pipeline. The zero value gets sensible defaults.
type Options struct {
	CommitEveryBatches int           // intermediate commit cadence; default 5
	CommitInterval     time.Duration // wall-clock commit cadence; default 30s
	Parallelism        int           // fan-out workers for FastBulkIndex; default 1 (serial)
}

func (o Options) withDefaults() Options {
	if o.CommitEveryBatches <= 0 {
		o.CommitEveryBatches = 5
	}
	if o.CommitInterval <= 0 {
		o.CommitInterval = 30 * time.Second
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 1
	}
	return o
}

// Pipeline runs bulk and streaming operations against the index service.
type Pipeline struct {
	indexer Indexer
	store   ObjectStore
	logger  *zap.Logger
	opts    Options
}

// New creates a pipeline.
func New(indexer Indexer, store ObjectStore, logger *zap.Logger, opts Options) *Pipeline {
	return &Pipeline{indexer: indexer, store: store, logger: logger, opts: opts.withDefaults()}
}

// BulkIndexFromStore paginates through the object store in fixed-size pages
// and indexes each page without a per-page commit, committing periodically
// and once at the end. Store read errors propagate: a silent partial index
// would be worse than a loud failure.
func (p *Pipeline) BulkIndexFromStore(ctx context.Context, batchSize, maxObjects int) (*BulkResult, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	total, err := p.store.TotalCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count objects: %w", err)
	}
	if maxObjects > 0 && total > maxObjects {
		total = maxObjects
	}

	result := &BulkResult{}
	start := time.Now()
	lastCommit := start

	for offset := 0; offset < total; offset += batchSize {
		count := batchSize
		if offset+count > total {
			count = total - offset
		}

		objs, err := p.store.FindAllInRange(ctx, offset, count)
		if err != nil {
			return nil, fmt.Errorf("read objects at offset %d: %w", offset, err)
		}
		if len(objs) == 0 {
			break
		}

		indexed, _ := p.indexer.BulkIndexObjects(ctx, objs, false)
		result.Processed += indexed
		result.Errors += len(objs) - indexed
		result.Batches++

		if result.Batches%p.opts.CommitEveryBatches == 0 || time.Since(lastCommit) >= p.opts.CommitInterval {
			if p.indexer.Commit(ctx) {
				result.Commits++
			}
			lastCommit = time.Now()
		}
	}

	if p.indexer.Commit(ctx) {
		result.Commits++
	}

	result.Elapsed = time.Since(start)
	if secs := result.Elapsed.Seconds(); secs > 0 {
		result.ObjectsPerSecond = float64(result.Processed) / secs
	}

	p.logger.Info("bulk index from store complete",
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
		zap.Int("batches", result.Batches),
		zap.Int("commits", result.Commits),
		zap.Float64("objects_per_second", result.ObjectsPerSecond))
	return result, nil
}

// FastBulkIndex applies the same batching discipline to an in-memory
// collection. When Parallelism > 1, batches fan out to concurrent workers
// and results are aggregated; serial execution is the default and safe
// choice.
func (p *Pipeline) FastBulkIndex(ctx context.Context, objs []*models.RegistryObject, chunkSize, commitEvery int, optimize bool) *BulkResult {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if commitEvery <= 0 {
		commitEvery = p.opts.CommitEveryBatches
	}

	batches := make([][]*models.RegistryObject, 0, (len(objs)+chunkSize-1)/chunkSize)
	for i := 0; i < len(objs); i += chunkSize {
		end := i + chunkSize
		if end > len(objs) {
			end = len(objs)
		}
		batches = append(batches, objs[i:end])
	}

	result := &BulkResult{Batches: len(batches)}
	start := time.Now()

	if p.opts.Parallelism > 1 {
		p.fanOut(ctx, batches, result)
		if p.indexer.Commit(ctx) {
			result.Commits++
		}
	} else {
		for i, batch := range batches {
			indexed, _ := p.indexer.BulkIndexObjects(ctx, batch, false)
			result.Processed += indexed
			result.Errors += len(batch) - indexed
			if (i+1)%commitEvery == 0 {
				if p.indexer.Commit(ctx) {
					result.Commits++
				}
			}
		}
		if p.indexer.Commit(ctx) {
			result.Commits++
		}
	}

	if optimize {
		p.indexer.Optimize(ctx)
	}

	result.Elapsed = time.Since(start)
	if secs := result.Elapsed.Seconds(); secs > 0 {
		result.ObjectsPerSecond = float64(result.Processed) / secs
	}
	return result
}

// fanOut distributes batches across workers and aggregates counts.
func (p *Pipeline) fanOut(ctx context.Context, batches [][]*models.RegistryObject, result *BulkResult) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		work = make(chan []*models.RegistryObject)
	)

	for w := 0; w < p.opts.Parallelism; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range work {
				indexed, _ := p.indexer.BulkIndexObjects(ctx, batch, false)
				mu.Lock()
				result.Processed += indexed
				result.Errors += len(batch) - indexed
				mu.Unlock()
			}
		}()
	}

	for _, b := range batches {
		work <- b
	}
	close(work)
	wg.Wait()
}
