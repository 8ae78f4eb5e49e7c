package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kilupskalvis/regidx/internal/config"
	"github.com/kilupskalvis/regidx/internal/models"
	"github.com/kilupskalvis/regidx/internal/solr"
	"github.com/kilupskalvis/regidx/internal/tenant"
)

// SearchResult is the outcome of a translated search with rehydrated
// objects.
type SearchResult struct {
	Objects []*models.RegistryObject
	Facets  map[string]map[string]int64
	Total   int64
	TimeMS  int
}

// Service is the tenant-scoped index client. The engine connection is
// initialized lazily on first real operation; initialization is idempotent
// and guarded for concurrent callers.
type Service struct {
	cfg        *config.Config
	client     solr.ClientInterface
	resolver   *tenant.Resolver
	mapper     *Mapper
	translator *Translator
	logger     *zap.Logger
	schemas    map[int64]*models.Schema

	mu          sync.Mutex
	initialized bool
	collection  string
	degraded    bool

	counters counters
}

type counters struct {
	mu         sync.Mutex
	indexes    int64
	deletes    int64
	errors     int64
	searches   int64
	indexTime  time.Duration
	searchTime time.Duration
}

// NewService wires the index service. client is typically a
// solr.RetryClient around the wire client.
func NewService(cfg *config.Config, client solr.ClientInterface, logger *zap.Logger) *Service {
	r := tenant.NewResolver(
		cfg.Multitenancy.Enabled,
		cfg.Multitenancy.TenantID,
		cfg.Multitenancy.OverrideHost,
		cfg.Multitenancy.InstanceID,
	)
	return &Service{
		cfg:        cfg,
		client:     client,
		resolver:   r,
		mapper:     NewMapper(),
		translator: NewTranslator(r.TenantID()),
		logger:     logger,
	}
}

// WithSchemas registers schemas for schema-aware mapping, keyed by schema id.
func (s *Service) WithSchemas(schemas map[int64]*models.Schema) *Service {
	s.schemas = schemas
	return s
}

// TenantID returns the tenant this service indexes under.
func (s *Service) TenantID() string {
	return s.resolver.TenantID()
}

// Collection returns the collection in use and whether tenant isolation is
// degraded (fallback to the shared base collection). Valid after the first
// operation.
func (s *Service) Collection() (name string, degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection, s.degraded
}

// ensureInitialized resolves the tenant collection exactly once. When the
// tenant-specific collection cannot be verified or created, operations fall
// back to the base collection with a logged warning: degraded isolation is
// preferred over a hard failure.
func (s *Service) ensureInitialized(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return s.collection, nil
	}

	base := s.cfg.Solr.Core
	desired := s.resolver.CollectionName(base)
	s.collection = desired

	if desired != base {
		if err := s.ensureCollection(ctx, desired); err != nil {
			s.logger.Warn("tenant collection unavailable, falling back to base collection",
				zap.String("tenant", s.resolver.TenantID()),
				zap.String("collection", desired),
				zap.String("fallback", base),
				zap.Error(err))
			s.collection = base
			s.degraded = true
		}
	}

	s.initialized = true
	s.logger.Info("index client initialized",
		zap.String("tenant", s.resolver.TenantID()),
		zap.String("collection", s.collection),
		zap.Bool("degraded", s.degraded))
	return s.collection, nil
}

func (s *Service) ensureCollection(ctx context.Context, name string) error {
	existing, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range existing {
		if c == name {
			return nil
		}
	}
	if err := s.client.CreateCollection(ctx, name, s.cfg.Solr.ConfigSet); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Available reports whether indexing is usable: the feature flag is on and
// the client initialized. Fallback to the base collection still counts as
// available.
func (s *Service) Available(ctx context.Context) bool {
	if !s.cfg.Solr.Enabled {
		return false
	}
	_, err := s.ensureInitialized(ctx)
	return err == nil
}

func (s *Service) updateOptions(commit bool) solr.UpdateOptions {
	opts := solr.UpdateOptions{Commit: commit}
	if !commit && s.cfg.Solr.CommitWithinMS > 0 {
		opts.CommitWithin = s.cfg.Solr.CommitWithinMS
	}
	return opts
}

func (s *Service) schemaFor(obj *models.RegistryObject) *models.Schema {
	if s.schemas == nil {
		return nil
	}
	return s.schemas[obj.SchemaID]
}

// IndexObject indexes a single object. Engine failures are logged, counted,
// and reported as false; callers never receive a transport error.
func (s *Service) IndexObject(ctx context.Context, obj *models.RegistryObject, commit bool) bool {
	n, ok := s.BulkIndexObjects(ctx, []*models.RegistryObject{obj}, commit)
	return ok && n == 1
}

// BulkIndexObjects indexes a set of objects in one update request. Returns
// the number of documents sent and whether the request succeeded.
func (s *Service) BulkIndexObjects(ctx context.Context, objs []*models.RegistryObject, commit bool) (int, bool) {
	if !s.cfg.Solr.Enabled || len(objs) == 0 {
		return 0, s.cfg.Solr.Enabled
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return 0, false
	}

	docs := make([]solr.Document, 0, len(objs))
	for _, obj := range objs {
		doc, err := s.mapper.ToDocument(obj, s.schemaFor(obj), s.resolver.TenantID())
		if err != nil {
			s.countError()
			s.logger.Error("map object for indexing",
				zap.String("tenant", s.resolver.TenantID()),
				zap.String("object", obj.Identifier()),
				zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return 0, false
	}

	start := time.Now()
	if err := s.client.Add(ctx, collection, docs, s.updateOptions(commit)); err != nil {
		s.countError()
		s.logger.Error("bulk index failed",
			zap.String("tenant", s.resolver.TenantID()),
			zap.String("collection", collection),
			zap.Int("docs", len(docs)),
			zap.Error(err))
		return 0, false
	}
	s.countIndexes(len(docs), time.Since(start))
	return len(docs), true
}

// DeleteObject removes a single object from the index.
func (s *Service) DeleteObject(ctx context.Context, id string, commit bool) bool {
	if !s.cfg.Solr.Enabled {
		return false
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return false
	}

	if err := s.client.DeleteByID(ctx, collection, []string{id}, s.updateOptions(commit)); err != nil {
		s.countError()
		s.logger.Error("delete object failed",
			zap.String("tenant", s.resolver.TenantID()),
			zap.String("object", id),
			zap.Error(err))
		return false
	}
	s.countDeletes(1)
	return true
}

// ClearIndex removes every document owned by this tenant. Other tenants'
// data in a shared collection is never touched.
func (s *Service) ClearIndex(ctx context.Context) bool {
	if !s.cfg.Solr.Enabled {
		return false
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return false
	}

	q := TenantFilter(s.resolver.TenantID())
	if err := s.client.DeleteByQuery(ctx, collection, q, solr.UpdateOptions{Commit: true}); err != nil {
		s.countError()
		s.logger.Error("clear index failed",
			zap.String("tenant", s.resolver.TenantID()),
			zap.Error(err))
		return false
	}
	return true
}

// Commit issues an explicit engine commit.
func (s *Service) Commit(ctx context.Context) bool {
	if !s.cfg.Solr.Enabled {
		return false
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return false
	}
	if err := s.client.Commit(ctx, collection); err != nil {
		s.countError()
		s.logger.Error("commit failed", zap.Error(err))
		return false
	}
	return true
}

// Optimize merges index segments.
func (s *Service) Optimize(ctx context.Context) bool {
	if !s.cfg.Solr.Enabled {
		return false
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return false
	}
	if err := s.client.Optimize(ctx, collection); err != nil {
		s.countError()
		s.logger.Error("optimize failed", zap.Error(err))
		return false
	}
	return true
}

// SearchObjects executes a translated query and rehydrates each hit into a
// registry object. Engine failures yield an empty result; a corrupt stored
// document is a hard error (ErrCorruptDocument).
func (s *Service) SearchObjects(ctx context.Context, q *models.SearchQuery) (*SearchResult, error) {
	empty := &SearchResult{Facets: map[string]map[string]int64{}}
	if !s.cfg.Solr.Enabled {
		return empty, nil
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return empty, nil
	}

	start := time.Now()
	resp, err := s.client.Select(ctx, collection, s.translator.Translate(q))
	if err != nil {
		s.countError()
		s.logger.Error("search failed",
			zap.String("tenant", s.resolver.TenantID()),
			zap.Error(err))
		return empty, nil
	}
	s.countSearch(time.Since(start))

	result := &SearchResult{
		Total:  resp.Response.NumFound,
		TimeMS: resp.ResponseHeader.QTime,
		Facets: map[string]map[string]int64{},
	}
	if resp.FacetCounts != nil {
		result.Facets = resp.FacetCounts.Fields()
	}

	for _, doc := range resp.Response.Docs {
		obj, err := ObjectFromDocument(doc)
		if err != nil {
			return nil, err
		}
		result.Objects = append(result.Objects, obj)
	}
	return result, nil
}

// SearchRaw executes a translated query returning raw documents restricted
// to the requested fields. Unlike SearchObjects, engine errors propagate:
// the bulk pipeline wants loud failures.
func (s *Service) SearchRaw(ctx context.Context, q *models.SearchQuery, fields []string) ([]solr.Document, int64, error) {
	if !s.cfg.Solr.Enabled {
		return nil, 0, nil
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return nil, 0, err
	}

	params := s.translator.Translate(q)
	params.Fields = fields
	resp, err := s.client.Select(ctx, collection, params)
	if err != nil {
		s.countError()
		return nil, 0, err
	}
	return resp.Response.Docs, resp.Response.NumFound, nil
}

// IndexFileChunks indexes one document per chunk, each carrying its index,
// total count, and a back-reference to the source file so the whole file can
// be deleted with a single filter query.
func (s *Service) IndexFileChunks(ctx context.Context, fileID string, chunks []models.Chunk, meta map[string]interface{}) bool {
	if !s.cfg.Solr.Enabled || len(chunks) == 0 {
		return false
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return false
	}

	docs := make([]solr.Document, 0, len(chunks))
	for _, c := range chunks {
		doc := solr.Document{
			FieldID:          fmt.Sprintf("%s_chunk_%d", fileID, c.Index),
			FieldTenant:      s.resolver.TenantID(),
			FieldFileID:      fileID,
			FieldChunkIndex:  c.Index,
			FieldTotalChunks: c.TotalChunks,
			FieldChunkText:   c.Text,
			FieldText:        c.Text,
		}
		for k, v := range meta {
			flattenValue(doc, k, v)
		}
		docs = append(docs, doc)
	}

	start := time.Now()
	if err := s.client.Add(ctx, collection, docs, s.updateOptions(false)); err != nil {
		s.countError()
		s.logger.Error("index file chunks failed",
			zap.String("file", fileID),
			zap.Int("chunks", len(docs)),
			zap.Error(err))
		return false
	}
	s.countIndexes(len(docs), time.Since(start))
	return true
}

// DeleteFileChunks removes every chunk document of a file.
func (s *Service) DeleteFileChunks(ctx context.Context, fileID string) bool {
	if !s.cfg.Solr.Enabled {
		return false
	}
	collection, err := s.ensureInitialized(ctx)
	if err != nil {
		return false
	}

	q := fmt.Sprintf("%s:%s AND %s", FieldFileID, quoteValue(fileID), TenantFilter(s.resolver.TenantID()))
	if err := s.client.DeleteByQuery(ctx, collection, q, s.updateOptions(false)); err != nil {
		s.countError()
		s.logger.Error("delete file chunks failed", zap.String("file", fileID), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) countIndexes(n int, d time.Duration) {
	s.counters.mu.Lock()
	s.counters.indexes += int64(n)
	s.counters.indexTime += d
	s.counters.mu.Unlock()
}

func (s *Service) countDeletes(n int) {
	s.counters.mu.Lock()
	s.counters.deletes += int64(n)
	s.counters.mu.Unlock()
}

func (s *Service) countSearch(d time.Duration) {
	s.counters.mu.Lock()
	s.counters.searches++
	s.counters.searchTime += d
	s.counters.mu.Unlock()
}

func (s *Service) countError() {
	s.counters.mu.Lock()
	s.counters.errors++
	s.counters.mu.Unlock()
}
