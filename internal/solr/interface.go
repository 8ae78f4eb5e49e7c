package solr

import "context"

// ClientInterface defines the engine operations the index service depends on.
// Implemented by Client and RetryClient; mocked in tests.
type ClientInterface interface {
	Ping(ctx context.Context, collection string) error
	Select(ctx context.Context, collection string, params SelectParams) (*SelectResponse, error)
	Add(ctx context.Context, collection string, docs []Document, opts UpdateOptions) error
	DeleteByID(ctx context.Context, collection string, ids []string, opts UpdateOptions) error
	DeleteByQuery(ctx context.Context, collection, query string, opts UpdateOptions) error
	Commit(ctx context.Context, collection string) error
	Optimize(ctx context.Context, collection string) error
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name, configSet string) error
}
