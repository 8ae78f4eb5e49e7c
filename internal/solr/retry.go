package solr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig configures retry behavior for transient engine errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.25,
	}
}

// RetryClient wraps a ClientInterface with automatic retry on transient
// errors.
type RetryClient struct {
	inner  ClientInterface
	config *RetryConfig
}

// NewRetryClient creates a RetryClient that wraps the given client.
func NewRetryClient(inner ClientInterface, cfg *RetryConfig) *RetryClient {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	return &RetryClient{inner: inner, config: cfg}
}

// isTransient returns true for errors that are worth retrying.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Status >= 500 || ee.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true // network errors are transient
}

// backoff computes the delay for the given attempt with jitter.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	base := float64(rc.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(rc.config.MaxBackoff) {
		base = float64(rc.config.MaxBackoff)
	}
	jitter := base * rc.config.JitterFraction * (rand.Float64()*2 - 1) // +/- jitter
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry executes fn with retry logic. Only retries transient errors.
func (rc *RetryClient) retry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= rc.config.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt < rc.config.MaxRetries {
			d := rc.backoff(attempt)
			if err := sleep(ctx, d); err != nil {
				return fmt.Errorf("%s: %w (retry cancelled)", operation, lastErr)
			}
		}
	}
	return fmt.Errorf("%s: %w (after %d retries)", operation, lastErr, rc.config.MaxRetries)
}

func (rc *RetryClient) Ping(ctx context.Context, collection string) error {
	return rc.retry(ctx, "ping", func() error {
		return rc.inner.Ping(ctx, collection)
	})
}

func (rc *RetryClient) Select(ctx context.Context, collection string, params SelectParams) (resp *SelectResponse, err error) {
	err = rc.retry(ctx, "select", func() error {
		resp, err = rc.inner.Select(ctx, collection, params)
		return err
	})
	return
}

func (rc *RetryClient) Add(ctx context.Context, collection string, docs []Document, opts UpdateOptions) error {
	return rc.retry(ctx, "add", func() error {
		return rc.inner.Add(ctx, collection, docs, opts)
	})
}

func (rc *RetryClient) DeleteByID(ctx context.Context, collection string, ids []string, opts UpdateOptions) error {
	return rc.retry(ctx, "delete by id", func() error {
		return rc.inner.DeleteByID(ctx, collection, ids, opts)
	})
}

func (rc *RetryClient) DeleteByQuery(ctx context.Context, collection, query string, opts UpdateOptions) error {
	return rc.retry(ctx, "delete by query", func() error {
		return rc.inner.DeleteByQuery(ctx, collection, query, opts)
	})
}

func (rc *RetryClient) Commit(ctx context.Context, collection string) error {
	return rc.retry(ctx, "commit", func() error {
		return rc.inner.Commit(ctx, collection)
	})
}

func (rc *RetryClient) Optimize(ctx context.Context, collection string) error {
	// Optimize is expensive enough that a duplicate run hurts; not retried.
	return rc.inner.Optimize(ctx, collection)
}

func (rc *RetryClient) ListCollections(ctx context.Context) (collections []string, err error) {
	err = rc.retry(ctx, "list collections", func() error {
		collections, err = rc.inner.ListCollections(ctx)
		return err
	})
	return
}

func (rc *RetryClient) CreateCollection(ctx context.Context, name, configSet string) error {
	// Collection creation is not idempotent across all engine versions;
	// a failed-but-applied CREATE would fail hard on retry.
	return rc.inner.CreateCollection(ctx, name, configSet)
}
