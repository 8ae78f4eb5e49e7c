package solr

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient_NilError(t *testing.T) {
	assert.False(t, isTransient(nil))
}

func TestIsTransient_ServerError(t *testing.T) {
	err := &EngineError{Status: 500, Message: "server error"}
	assert.True(t, isTransient(err))
}

func TestIsTransient_TooManyRequests(t *testing.T) {
	err := &EngineError{Status: http.StatusTooManyRequests, Message: "too many"}
	assert.True(t, isTransient(err))
}

func TestIsTransient_ClientError(t *testing.T) {
	err := &EngineError{Status: 400, Message: "bad query"}
	assert.False(t, isTransient(err))
}

func TestIsTransient_ContextCanceled(t *testing.T) {
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(context.DeadlineExceeded))
}

func TestIsTransient_NetworkError(t *testing.T) {
	assert.True(t, isTransient(errors.New("connection refused")))
}

func TestRetryClient_Backoff(t *testing.T) {
	rc := NewRetryClient(nil, &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		JitterFraction: 0.0, // no jitter for deterministic test
	})

	assert.Equal(t, 100*time.Millisecond, rc.backoff(0))
	assert.Equal(t, 200*time.Millisecond, rc.backoff(1))
	assert.Equal(t, 400*time.Millisecond, rc.backoff(2))
}

func TestRetryClient_BackoffCapped(t *testing.T) {
	rc := NewRetryClient(nil, &RetryConfig{
		MaxRetries:     10,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     5 * time.Second,
		JitterFraction: 0.0,
	})

	assert.Equal(t, 5*time.Second, rc.backoff(8))
}

func TestRetryClient_RetriesTransient(t *testing.T) {
	rc := NewRetryClient(nil, &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})

	calls := 0
	err := rc.retry(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return &EngineError{Status: 503, Message: "busy"}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryClient_DoesNotRetryPermanent(t *testing.T) {
	rc := NewRetryClient(nil, &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})

	calls := 0
	err := rc.retry(context.Background(), "op", func() error {
		calls++
		return &EngineError{Status: 400, Message: "bad query"}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryClient_ExhaustsRetries(t *testing.T) {
	rc := NewRetryClient(nil, &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})

	calls := 0
	err := rc.retry(context.Background(), "op", func() error {
		calls++
		return &EngineError{Status: 500, Message: "down"}
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 2 retries")
}
