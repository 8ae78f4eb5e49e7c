package models

import "time"

// RetryPolicy selects the backoff curve for failed webhook deliveries.
type RetryPolicy string

const (
	RetryExponential RetryPolicy = "exponential"
	RetryLinear      RetryPolicy = "linear"
	RetryFixed       RetryPolicy = "fixed"
)

// MergeStrategy selects how an interception response mutates the original
// request.
type MergeStrategy string

const (
	MergeReplace MergeStrategy = "replace"
	MergeShallow MergeStrategy = "merge"
	MergeCustom  MergeStrategy = "custom"
)

// ResponseProcessing configures response-driven request mutation for
// webhooks operating in request-interception mode.
type ResponseProcessing struct {
	Strategy MergeStrategy `json:"strategy"`
	// FieldMapping maps response dot-paths to request dot-paths; used by the
	// custom strategy only.
	FieldMapping map[string]string `json:"fieldMapping,omitempty"`
}

// WebhookStats tracks delivery outcomes for one webhook. Mutated after every
// attempt; approximate, not a durability guarantee.
type WebhookStats struct {
	Successes   int64      `json:"successes"`
	Failures    int64      `json:"failures"`
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`
}

// Webhook is a configured outbound delivery endpoint.
type Webhook struct {
	ID      int64             `json:"id"`
	UUID    string            `json:"uuid"`
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Enabled bool              `json:"enabled"`
	Secret  string            `json:"secret,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Events  []string          `json:"events"`
	// Filters are matched against the event payload before delivery; a
	// non-matching filter skips the webhook without logging an attempt.
	// Values support dot-notation field paths and array set-membership.
	Filters map[string]interface{} `json:"filters,omitempty"`

	// Async defers the first delivery attempt to the outbox worker
	// instead of delivering inline with the triggering operation.
	Async              bool                `json:"async"`
	InterceptRequests  bool                `json:"interceptRequests"`
	ProcessResponse    bool                `json:"processResponse"`
	ResponseProcessing *ResponseProcessing `json:"responseProcessing,omitempty"`

	EnableRetries  bool         `json:"enableRetries"`
	RetryPolicy    RetryPolicy  `json:"retryPolicy"`
	MaxRetries     int          `json:"maxRetries"`
	TimeoutSeconds int          `json:"timeoutSeconds"`
	Stats          WebhookStats `json:"statistics"`
}

// Timeout returns the per-webhook delivery timeout, defaulting to 30s.
func (w *Webhook) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// ListensTo reports whether the webhook is registered for the given event.
func (w *Webhook) ListensTo(event string) bool {
	for _, e := range w.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

// DeliveryLog records one delivery attempt. Rows are immutable after insert;
// a retry produces a new row with an incremented Attempt.
type DeliveryLog struct {
	ID           int64      `json:"id"`
	WebhookID    int64      `json:"webhookId"`
	EventClass   string     `json:"eventClass"`
	Payload      string     `json:"payload"`
	URL          string     `json:"url"`
	Method       string     `json:"method"`
	Attempt      int        `json:"attempt"`
	Success      bool       `json:"success"`
	StatusCode   int        `json:"statusCode,omitempty"`
	ResponseBody string     `json:"responseBody,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	NextRetryAt  *time.Time `json:"nextRetryAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
