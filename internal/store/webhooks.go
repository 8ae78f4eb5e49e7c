package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilupskalvis/regidx/internal/models"
)

// webhookConfiguration is the JSON blob persisted in the configuration
// column: the behavioral flags that are not worth individual columns.
type webhookConfiguration struct {
	Async              bool                       `json:"async"`
	InterceptRequests  bool                       `json:"interceptRequests"`
	ProcessResponse    bool                       `json:"processResponse"`
	ResponseProcessing *models.ResponseProcessing `json:"responseProcessing,omitempty"`
	EnableRetries      bool                       `json:"enableRetries"`
}

const webhookColumns = `id, uuid, name, url, method, enabled, secret, headers,
	events, filters, configuration, retry_policy, max_retries,
	timeout_seconds, successes, failures, last_attempt`

// SaveWebhook inserts or updates a webhook definition. A missing UUID is
// assigned on insert.
func (s *Store) SaveWebhook(ctx context.Context, w *models.Webhook) error {
	if w.UUID == "" {
		w.UUID = uuid.New().String()
	}
	if w.Method == "" {
		w.Method = "POST"
	}
	if w.RetryPolicy == "" {
		w.RetryPolicy = models.RetryExponential
	}

	headers, _ := json.Marshal(w.Headers)
	events, _ := json.Marshal(w.Events)
	filters, _ := json.Marshal(w.Filters)
	cfg, _ := json.Marshal(webhookConfiguration{
		Async:              w.Async,
		InterceptRequests:  w.InterceptRequests,
		ProcessResponse:    w.ProcessResponse,
		ResponseProcessing: w.ResponseProcessing,
		EnableRetries:      w.EnableRetries,
	})

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO webhooks (uuid, name, url, method, enabled, secret, headers,
			events, filters, configuration, retry_policy, max_retries, timeout_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			name = excluded.name, url = excluded.url, method = excluded.method,
			enabled = excluded.enabled, secret = excluded.secret,
			headers = excluded.headers, events = excluded.events,
			filters = excluded.filters, configuration = excluded.configuration,
			retry_policy = excluded.retry_policy, max_retries = excluded.max_retries,
			timeout_seconds = excluded.timeout_seconds`,
		w.UUID, w.Name, w.URL, w.Method, w.Enabled, w.Secret, string(headers),
		string(events), string(filters), string(cfg),
		string(w.RetryPolicy), w.MaxRetries, w.TimeoutSeconds)
	if err != nil {
		return fmt.Errorf("save webhook %s: %w", w.UUID, err)
	}
	if w.ID == 0 {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			w.ID = id
		}
	}
	return nil
}

// FindWebhook returns one webhook by id, or nil when absent.
func (s *Store) FindWebhook(ctx context.Context, id int64) (*models.Webhook, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+webhookColumns+" FROM webhooks WHERE id = ?", id)
	w, err := scanWebhook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

// ListWebhooks returns all webhook definitions.
func (s *Store) ListWebhooks(ctx context.Context) ([]*models.Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+webhookColumns+" FROM webhooks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()
	return collectWebhooks(rows)
}

// EnabledForEvent returns the enabled webhooks registered for the event.
// Event-list matching happens in Go; the stored events column is JSON.
func (s *Store) EnabledForEvent(ctx context.Context, event string) ([]*models.Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+webhookColumns+" FROM webhooks WHERE enabled ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load enabled webhooks: %w", err)
	}
	defer rows.Close()

	all, err := collectWebhooks(rows)
	if err != nil {
		return nil, err
	}

	var out []*models.Webhook
	for _, w := range all {
		if w.ListensTo(event) {
			out = append(out, w)
		}
	}
	return out, nil
}

// UpdateWebhookStats records a delivery outcome. Statistics are mutated
// after every attempt; definitions themselves are never deleted here.
func (s *Store) UpdateWebhookStats(ctx context.Context, id int64, success bool, at time.Time) error {
	col := "failures"
	if success {
		col = "successes"
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE webhooks SET "+col+" = "+col+" + 1, last_attempt = ? WHERE id = ?",
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update webhook stats %d: %w", id, err)
	}
	return nil
}

// DeleteWebhook removes a webhook definition.
func (s *Store) DeleteWebhook(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM webhooks WHERE id = ?", id)
	return err
}

func scanWebhook(r rowScanner) (*models.Webhook, error) {
	var (
		w                   models.Webhook
		headers, events     sql.NullString
		filters, cfgJSON    sql.NullString
		policy              string
		lastAttempt         sql.NullString
		successes, failures int64
	)
	err := r.Scan(&w.ID, &w.UUID, &w.Name, &w.URL, &w.Method, &w.Enabled,
		&w.Secret, &headers, &events, &filters, &cfgJSON, &policy,
		&w.MaxRetries, &w.TimeoutSeconds, &successes, &failures, &lastAttempt)
	if err != nil {
		return nil, err
	}

	w.RetryPolicy = models.RetryPolicy(policy)
	if headers.Valid && headers.String != "" {
		_ = json.Unmarshal([]byte(headers.String), &w.Headers)
	}
	if events.Valid && events.String != "" {
		_ = json.Unmarshal([]byte(events.String), &w.Events)
	}
	if filters.Valid && filters.String != "" {
		_ = json.Unmarshal([]byte(filters.String), &w.Filters)
	}
	if cfgJSON.Valid && cfgJSON.String != "" {
		var cfg webhookConfiguration
		if json.Unmarshal([]byte(cfgJSON.String), &cfg) == nil {
			w.Async = cfg.Async
			w.InterceptRequests = cfg.InterceptRequests
			w.ProcessResponse = cfg.ProcessResponse
			w.ResponseProcessing = cfg.ResponseProcessing
			w.EnableRetries = cfg.EnableRetries
		}
	}
	w.Stats = models.WebhookStats{Successes: successes, Failures: failures}
	if lastAttempt.Valid {
		t := parseTimestamp(lastAttempt.String)
		w.Stats.LastAttempt = &t
	}
	return &w, nil
}

func collectWebhooks(rows *sql.Rows) ([]*models.Webhook, error) {
	var out []*models.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
