package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kilupskalvis/regidx/internal/models"
)

// InsertDeliveryLog appends one delivery-attempt row. Rows are immutable;
// retries insert new rows with an incremented attempt.
func (s *Store) InsertDeliveryLog(ctx context.Context, l *models.DeliveryLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_logs (webhook_id, event_class, payload, url, method,
			attempt, success, status_code, response_body, error_message,
			next_retry_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.WebhookID, l.EventClass, l.Payload, l.URL, l.Method,
		l.Attempt, l.Success, l.StatusCode, l.ResponseBody, l.ErrorMessage,
		formatTimePtr(l.NextRetryAt), l.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert delivery log: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		l.ID = id
	}
	return nil
}

// DeliveryLogs returns the most recent delivery attempts for a webhook.
func (s *Store) DeliveryLogs(ctx context.Context, webhookID int64, limit int) ([]*models.DeliveryLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, webhook_id, event_class, payload, url, method, attempt,
			success, status_code, response_body, error_message, next_retry_at, created_at
		FROM webhook_logs WHERE webhook_id = ?
		ORDER BY id DESC LIMIT ?`, webhookID, limit)
	if err != nil {
		return nil, fmt.Errorf("load delivery logs: %w", err)
	}
	defer rows.Close()

	var out []*models.DeliveryLog
	for rows.Next() {
		var (
			l                     models.DeliveryLog
			payload, body, errMsg sql.NullString
			nextRetry, created    sql.NullString
			statusCode            sql.NullInt64
		)
		err := rows.Scan(&l.ID, &l.WebhookID, &l.EventClass, &payload, &l.URL,
			&l.Method, &l.Attempt, &l.Success, &statusCode, &body, &errMsg,
			&nextRetry, &created)
		if err != nil {
			return nil, err
		}
		l.Payload = payload.String
		l.ResponseBody = body.String
		l.ErrorMessage = errMsg.String
		l.StatusCode = int(statusCode.Int64)
		if nextRetry.Valid {
			t := parseTimestamp(nextRetry.String)
			l.NextRetryAt = &t
		}
		if created.Valid {
			l.CreatedAt = parseTimestamp(created.String)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// PruneDeliveryLogs deletes delivery logs older than the cutoff. Driven by
// the search-trail retention window.
func (s *Store) PruneDeliveryLogs(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM webhook_logs WHERE created_at < ?",
		olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune delivery logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
