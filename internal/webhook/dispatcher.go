package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kilupskalvis/regidx/internal/config"
	"github.com/kilupskalvis/regidx/internal/models"
)

// maxResponseBody bounds how much of a delivery response is recorded.
const maxResponseBody = 64 * 1024

// WebhookStore is the persistence surface the dispatcher needs.
type WebhookStore interface {
	EnabledForEvent(ctx context.Context, event string) ([]*models.Webhook, error)
	FindWebhook(ctx context.Context, id int64) (*models.Webhook, error)
	InsertDeliveryLog(ctx context.Context, l *models.DeliveryLog) error
	UpdateWebhookStats(ctx context.Context, id int64, success bool, at time.Time) error
}

// Dispatcher fans events out to registered webhooks.
type Dispatcher struct {
	store  WebhookStore
	outbox *Outbox
	client *http.Client
	cfg    config.WebhookConfig
	source string
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher. The outbox may be nil, in which case
// failed deliveries are not retried.
func NewDispatcher(store WebhookStore, outbox *Outbox, cfg config.WebhookConfig, source string, logger *zap.Logger) *Dispatcher {
	timeout := time.Duration(cfg.DefaultTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		store:  store,
		outbox: outbox,
		client: &http.Client{Timeout: timeout},
		cfg:    cfg,
		source: source,
		logger: logger,
	}
}

// DispatchEvent delivers an event to every enabled webhook registered for
// it. A webhook whose filters do not match the payload is skipped silently;
// no delivery log row is written for a filter mismatch. Async webhooks get
// their first attempt queued to the outbox instead of delivered inline.
// Delivery failures are logged per webhook and never fail the dispatch as a
// whole.
func (d *Dispatcher) DispatchEvent(ctx context.Context, eventClass string, payload map[string]interface{}) error {
	hooks, err := d.store.EnabledForEvent(ctx, eventClass)
	if err != nil {
		return fmt.Errorf("load webhooks for %s: %w", eventClass, err)
	}

	event := NewCloudEvent(d.source, eventClass, payload)
	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventClass, err)
	}

	for _, w := range hooks {
		if w.InterceptRequests {
			// interception hooks run on the request path, not the event path
			continue
		}
		if len(w.Filters) > 0 && !MatchFilters(w.Filters, payload) {
			d.logger.Debug("webhook filter mismatch, skipping",
				zap.Int64("webhook", w.ID),
				zap.String("event", eventClass))
			continue
		}
		if w.Async && d.outbox != nil {
			// Retry delivers queued entries with Attempt+1
			qErr := d.outbox.Enqueue(PendingDelivery{
				WebhookID:  w.ID,
				EventClass: eventClass,
				Payload:    body,
				Attempt:    0,
				NotBefore:  time.Now(),
			})
			if qErr == nil {
				d.logger.Debug("queued async webhook delivery",
					zap.Int64("webhook", w.ID),
					zap.String("event", eventClass))
				continue
			}
			d.logger.Error("failed to queue async delivery, delivering inline",
				zap.Int64("webhook", w.ID), zap.Error(qErr))
		}
		d.attempt(ctx, w, eventClass, body, 1)
	}
	return nil
}

// attempt delivers once, records the outcome, and parks a retry when the
// webhook allows it.
func (d *Dispatcher) attempt(ctx context.Context, w *models.Webhook, eventClass string, body []byte, attempt int) {
	status, respBody, err := d.deliver(ctx, w, body)

	log := &models.DeliveryLog{
		WebhookID:    w.ID,
		EventClass:   eventClass,
		Payload:      string(body),
		URL:          w.URL,
		Method:       w.Method,
		Attempt:      attempt,
		StatusCode:   status,
		ResponseBody: respBody,
	}

	success := err == nil && status >= 200 && status < 300
	log.Success = success
	if err != nil {
		log.ErrorMessage = err.Error()
	} else if !success {
		log.ErrorMessage = fmt.Sprintf("unexpected status %d", status)
	}

	if !success && w.EnableRetries && attempt <= w.MaxRetries && d.outbox != nil {
		next := time.Now().Add(RetryDelay(w.RetryPolicy, attempt))
		log.NextRetryAt = &next
		if qErr := d.outbox.Enqueue(PendingDelivery{
			WebhookID:  w.ID,
			EventClass: eventClass,
			Payload:    body,
			Attempt:    attempt,
			NotBefore:  next,
		}); qErr != nil {
			d.logger.Error("failed to park webhook retry",
				zap.Int64("webhook", w.ID), zap.Error(qErr))
		}
	}

	if lErr := d.store.InsertDeliveryLog(ctx, log); lErr != nil {
		d.logger.Error("failed to record delivery log",
			zap.Int64("webhook", w.ID), zap.Error(lErr))
	}
	if sErr := d.store.UpdateWebhookStats(ctx, w.ID, success, time.Now()); sErr != nil {
		d.logger.Error("failed to update webhook stats",
			zap.Int64("webhook", w.ID), zap.Error(sErr))
	}

	if success {
		d.logger.Debug("webhook delivered",
			zap.Int64("webhook", w.ID),
			zap.String("event", eventClass),
			zap.Int("attempt", attempt))
	} else {
		d.logger.Warn("webhook delivery failed",
			zap.Int64("webhook", w.ID),
			zap.String("event", eventClass),
			zap.Int("attempt", attempt),
			zap.Int("status", status),
			zap.Error(err))
	}
}

// deliver performs the HTTP call and returns status and a bounded response
// body.
func (d *Dispatcher) deliver(ctx context.Context, w *models.Webhook, body []byte) (int, string, error) {
	method := w.Method
	if method == "" {
		method = http.MethodPost
	}

	ctx, cancel := context.WithTimeout(ctx, w.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, w.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}
	if w.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(w.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return resp.StatusCode, string(respBody), nil
}

// Retry re-attempts a parked delivery and removes it from the outbox. The
// webhook definition is re-read so edits and disables apply to retries.
func (d *Dispatcher) Retry(ctx context.Context, p PendingDelivery) error {
	if err := d.outbox.Delete(p.Key); err != nil {
		return fmt.Errorf("claim outbox entry: %w", err)
	}

	w, err := d.store.FindWebhook(ctx, p.WebhookID)
	if err != nil {
		return fmt.Errorf("load webhook %d: %w", p.WebhookID, err)
	}
	if w == nil || !w.Enabled {
		d.logger.Info("dropping retry for removed or disabled webhook",
			zap.Int64("webhook", p.WebhookID))
		return nil
	}

	d.attempt(ctx, w, p.EventClass, p.Payload, p.Attempt+1)
	return nil
}

// InterceptRequest runs the request through every enabled interception
// webhook for the event and returns the possibly-mutated request. A failed
// or non-2xx interception call is recorded and the request passes through
// unchanged; interception never blocks the caller's operation.
func (d *Dispatcher) InterceptRequest(ctx context.Context, eventClass string, request map[string]interface{}) (map[string]interface{}, error) {
	hooks, err := d.store.EnabledForEvent(ctx, eventClass)
	if err != nil {
		return request, fmt.Errorf("load webhooks for %s: %w", eventClass, err)
	}

	current := request
	for _, w := range hooks {
		if !w.InterceptRequests {
			continue
		}
		if len(w.Filters) > 0 && !MatchFilters(w.Filters, current) {
			continue
		}

		body, err := json.Marshal(current)
		if err != nil {
			return current, fmt.Errorf("marshal request: %w", err)
		}

		status, respBody, dErr := d.deliver(ctx, w, body)
		success := dErr == nil && status >= 200 && status < 300

		log := &models.DeliveryLog{
			WebhookID:    w.ID,
			EventClass:   eventClass,
			Payload:      string(body),
			URL:          w.URL,
			Method:       w.Method,
			Attempt:      1,
			Success:      success,
			StatusCode:   status,
			ResponseBody: respBody,
		}
		if dErr != nil {
			log.ErrorMessage = dErr.Error()
		}
		if lErr := d.store.InsertDeliveryLog(ctx, log); lErr != nil {
			d.logger.Error("failed to record interception log",
				zap.Int64("webhook", w.ID), zap.Error(lErr))
		}
		_ = d.store.UpdateWebhookStats(ctx, w.ID, success, time.Now())

		if !success {
			d.logger.Warn("interception webhook failed, request unchanged",
				zap.Int64("webhook", w.ID),
				zap.Int("status", status),
				zap.Error(dErr))
			continue
		}

		if w.ProcessResponse {
			current = d.applyResponse(w, current, respBody)
		}
	}
	return current, nil
}

// applyResponse merges a webhook response into the request per the
// webhook's merge strategy.
func (d *Dispatcher) applyResponse(w *models.Webhook, request map[string]interface{}, respBody string) map[string]interface{} {
	var response map[string]interface{}
	if err := json.Unmarshal([]byte(respBody), &response); err != nil {
		d.logger.Warn("interception response is not a JSON object, ignoring",
			zap.Int64("webhook", w.ID))
		return request
	}

	strategy := models.MergeReplace
	var mapping map[string]string
	if w.ResponseProcessing != nil {
		strategy = w.ResponseProcessing.Strategy
		mapping = w.ResponseProcessing.FieldMapping
	}

	switch strategy {
	case models.MergeReplace:
		return response
	case models.MergeShallow:
		merged := make(map[string]interface{}, len(request)+len(response))
		for k, v := range request {
			merged[k] = v
		}
		for k, v := range response {
			merged[k] = v
		}
		return merged
	case models.MergeCustom:
		merged := make(map[string]interface{}, len(request))
		for k, v := range request {
			merged[k] = v
		}
		for respPath, reqPath := range mapping {
			if v, ok := lookupPath(response, respPath); ok {
				setPath(merged, reqPath, v)
			}
		}
		return merged
	default:
		d.logger.Warn("unknown merge strategy, keeping original request",
			zap.Int64("webhook", w.ID),
			zap.String("strategy", string(strategy)))
		return request
	}
}

// setPath writes a value at a dot-notation path, creating intermediate maps
// as needed.
func setPath(m map[string]interface{}, path string, v interface{}) {
	parts := strings.Split(path, ".")
	cur := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}
