package webhook

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// workerBatchSize caps how many due retries one poll claims.
const workerBatchSize = 100

// Worker drains the retry outbox on an interval.
type Worker struct {
	dispatcher *Dispatcher
	outbox     *Outbox
	interval   time.Duration
	logger     *zap.Logger
}

// NewWorker creates a Worker polling at the given interval (default 30s).
func NewWorker(d *Dispatcher, outbox *Outbox, interval time.Duration, logger *zap.Logger) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{dispatcher: d, outbox: outbox, interval: interval, logger: logger}
}

// Run polls for due retries until the context is canceled. One pass runs
// immediately on start.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error("retry pass failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce processes all currently due retries.
func (w *Worker) RunOnce(ctx context.Context) error {
	due, err := w.outbox.Due(time.Now(), workerBatchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	w.logger.Info("processing due webhook retries", zap.Int("count", len(due)))
	for _, p := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.dispatcher.Retry(ctx, p); err != nil {
			w.logger.Error("retry failed",
				zap.Int64("webhook", p.WebhookID), zap.Error(err))
		}
	}
	return nil
}
