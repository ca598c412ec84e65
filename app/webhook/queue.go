// Package webhook delivers alert notifications with at-least-once
// semantics backed by a persistent job queue.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/apth/kairos/app/database"
	"github.com/apth/kairos/app/urlcheck"
)

// Job statuses persisted in the queue table.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// URLValidator gates the delivery endpoint at send time.
type URLValidator interface {
	Validate(ctx context.Context, rawURL, purpose string) (string, error)
}

type Options struct {
	Endpoint     string
	Timeout      time.Duration
	MaxAttempts  int
	BatchSize    int
	IdleInterval time.Duration
}

type Summary struct {
	Processed    int
	Successful   int
	Failed       int
	RetryPending int
}

type Queue struct {
	jobs      database.WebhookRepository
	validator URLValidator
	client    *http.Client
	metrics   *Metrics
	opts      Options
}

func NewQueue(jobs database.WebhookRepository, validator URLValidator,
	metrics *Metrics, opts Options) *Queue {

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 20
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Queue{
		jobs:      jobs,
		validator: validator,
		client:    &http.Client{},
		metrics:   metrics,
		opts:      opts,
	}
}

// Enqueue persists a delivery job. Delivery happens asynchronously in
// the next drain cycle.
func (q *Queue) Enqueue(ctx context.Context, itemID int64, payload []byte) (int64, error) {
	jobID, err := q.jobs.EnqueueJob(itemID, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue webhook job: %w", err)
	}

	q.metrics.EnqueuedTotal.Inc()
	slog.Debug("Webhook job enqueued", "job_id", jobID, "item_id", itemID)

	return jobID, nil
}

// Drain processes one batch of eligible jobs sequentially. A job is
// eligible while pending with fewer attempts than the cap; delivery is
// at-least-once, so a send that succeeds after the status write fails
// may repeat.
func (q *Queue) Drain(ctx context.Context) (Summary, error) {
	batch, err := q.jobs.GetPendingJobs(q.opts.BatchSize, q.opts.MaxAttempts)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load pending jobs: %w", err)
	}

	summary := Summary{}

	for _, job := range batch {
		// No endpoint means nothing to deliver; skip immediately, never
		// sit out a retry backoff first.
		if q.opts.Endpoint == "" {
			summary.Processed++
			q.finishJob(job.ID, StatusSkipped, "no webhook endpoint configured")
			continue
		}

		if err := q.waitBackoff(ctx, job.Attempts); err != nil {
			return summary, err
		}

		summary.Processed++

		endpoint, err := q.validator.Validate(ctx, q.opts.Endpoint, urlcheck.PurposeWebhook)
		if err != nil {
			// A rejected endpoint will not become valid on retry.
			q.finishJob(job.ID, StatusFailed, err.Error())
			summary.Failed++
			continue
		}

		start := time.Now()
		sendErr := q.post(ctx, endpoint, job.Payload)
		q.metrics.DeliveryDuration.Observe(time.Since(start).Seconds())

		if sendErr == nil {
			q.finishJob(job.ID, StatusSent, "")
			summary.Successful++
			slog.Info("Webhook delivered", "job_id", job.ID, "item_id", job.ItemID)
			continue
		}

		slog.Warn("Webhook delivery failed", "job_id", job.ID,
			"attempt", job.Attempts+1, "error", sendErr)

		if job.Attempts+1 >= q.opts.MaxAttempts {
			q.finishJob(job.ID, StatusFailed, sendErr.Error())
			summary.Failed++
		} else {
			q.finishJob(job.ID, StatusPending, sendErr.Error())
			summary.RetryPending++
		}
	}

	return summary, nil
}

// Run drains the queue until the context is cancelled, sleeping a fixed
// idle interval between cycles. A single cycle's failure, including a
// panic, never stops the loop.
func (q *Queue) Run(ctx context.Context) {
	slog.Info("Webhook delivery loop started", "idle", q.opts.IdleInterval)

	ticker := time.NewTicker(q.opts.IdleInterval)
	defer ticker.Stop()

	for {
		q.drainCycle(ctx)

		select {
		case <-ctx.Done():
			slog.Info("Webhook delivery loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (q *Queue) drainCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			q.metrics.DrainErrorsTotal.Inc()
			slog.Error("Webhook drain cycle panicked", "panic", r)
		}
	}()

	summary, err := q.Drain(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		q.metrics.DrainErrorsTotal.Inc()
		slog.Error("Webhook drain cycle failed", "error", err)
		return
	}

	if summary.Processed > 0 {
		slog.Info("Webhook drain cycle complete",
			"processed", summary.Processed,
			"successful", summary.Successful,
			"failed", summary.Failed,
			"retry_pending", summary.RetryPending)
	}
}

// waitBackoff sleeps 2^(attempts-1) seconds before a retry. First
// attempts are not delayed.
func (q *Queue) waitBackoff(ctx context.Context, attempts int) error {
	delay := backoffDelay(attempts)
	if delay == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func backoffDelay(attempts int) time.Duration {
	if attempts < 1 {
		return 0
	}
	return time.Duration(1<<(attempts-1)) * time.Second
}

// finishJob records a delivery outcome; every outcome counts as an
// attempt. Persistence errors are logged, not propagated, so one job
// cannot wedge the batch.
func (q *Queue) finishJob(id int64, status, errMsg string) {
	if err := q.jobs.UpdateJobStatus(id, status, errMsg); err != nil {
		slog.Error("Failed to update webhook job", "job_id", id, "error", err)
		return
	}
	q.metrics.DeliveriesTotal.WithLabelValues(status).Inc()
}

func (q *Queue) post(ctx context.Context, url string, payload []byte) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, q.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(snippet))
	}

	return nil
}
