package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ WebhookRepository = (*WebhookRepo)(nil)

// WebhookRepo handles database operations for the webhook delivery queue
type WebhookRepo struct {
	db *DB
}

func NewWebhookRepository(db *DB) *WebhookRepo {
	return &WebhookRepo{db: db}
}

func (r *WebhookRepo) EnqueueJob(itemID int64, payload []byte) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO webhook_queue (item_id, payload)
		VALUES (?, ?)
	`, itemID, string(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue webhook job: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get job id: %w", err)
	}

	return id, nil
}

func (r *WebhookRepo) GetJob(id int64) (*WebhookJob, error) {
	var job WebhookJob
	var payload string
	err := r.db.QueryRow(`
		SELECT id, item_id, payload, attempts, last_attempt, status, error_message, created_at
		FROM webhook_queue
		WHERE id = ?
	`, id).Scan(
		&job.ID, &job.ItemID, &payload, &job.Attempts, &job.LastAttempt,
		&job.Status, &job.LastError, &job.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook job: %w", err)
	}

	job.Payload = []byte(payload)
	return &job, nil
}

// GetPendingJobs returns deliverable jobs oldest first, so no job is
// starved by newer arrivals.
func (r *WebhookRepo) GetPendingJobs(limit, maxAttempts int) ([]WebhookJob, error) {
	rows, err := r.db.Query(`
		SELECT id, item_id, payload, attempts, last_attempt, status, error_message, created_at
		FROM webhook_queue
		WHERE status = 'pending' AND attempts < ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending webhook jobs: %w", err)
	}
	defer rows.Close()

	var jobs []WebhookJob
	for rows.Next() {
		var job WebhookJob
		var payload string
		err := rows.Scan(
			&job.ID, &job.ItemID, &payload, &job.Attempts, &job.LastAttempt,
			&job.Status, &job.LastError, &job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook job row: %w", err)
		}
		job.Payload = []byte(payload)
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook job rows: %w", err)
	}

	return jobs, nil
}

// UpdateJobStatus records a delivery attempt: the attempt counter is
// incremented alongside the status change.
func (r *WebhookRepo) UpdateJobStatus(id int64, status, errMsg string) error {
	_, err := r.db.Exec(`
		UPDATE webhook_queue
		SET status = ?, attempts = attempts + 1, last_attempt = ?, error_message = ?
		WHERE id = ?
	`, status, time.Now().UTC(), errMsg, id)

	if err != nil {
		return fmt.Errorf("failed to update webhook job status: %w", err)
	}

	return nil
}
