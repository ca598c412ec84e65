// Package triage moves items through the review state machine and fans
// alerts out to the webhook queue.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/apth/kairos/app/database"
	"github.com/apth/kairos/app/webhook"
)

// Triage actions accepted from operators.
const (
	ActionAlert  = "alert"
	ActionDigest = "digest"
	ActionSkip   = "skip"
)

// Item statuses persisted in storage.
const (
	StatusPending  = "pending"
	StatusAlerted  = "alerted"
	StatusDigested = "digested"
	StatusSkipped  = "skipped"
	StatusArchived = "archived"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrUnknownAction     = errors.New("unknown triage action")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Enqueuer accepts alert notification jobs for asynchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, itemID int64, payload []byte) (int64, error)
}

var _ Enqueuer = (*webhook.Queue)(nil)

type Service struct {
	items database.ItemRepository
	queue Enqueuer
}

func NewService(items database.ItemRepository, queue Enqueuer) *Service {
	return &Service{items: items, queue: queue}
}

// Triage applies an action to a pending item. Only pending items may be
// triaged; the status check and the write are a single compare-and-swap
// so concurrent triage of the same item resolves to one winner. An
// alert enqueues exactly one notification job.
func (s *Service) Triage(ctx context.Context, itemID int64, action, actor string) (*database.Item, error) {
	var target string
	switch action {
	case ActionAlert:
		target = StatusAlerted
	case ActionDigest:
		target = StatusDigested
	case ActionSkip:
		target = StatusSkipped
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	item, err := s.items.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	updated, err := s.items.TriageFromPending(itemID, target, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to triage item: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("%w: item %d is not pending", ErrIllegalTransition, itemID)
	}

	slog.Info("Item triaged", "item_id", itemID, "action", action, "actor", actor)

	if action == ActionAlert {
		payload, err := webhook.BuildPayload(item.Title, item.URL, item.Summary, item.FeedName, actor)
		if err != nil {
			return nil, fmt.Errorf("failed to build alert payload: %w", err)
		}
		if _, err := s.queue.Enqueue(ctx, itemID, payload); err != nil {
			return nil, fmt.Errorf("failed to enqueue alert: %w", err)
		}
	}

	item, err = s.items.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload item: %w", err)
	}

	return item, nil
}

// Undo returns a triaged item to pending. Pending items cannot be
// undone, and archived is terminal.
func (s *Service) Undo(ctx context.Context, itemID int64) (*database.Item, error) {
	item, err := s.items.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	updated, err := s.items.RevertToPending(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to undo triage: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("%w: item %d cannot return to pending from %q",
			ErrIllegalTransition, itemID, item.Status)
	}

	slog.Info("Triage undone", "item_id", itemID, "previous_status", item.Status)

	item, err = s.items.GetItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload item: %w", err)
	}

	return item, nil
}

// Next returns the highest-priority pending item, nil when the queue is
// empty.
func (s *Service) Next(ctx context.Context) (*database.Item, error) {
	item, err := s.items.GetNextPending()
	if err != nil {
		return nil, fmt.Errorf("failed to load next pending item: %w", err)
	}
	return item, nil
}

// SkipAllPending bulk-skips every pending item in one statement.
func (s *Service) SkipAllPending(ctx context.Context, actor string) (int, error) {
	count, err := s.items.SkipAllPending(actor)
	if err != nil {
		return 0, fmt.Errorf("failed to skip pending items: %w", err)
	}

	slog.Info("Skipped all pending items", "count", count, "actor", actor)
	return count, nil
}

// ArchiveDigested moves every digested item to the terminal archived
// status.
func (s *Service) ArchiveDigested(ctx context.Context) (int, error) {
	count, err := s.items.ArchiveDigested()
	if err != nil {
		return 0, fmt.Errorf("failed to archive digested items: %w", err)
	}

	slog.Info("Archived digested items", "count", count)
	return count, nil
}

// Stats returns item counts keyed by status.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	counts, err := s.items.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	return counts, nil
}
