package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ItemRepository = (*ItemRepo)(nil)

// ItemRepo handles database operations for ingested items
type ItemRepo struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// InsertItem stores a new item. A duplicate guid is a no-op, reported via
// the returned bool, never an error.
func (r *ItemRepo) InsertItem(feedID int64, guid, title, url, summary string, publishedAt time.Time) (int64, bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO items (feed_id, guid, title, url, summary, published_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (guid) DO NOTHING
	`, feedID, guid, title, url, summary, publishedAt)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get item id: %w", err)
	}

	return id, true, nil
}

func (r *ItemRepo) GetItem(id int64) (*Item, error) {
	return r.scanItem(r.db.QueryRow(`
		SELECT i.id, i.feed_id, i.guid, i.title, i.url, i.summary,
		       i.published_at, i.fetched_at, i.status, i.triaged_at, i.triaged_by,
		       f.name
		FROM items i
		JOIN feeds f ON i.feed_id = f.id
		WHERE i.id = ?
	`, id))
}

// GetNextPending returns the next pending item for review, most urgent
// feed first, newest publication first.
func (r *ItemRepo) GetNextPending() (*Item, error) {
	return r.scanItem(r.db.QueryRow(`
		SELECT i.id, i.feed_id, i.guid, i.title, i.url, i.summary,
		       i.published_at, i.fetched_at, i.status, i.triaged_at, i.triaged_by,
		       f.name
		FROM items i
		JOIN feeds f ON i.feed_id = f.id
		WHERE i.status = 'pending'
		ORDER BY f.priority ASC, i.published_at DESC
		LIMIT 1
	`))
}

func (r *ItemRepo) scanItem(row *sql.Row) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID, &item.FeedID, &item.GUID, &item.Title, &item.URL, &item.Summary,
		&item.PublishedAt, &item.FetchedAt, &item.Status, &item.TriagedAt, &item.TriagedBy,
		&item.FeedName,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	return &item, nil
}

// TriageFromPending moves an item out of pending. The WHERE clause makes
// the transition a compare-and-swap: a false return means the item was
// not pending (or does not exist).
func (r *ItemRepo) TriageFromPending(id int64, status, actor string) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE items
		SET status = ?, triaged_at = ?, triaged_by = ?
		WHERE id = ? AND status = 'pending'
	`, status, time.Now().UTC(), actor, id)
	if err != nil {
		return false, fmt.Errorf("failed to triage item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// RevertToPending undoes a triage decision. Only alerted, digested and
// skipped items can return to pending; archived is terminal.
func (r *ItemRepo) RevertToPending(id int64) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE items
		SET status = 'pending', triaged_at = NULL, triaged_by = ''
		WHERE id = ? AND status IN ('alerted', 'digested', 'skipped')
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to revert item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// SkipAllPending marks every pending item skipped in one statement and
// returns the number of items affected.
func (r *ItemRepo) SkipAllPending(actor string) (int, error) {
	result, err := r.db.Exec(`
		UPDATE items
		SET status = 'skipped', triaged_at = ?, triaged_by = ?
		WHERE status = 'pending'
	`, time.Now().UTC(), actor)
	if err != nil {
		return 0, fmt.Errorf("failed to skip pending items: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(affected), nil
}

// ArchiveDigested moves all digested items to the terminal archived state.
func (r *ItemRepo) ArchiveDigested() (int, error) {
	result, err := r.db.Exec(`
		UPDATE items
		SET status = 'archived'
		WHERE status = 'digested'
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to archive digested items: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(affected), nil
}

func (r *ItemRepo) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*)
		FROM items
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count items by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}
