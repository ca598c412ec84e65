package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FeedRepository = (*FeedRepo)(nil)

// FeedRepo handles database operations for feeds
type FeedRepo struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// AddFeed inserts a new feed. The feed URL is unique; inserting a known
// URL returns an error.
func (r *FeedRepo) AddFeed(url, name string, priority int, category string) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO feeds (url, name, priority, category)
		VALUES (?, ?, ?, ?)
	`, url, name, priority, category)
	if err != nil {
		return 0, fmt.Errorf("failed to add feed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get feed id: %w", err)
	}

	return id, nil
}

func (r *FeedRepo) GetFeed(id int64) (*Feed, error) {
	var feed Feed
	var active int
	err := r.db.QueryRow(`
		SELECT id, url, name, active, priority, category, last_fetched, last_error, created_at
		FROM feeds
		WHERE id = ?
	`, id).Scan(
		&feed.ID, &feed.URL, &feed.Name, &active, &feed.Priority, &feed.Category,
		&feed.LastFetched, &feed.LastError, &feed.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	feed.Active = active != 0
	return &feed, nil
}

// GetActiveFeeds returns all active feeds ordered by priority (most
// urgent first), then name.
func (r *FeedRepo) GetActiveFeeds() ([]Feed, error) {
	return r.queryFeeds(`
		SELECT id, url, name, active, priority, category, last_fetched, last_error, created_at
		FROM feeds
		WHERE active = 1
		ORDER BY priority ASC, name ASC
	`)
}

func (r *FeedRepo) GetAllFeeds() ([]Feed, error) {
	return r.queryFeeds(`
		SELECT id, url, name, active, priority, category, last_fetched, last_error, created_at
		FROM feeds
		ORDER BY priority ASC, name ASC
	`)
}

func (r *FeedRepo) queryFeeds(query string) ([]Feed, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var feed Feed
		var active int
		err := rows.Scan(
			&feed.ID, &feed.URL, &feed.Name, &active, &feed.Priority, &feed.Category,
			&feed.LastFetched, &feed.LastError, &feed.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feed.Active = active != 0
		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// UpdateFeedStatus records the outcome of a fetch attempt. An empty
// fetchErr clears the feed's last error.
func (r *FeedRepo) UpdateFeedStatus(id int64, fetchedAt time.Time, fetchErr string) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_fetched = ?, last_error = ?
		WHERE id = ?
	`, fetchedAt, fetchErr, id)

	if err != nil {
		return fmt.Errorf("failed to update feed status: %w", err)
	}

	return nil
}

// UpdateFeed applies a partial update. Each optional field maps to a
// fixed COALESCE column in one static statement.
func (r *FeedRepo) UpdateFeed(id int64, update FeedUpdate) (bool, error) {
	var active *int
	if update.Active != nil {
		v := 0
		if *update.Active {
			v = 1
		}
		active = &v
	}

	result, err := r.db.Exec(`
		UPDATE feeds
		SET name = COALESCE(?, name),
		    priority = COALESCE(?, priority),
		    category = COALESCE(?, category),
		    active = COALESCE(?, active)
		WHERE id = ?
	`, update.Name, update.Priority, update.Category, active, id)
	if err != nil {
		return false, fmt.Errorf("failed to update feed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteFeed removes a feed; items cascade via the foreign key.
func (r *FeedRepo) DeleteFeed(id int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete feed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *FeedRepo) GetActiveFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds WHERE active = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get active feed count: %w", err)
	}
	return count, nil
}
