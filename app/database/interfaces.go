package database

import (
	"time"
)

// FeedUpdate carries optional fields for a partial feed update. A nil
// field is left untouched; the repository translates each field
// explicitly, never by assembling SQL from provided keys.
type FeedUpdate struct {
	Name     *string
	Priority *int
	Category *string
	Active   *bool
}

type FeedRepository interface {
	AddFeed(url, name string, priority int, category string) (int64, error)
	GetFeed(id int64) (*Feed, error)
	GetActiveFeeds() ([]Feed, error)
	GetAllFeeds() ([]Feed, error)
	UpdateFeedStatus(id int64, fetchedAt time.Time, fetchErr string) error
	UpdateFeed(id int64, update FeedUpdate) (bool, error)
	DeleteFeed(id int64) (bool, error)
	GetActiveFeedCount() (int, error)
}

type ItemRepository interface {
	InsertItem(feedID int64, guid, title, url, summary string, publishedAt time.Time) (int64, bool, error)
	GetItem(id int64) (*Item, error)
	GetNextPending() (*Item, error)
	TriageFromPending(id int64, status, actor string) (bool, error)
	RevertToPending(id int64) (bool, error)
	SkipAllPending(actor string) (int, error)
	ArchiveDigested() (int, error)
	CountByStatus() (map[string]int, error)
}

type WebhookRepository interface {
	EnqueueJob(itemID int64, payload []byte) (int64, error)
	GetJob(id int64) (*WebhookJob, error)
	GetPendingJobs(limit, maxAttempts int) ([]WebhookJob, error)
	UpdateJobStatus(id int64, status, errMsg string) error
}
