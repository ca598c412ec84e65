package database

import (
	"time"
)

type Feed struct {
	ID          int64
	URL         string
	Name        string
	Active      bool
	Priority    int // lower = more urgent
	Category    string
	LastFetched *time.Time
	LastError   string
	CreatedAt   time.Time
}

type Item struct {
	ID          int64
	FeedID      int64
	GUID        string
	Title       string
	URL         string
	Summary     string
	PublishedAt time.Time
	FetchedAt   time.Time
	Status      string
	TriagedAt   *time.Time
	TriagedBy   string

	FeedName string // joined from the owning feed, not a column
}

type WebhookJob struct {
	ID          int64
	ItemID      int64
	Payload     []byte
	Attempts    int
	LastAttempt *time.Time
	Status      string
	LastError   string
	CreatedAt   time.Time
}
