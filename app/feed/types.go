package feed

import (
	"time"
)

// Entry is a normalized feed entry ready for persistence. Summary is
// already sanitized and capped.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
}

// SeedFeed is one feed definition from the startup seed file.
type SeedFeed struct {
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Category string `yaml:"category"`
}
