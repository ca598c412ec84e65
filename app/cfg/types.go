package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Feed ingestion
	FeedsFile          string
	FeedRefreshMinutes int
	MaxItemsPerFeed    int
	FetchWorkers       int
	FetchTimeout       int // seconds

	// Webhook delivery
	WebhookURL         string
	WebhookTimeout     int // seconds
	WebhookMaxAttempts int

	// HTTP server
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Actor     string
	Debug     bool
	Version   string
}
