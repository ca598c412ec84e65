// Package fetcher ingests configured feeds under bounded concurrency.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/apth/kairos/app/database"
	"github.com/apth/kairos/app/feed"
	"github.com/apth/kairos/app/urlcheck"
)

// maxBodySize bounds how much of a feed response is read.
const maxBodySize = 10 << 20 // 10 MB

// URLValidator gates every outbound fetch destination.
type URLValidator interface {
	Validate(ctx context.Context, rawURL, purpose string) (string, error)
}

type Options struct {
	UserAgent       string
	Workers         int
	MaxItemsPerFeed int
	Timeout         time.Duration
}

type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	ItemsAdded int
}

type Engine struct {
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
	parser     *feed.Parser
	validator  URLValidator
	httpClient *http.Client
	metrics    *Metrics
	opts       Options
}

func NewEngine(feedRepo database.FeedRepository, itemRepo database.ItemRepository,
	parser *feed.Parser, validator URLValidator, metrics *Metrics, opts Options) *Engine {

	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Engine{
		feedRepo:  feedRepo,
		itemRepo:  itemRepo,
		parser:    parser,
		validator: validator,
		metrics:   metrics,
		opts:      opts,
		// A redirect target is never implicitly trusted: following one
		// would bypass the URL validation already performed.
		httpClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// FetchAll fetches every active feed. Per-feed tasks run under a counting
// semaphore sized by the worker count; one feed's failure never aborts
// the others.
func (e *Engine) FetchAll(ctx context.Context) (Summary, error) {
	feeds, err := e.feedRepo.GetActiveFeeds()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load active feeds: %w", err)
	}

	summary := Summary{Total: len(feeds)}
	if len(feeds) == 0 {
		slog.Warn("No active feeds to fetch")
		return summary, nil
	}

	type result struct {
		added int
		err   error
	}

	sem := make(chan struct{}, e.opts.Workers)
	results := make(chan result, len(feeds))
	var wg sync.WaitGroup

	for _, f := range feeds {
		wg.Add(1)
		go func(f database.Feed) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			added, err := e.fetchFeed(ctx, f)
			results <- result{added: added, err: err}
		}(f)
	}

	wg.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		summary.ItemsAdded += r.added
	}

	slog.Info("Feed fetch cycle complete",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"items_added", summary.ItemsAdded)

	return summary, nil
}

func (e *Engine) fetchFeed(ctx context.Context, f database.Feed) (int, error) {
	start := time.Now()

	validated, err := e.validator.Validate(ctx, f.URL, urlcheck.PurposeFeed)
	if err != nil {
		return 0, e.recordFailure(f, fmt.Errorf("url validation failed: %w", err))
	}

	data, err := e.download(ctx, validated)
	if err != nil {
		return 0, e.recordFailure(f, err)
	}

	entries, err := e.parser.Run(data)
	if err != nil {
		return 0, e.recordFailure(f, err)
	}

	added := 0
	for i, entry := range entries {
		if i >= e.opts.MaxItemsPerFeed {
			break
		}

		guid := entry.GUID
		if guid == "" {
			guid = fmt.Sprintf("%d_%d", f.ID, i+1)
		}

		_, inserted, err := e.itemRepo.InsertItem(f.ID, guid, entry.Title, entry.Link, entry.Summary, entry.PublishedAt)
		if err != nil {
			slog.Error("Failed to store item", "feed", f.Name, "guid", guid, "error", err)
			continue
		}
		if inserted {
			added++
		}
	}

	// The attempt reached parsing: record the fetch and clear any
	// previous error, regardless of per-entry outcomes.
	if err := e.feedRepo.UpdateFeedStatus(f.ID, time.Now().UTC(), ""); err != nil {
		slog.Error("Failed to update feed status", "feed", f.Name, "error", err)
	}

	e.metrics.FetchesTotal.WithLabelValues("success").Inc()
	e.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	e.metrics.ItemsIngestedTotal.Add(float64(added))

	slog.Info("Feed fetched", "feed", f.Name, "entries", len(entries), "new", added)

	return added, nil
}

// recordFailure attaches the error to the owning feed and isolates it
// from sibling fetch tasks.
func (e *Engine) recordFailure(f database.Feed, fetchErr error) error {
	slog.Error("Feed fetch failed", "feed", f.Name, "url", f.URL, "error", fetchErr)

	if err := e.feedRepo.UpdateFeedStatus(f.ID, time.Now().UTC(), fetchErr.Error()); err != nil {
		slog.Error("Failed to record feed error", "feed", f.Name, "error", err)
	}

	e.metrics.FetchesTotal.WithLabelValues("failure").Inc()

	return fetchErr
}

func (e *Engine) download(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.opts.UserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
