package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

// maxSummaryLen is the hard cap on stored summaries. The notification
// body uses its own, shorter cap.
const maxSummaryLen = 2000

type Parser struct {
	gofeedParser *gofeed.Parser
	sanitizer    *Sanitizer
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		sanitizer:    NewSanitizer(),
	}
}

// Run parses a syndication feed body into normalized entries. A GUID may
// still be empty after normalization; the caller supplies a synthetic
// fallback since it knows the owning feed.
func (p *Parser) Run(data []byte) ([]Entry, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, p.normalizeEntry(item))
	}

	return entries, nil
}

func (p *Parser) normalizeEntry(item *gofeed.Item) Entry {
	entry := Entry{
		GUID:  cmp.Or(item.GUID, item.Link),
		Title: cmp.Or(strings.TrimSpace(item.Title), "Untitled"),
		Link:  item.Link,
	}

	summary := cmp.Or(item.Description, item.Content)
	entry.Summary = Truncate(p.sanitizer.Run(summary), maxSummaryLen)
	entry.PublishedAt = p.resolvePublishedAt(item)

	return entry
}

// resolvePublishedAt tries structured date fields first, then free-text
// parsing, and falls back to the current time. An entry is never dropped
// for a missing or unparseable date.
func (p *Parser) resolvePublishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}

	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if ts, err := dateparse.ParseAny(raw); err == nil {
			return ts.UTC()
		}
	}

	return time.Now().UTC()
}
