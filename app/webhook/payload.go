package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/apth/kairos/app/feed"
)

// Notification payloads follow the Discord embed format.
const (
	embedColor  = 15158332 // red
	footerText  = "Kairos Threat Intelligence"
	maxEmbedLen = 500
)

type payload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string  `json:"title"`
	URL         string  `json:"url,omitempty"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []field `json:"fields"`
	Footer      footer  `json:"footer"`
	Timestamp   string  `json:"timestamp"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type footer struct {
	Text string `json:"text"`
}

// BuildPayload renders an alert notification for the given item. The
// summary is capped at 500 characters here; stored summaries carry their
// own larger cap.
func BuildPayload(title, link, summary, source, actor string) ([]byte, error) {
	p := payload{
		Embeds: []embed{{
			Title:       title,
			URL:         link,
			Description: feed.Truncate(summary, maxEmbedLen),
			Color:       embedColor,
			Fields: []field{
				{Name: "Source", Value: source, Inline: true},
				{Name: "Triaged By", Value: actor, Inline: true},
			},
			Footer:    footer{Text: footerText},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	return data, nil
}
