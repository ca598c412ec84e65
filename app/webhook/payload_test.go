package webhook

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestBuildPayload(t *testing.T) {
	data, err := BuildPayload("Critical RCE", "https://example.com/adv", "A short summary.", "Advisories", "analyst")
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}

	var p struct {
		Embeds []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Color       int    `json:"color"`
			Fields      []struct {
				Name   string `json:"name"`
				Value  string `json:"value"`
				Inline bool   `json:"inline"`
			} `json:"fields"`
			Footer struct {
				Text string `json:"text"`
			} `json:"footer"`
			Timestamp string `json:"timestamp"`
		} `json:"embeds"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}

	if len(p.Embeds) != 1 {
		t.Fatalf("Expected 1 embed, got %d", len(p.Embeds))
	}
	e := p.Embeds[0]

	if e.Title != "Critical RCE" {
		t.Errorf("Expected title 'Critical RCE', got %q", e.Title)
	}
	if e.URL != "https://example.com/adv" {
		t.Errorf("Expected URL preserved, got %q", e.URL)
	}
	if e.Color != 15158332 {
		t.Errorf("Expected color 15158332, got %d", e.Color)
	}
	if e.Footer.Text != "Kairos Threat Intelligence" {
		t.Errorf("Unexpected footer: %q", e.Footer.Text)
	}
	if len(e.Fields) != 2 {
		t.Fatalf("Expected 2 fields, got %d", len(e.Fields))
	}
	if e.Fields[0].Name != "Source" || e.Fields[0].Value != "Advisories" || !e.Fields[0].Inline {
		t.Errorf("Unexpected Source field: %+v", e.Fields[0])
	}
	if e.Fields[1].Name != "Triaged By" || e.Fields[1].Value != "analyst" || !e.Fields[1].Inline {
		t.Errorf("Unexpected Triaged By field: %+v", e.Fields[1])
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		t.Errorf("Timestamp is not RFC3339: %q", e.Timestamp)
	}
}

func TestBuildPayloadTruncatesSummary(t *testing.T) {
	long := strings.Repeat("a", 600)

	data, err := BuildPayload("Title", "", long, "Source", "analyst")
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}

	var p struct {
		Embeds []struct {
			Description string `json:"description"`
		} `json:"embeds"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}

	desc := p.Embeds[0].Description
	if utf8.RuneCountInString(desc) != 500 {
		t.Errorf("Expected description capped at 500 characters, got %d", utf8.RuneCountInString(desc))
	}
	if !strings.HasSuffix(desc, "...") {
		t.Errorf("Expected truncation marker, got tail %q", desc[len(desc)-3:])
	}
}

func TestBuildPayloadMultiByteSummarySurvivesTruncation(t *testing.T) {
	long := strings.Repeat("a", 496) + strings.Repeat("é", 20)

	data, err := BuildPayload("Title", "", long, "Source", "analyst")
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}

	var p struct {
		Embeds []struct {
			Description string `json:"description"`
		} `json:"embeds"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}

	desc := p.Embeds[0].Description
	if !utf8.ValidString(desc) {
		t.Fatal("Expected valid UTF-8 in delivered description")
	}
	if strings.ContainsRune(desc, utf8.RuneError) {
		t.Errorf("Expected no replacement characters, got tail %q", desc[len(desc)-12:])
	}
	if utf8.RuneCountInString(desc) != 500 {
		t.Errorf("Expected 500 characters, got %d", utf8.RuneCountInString(desc))
	}
}
