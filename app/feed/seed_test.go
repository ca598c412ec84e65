package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feeds.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeedFile(t, `feeds:
  - url: https://example.com/feed.xml
    name: Example
    priority: 1
    category: Social
  - url: https://other.example.com/rss
`)

	feeds, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d", len(feeds))
	}

	if feeds[0].Name != "Example" || feeds[0].Priority != 1 || feeds[0].Category != "Social" {
		t.Errorf("Unexpected first feed: %+v", feeds[0])
	}

	// Defaults applied to sparse entries
	if feeds[1].Priority != 5 {
		t.Errorf("Expected default priority 5, got %d", feeds[1].Priority)
	}
	if feeds[1].Category != "RSS" {
		t.Errorf("Expected default category 'RSS', got %s", feeds[1].Category)
	}
}

func TestLoadSeedFileMissing(t *testing.T) {
	feeds, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Expected missing file to be tolerated, got: %v", err)
	}
	if feeds != nil {
		t.Errorf("Expected nil feeds for missing file, got %v", feeds)
	}
}

func TestLoadSeedFileRejectsMissingURL(t *testing.T) {
	path := writeSeedFile(t, `feeds:
  - name: No URL
`)

	if _, err := LoadSeedFile(path); err == nil {
		t.Error("Expected error for seed entry without url")
	}
}

func TestLoadSeedFileRejectsBadYAML(t *testing.T) {
	path := writeSeedFile(t, "feeds: [unclosed")

	if _, err := LoadSeedFile(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
