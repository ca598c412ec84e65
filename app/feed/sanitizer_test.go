package feed

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizerStripsMarkup(t *testing.T) {
	s := NewSanitizer()

	got := s.Run(`<p>Hello <b>world</b></p>`)
	if got != "Hello world" {
		t.Errorf("Expected 'Hello world', got %q", got)
	}
}

func TestSanitizerDropsScriptAndStyle(t *testing.T) {
	s := NewSanitizer()

	got := s.Run(`<p>Visible</p><script>alert("x")</script><style>p{color:red}</style>`)
	if got != "Visible" {
		t.Errorf("Expected script/style bodies removed, got %q", got)
	}
}

func TestSanitizerCollapsesWhitespace(t *testing.T) {
	s := NewSanitizer()

	got := s.Run("a\n\n  b\t\tc   d")
	if got != "a b c d" {
		t.Errorf("Expected collapsed whitespace, got %q", got)
	}
}

func TestSanitizerEmptyInput(t *testing.T) {
	s := NewSanitizer()

	if got := s.Run(""); got != "" {
		t.Errorf("Expected empty output for empty input, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Expected untouched string, got %q", got)
	}

	long := strings.Repeat("x", 20)
	got := Truncate(long, 10)
	if utf8.RuneCountInString(got) != 10 {
		t.Errorf("Expected 10 characters, got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected truncation marker, got %q", got)
	}
}

func TestTruncateMultiByteInput(t *testing.T) {
	// A rune straddling the cut must never be split into invalid UTF-8.
	long := strings.Repeat("a", 1996) + strings.Repeat("é", 10)

	got := Truncate(long, 2000)
	if !utf8.ValidString(got) {
		t.Fatalf("Expected valid UTF-8 after truncation, got tail %q", got[len(got)-8:])
	}
	if utf8.RuneCountInString(got) != 2000 {
		t.Errorf("Expected 2000 characters, got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "é...") {
		t.Errorf("Expected whole runes before the marker, got tail %q", got[len(got)-8:])
	}

	// All-multi-byte input, cut entirely inside multi-byte territory.
	cyrillic := strings.Repeat("ж", 600)
	got = Truncate(cyrillic, 500)
	if !utf8.ValidString(got) {
		t.Fatal("Expected valid UTF-8 after truncating multi-byte text")
	}
	if utf8.RuneCountInString(got) != 500 {
		t.Errorf("Expected 500 characters, got %d", utf8.RuneCountInString(got))
	}
}
