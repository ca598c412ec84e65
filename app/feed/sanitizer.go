package feed

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Sanitizer strips markup from entry summaries, preserving text content.
type Sanitizer struct{}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Run removes tags, drops script/style bodies, NFC-normalizes the text
// and collapses all whitespace runs to single spaces.
func (s *Sanitizer) Run(html string) string {
	if html == "" {
		return ""
	}

	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("script, style").Remove()
		text = doc.Text()
	}

	text = norm.NFC.String(text)

	return strings.Join(strings.Fields(text), " ")
}

// Truncate caps s at limit characters, replacing the tail with a marker.
// The cut counts runes, not bytes, so multi-byte text is never split
// into invalid UTF-8.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
