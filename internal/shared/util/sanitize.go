package util

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

const maxSanitizePasses = 4

// CleanText keeps free text verbatim apart from trimming, CRLF folding and
// dropping control characters. Angle brackets and entities are left alone.
func CleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// PlainText reduces a short label (industry, skill) to plain text.
// Sanitizing repeats until decoding entities no longer exposes new markup, so
// "&lt;script&gt;" cannot come back out as a tag. Labels that never settle are
// returned in their escaped form.
func PlainText(s string) string {
	out := CleanText(s)
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(out)))
		if next == out {
			return out
		}
		out = next
	}
	return strings.TrimSpace(strictPolicy.Sanitize(out))
}

// TooLong reports whether s exceeds max runes.
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
