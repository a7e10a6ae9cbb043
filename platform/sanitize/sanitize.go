// Package sanitize cleans user-provided text before storage. Client names
// and appointment notes are rendered back on the reception dashboard, so
// markup is stripped on the way in as well as escaped on the way out.
package sanitize

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var entityDecoder = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// StripHTML removes markup from a string. Entities are decoded and the
// result stripped again so an encoded tag cannot survive one pass.
func StripHTML(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = entityDecoder.Replace(out)
	out = tagPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Text cleans a free-text field such as a client name or a booking note.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr cleans an optional free-text field, keeping nil as nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}
