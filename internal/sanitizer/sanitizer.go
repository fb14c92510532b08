// Package sanitizer cleans untrusted HTML down to the fixed allow-list the
// blog renders, and derives plain text from it.
package sanitizer

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var allowedElements = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"p", "br", "hr",
	"strong", "em", "b", "i", "u", "s", "mark", "code", "pre",
	"a", "img",
	"ul", "ol", "li",
	"blockquote", "cite",
	"table", "thead", "tbody", "tr", "th", "td",
	"div", "span",
	"figure", "figcaption",
}

var allowedAttrs = []string{
	"href", "title", "target", "rel",
	"src", "alt", "width", "height", "loading",
	"class", "id",
	"colspan", "rowspan",
}

var allowedSchemes = []string{
	"http", "https", "ftp", "ftps",
	"mailto", "tel", "callto", "sms", "cid", "xmpp",
}

// Sanitizer applies the blog's HTML policy. It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// New builds a Sanitizer with the blog allow-list. Disallowed elements are
// unwrapped so their text survives, except for script, style and iframe
// whose content is dropped.
func New() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedElements...)
	p.AllowAttrs(allowedAttrs...).Globally()
	p.AllowURLSchemes(allowedSchemes...)
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)

	return &Sanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize returns html reduced to the allow-list. Sanitize(Sanitize(x)) ==
// Sanitize(x).
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

// StripHTML sanitizes, removes every remaining tag, decodes entities and
// trims the result.
func (s *Sanitizer) StripHTML(raw string) string {
	text := s.strict.Sanitize(s.policy.Sanitize(raw))
	return strings.TrimSpace(html.UnescapeString(text))
}

var std = New()

// Sanitize applies the default policy.
func Sanitize(html string) string {
	return std.Sanitize(html)
}

// StripHTML extracts plain text using the default policy.
func StripHTML(html string) string {
	return std.StripHTML(html)
}

// TruncateText bounds text to max characters. Longer input keeps its first
// max characters, trimmed, followed by "...".
func TruncateText(text string, max int) string {
	if max < 0 {
		max = 0
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
