// Package document post-processes rendered article HTML: it anchors section
// headings, derives the table of contents and estimates reading time.
//
// AddHeadingIDs must run before ExtractTableOfContents, since only headings
// carrying an id are listed. Process runs both in that order.
package document

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/sanitizer"
)

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

const headingSelector = "h2, h3"

// TOCEntry is one navigable section heading.
type TOCEntry struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

var (
	nonSlugChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeps     = regexp.MustCompile(`[\s_-]+`)
)

// Slugify lowercases and trims text, drops everything but ASCII word
// characters, whitespace and hyphens, collapses separator runs into a single
// hyphen and trims hyphens from both ends.
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = slugSeps.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// AddHeadingIDs gives every h2 and h3 without an id attribute the slug of its
// text. A heading whose text slugs to nothing gets section-N instead, N being
// its 1-based position among h2 and h3. Headings that already have an id keep
// it. Input that cannot be parsed is returned unchanged.
func AddHeadingIDs(html string) string {
	doc, err := parse(html)
	if err != nil {
		return html
	}
	addIDs(doc)
	out, err := render(doc)
	if err != nil {
		return html
	}
	return out
}

// ExtractTableOfContents lists h2 and h3 headings that carry a non-empty id,
// in document order.
func ExtractTableOfContents(html string) []TOCEntry {
	doc, err := parse(html)
	if err != nil {
		return []TOCEntry{}
	}
	return extract(doc)
}

// Process anchors headings and extracts the table of contents from the
// result in a single parse.
func Process(html string) (string, []TOCEntry) {
	doc, err := parse(html)
	if err != nil {
		return html, []TOCEntry{}
	}
	addIDs(doc)
	out, err := render(doc)
	if err != nil {
		return html, []TOCEntry{}
	}
	return out, extract(doc)
}

// ReadingTime estimates minutes to read content at WordsPerMinute, never
// less than one.
func ReadingTime(content string) int {
	words := len(strings.Fields(sanitizer.StripHTML(content)))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func render(doc *goquery.Document) (string, error) {
	return doc.Find("body").Html()
}

func addIDs(doc *goquery.Document) {
	doc.Find(headingSelector).Each(func(i int, s *goquery.Selection) {
		if _, ok := s.Attr("id"); ok {
			return
		}
		id := Slugify(s.Text())
		if id == "" {
			id = "section-" + strconv.Itoa(i+1)
		}
		s.SetAttr("id", id)
	})
}

func extract(doc *goquery.Document) []TOCEntry {
	toc := make([]TOCEntry, 0)
	doc.Find(headingSelector).Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		if id == "" {
			return
		}
		level := 2
		if goquery.NodeName(s) == "h3" {
			level = 3
		}
		toc = append(toc, TOCEntry{
			ID:    id,
			Text:  strings.TrimSpace(s.Text()),
			Level: level,
		})
	})
	return toc
}
