package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/markdown"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Section One", "section-one"},
		{"  Hello, World!  ", "hello-world"},
		{"snake_case and-dash", "snake-case-and-dash"},
		{"--Leading and trailing--", "leading-and-trailing"},
		{"Multiple   spaces\there", "multiple-spaces-here"},
		{"Go 1.25 released", "go-125-released"},
		{"Çağdaş Yazılım", "ada-yazlm"},
		{"", ""},
	}
	for _, tt := range tests {
		got := Slugify(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, got, Slugify(got), "slugify must be idempotent for %q", tt.in)
	}
}

func TestSlugifyDropsNonASCIILetters(t *testing.T) {
	assert.Equal(t, "a-b", Slugify("ü a ü b ü"))
}

func TestAddHeadingIDs(t *testing.T) {
	in := `<h1>Top</h1><h2>First Part</h2><p>x</p><h3 id="custom">Sub <em>Part</em></h3><h3>Sub <code>Two</code></h3><h4>Deep</h4>`
	out := AddHeadingIDs(in)

	assert.Contains(t, out, `<h2 id="first-part">First Part</h2>`)
	assert.Contains(t, out, `<h3 id="custom">Sub <em>Part</em></h3>`)
	assert.Contains(t, out, `<h3 id="sub-two">Sub <code>Two</code></h3>`)
	assert.Contains(t, out, `<h1>Top</h1>`)
	assert.Contains(t, out, `<h4>Deep</h4>`)
}

func TestHeadingsWithoutSlugTextGetPositionalIDs(t *testing.T) {
	in := `<h2>!!!</h2><h3>B</h3><h2>Türkçe</h2><h3>   </h3>`
	out := AddHeadingIDs(in)

	assert.NotContains(t, out, `id=""`)
	assert.Contains(t, out, `<h2 id="section-1">!!!</h2>`)
	assert.Contains(t, out, `<h3 id="section-4">   </h3>`)

	toc := ExtractTableOfContents(out)
	require.Len(t, toc, 4)
	assert.Equal(t, TOCEntry{ID: "section-1", Text: "!!!", Level: 2}, toc[0])
	assert.Equal(t, TOCEntry{ID: "b", Text: "B", Level: 3}, toc[1])
	assert.Equal(t, "trke", toc[2].ID)

	processed, processedTOC := Process(in)
	assert.Equal(t, out, processed)
	assert.Equal(t, toc, processedTOC)
}

func TestExtractTableOfContentsSkipsHeadingsWithoutID(t *testing.T) {
	toc := ExtractTableOfContents(`<h2>No id</h2><h2 id="a">Alpha</h2><h3 id="b">Be<strong>ta</strong></h3><h2 id="">Empty</h2>`)
	assert.Equal(t, []TOCEntry{
		{ID: "a", Text: "Alpha", Level: 2},
		{ID: "b", Text: "Beta", Level: 3},
	}, toc)
}

func TestExtractBeforeAddingIDsIsEmpty(t *testing.T) {
	html := `<h2>One</h2><h3>Two</h3>`
	assert.Empty(t, ExtractTableOfContents(html))
	assert.Len(t, ExtractTableOfContents(AddHeadingIDs(html)), 2)
}

func TestProcessMatchesSequentialCalls(t *testing.T) {
	html := `<h2>One</h2><p>text</p><h3 id="keep">Two</h3>`
	out, toc := Process(html)
	sequential := AddHeadingIDs(html)
	assert.Equal(t, sequential, out)
	assert.Equal(t, ExtractTableOfContents(sequential), toc)
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 1, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("<p>just a few words</p>"))
	assert.Equal(t, 1, ReadingTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 201)))
	assert.Equal(t, 3, ReadingTime("<div>"+strings.Repeat("<span>word</span> ", 450)+"</div>"))
}

func TestReadingTimeMonotonic(t *testing.T) {
	prev := 0
	for n := 0; n <= 2000; n += 37 {
		got := ReadingTime(strings.Repeat("lorem ", n))
		assert.GreaterOrEqual(t, got, 1)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestMarkdownToTableOfContents(t *testing.T) {
	rendered, err := markdown.New(nil).Render("# Title\n\n## Section One\n\nSome *text*.\n\n<script>alert(1)</script>")
	require.NoError(t, err)

	html, toc := Process(rendered)
	assert.Contains(t, html, `<h2 id="section-one">Section One</h2>`)
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "alert(1)")
	assert.Equal(t, []TOCEntry{{ID: "section-one", Text: "Section One", Level: 2}}, toc)
}

func BenchmarkProcess(b *testing.B) {
	html := strings.Repeat("<h2>Heading</h2><p>Paragraph with <em>markup</em>.</p><h3>Sub</h3>", 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Process(html)
	}
}
