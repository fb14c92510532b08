package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/fetcher"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := metrics.New(nil)
	f := fetcher.New(fetcher.WithMetrics(m))
	opts := fetcher.Options{Timeout: time.Second, Retries: 1, Backoff: time.Millisecond}
	return NewClient(srv.URL, f, opts, m)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestGetPostsBuildsQuery(t *testing.T) {
	var got *http.Request
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJSON(w, Page[Post]{
			Data:  []Post{{ID: "1", Slug: "hello", Lang: English}},
			Total: 1, Page: 2, Limit: 5,
		})
	}))

	page := c.GetPosts(context.Background(), PostQuery{
		Lang: English, Page: 2, Limit: 5, CategorySlug: "news", TagSlug: "go", Search: "rust vs go",
	})
	require.NotNil(t, got)
	assert.Equal(t, "/api/public/blog/posts", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "en", q.Get("lang"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "news", q.Get("category"))
	assert.Equal(t, "go", q.Get("tag"))
	assert.Equal(t, "rust vs go", q.Get("q"))

	require.Len(t, page.Data, 1)
	assert.Equal(t, "hello", page.Data[0].Slug)
	assert.Equal(t, 1, page.Total)
}

func TestGetPostsOmitsEmptyFilters(t *testing.T) {
	var query string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		writeJSON(w, Page[Post]{Data: []Post{}})
	}))
	c.GetPosts(context.Background(), PostQuery{Lang: Turkish})
	assert.Equal(t, "lang=tr&limit=12&page=1", query)
}

func TestGetPostsDegradesToEmptyPage(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		},
		"client error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		},
	} {
		t.Run(name, func(t *testing.T) {
			page := testClient(t, h).GetPosts(context.Background(), PostQuery{Lang: German, Page: 4, Limit: 50})
			assert.Equal(t, Page[Post]{Data: []Post{}, Total: 0, Page: 1, Limit: 12}, page)
		})
	}
}

func TestGetPost(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/public/blog/posts/hello-world":
			assert.Equal(t, "de", r.URL.Query().Get("lang"))
			w.Write([]byte(`{"data":{"id":"7","slug":"hello-world","title":"Hallo","lang":"de",
				"publishedAt":"2024-03-01T10:00:00.000Z","updatedAt":"2024-03-02T10:00:00Z",
				"tags":[{"slug":"go","name":"Go"}],"categories":[],
				"blocks":{"cta":{"title":"Try","description":"d","buttonText":"Go","buttonUrl":"/x"}}}}`))
		case "/api/public/blog/posts/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := context.Background()

	post, ok := c.GetPost(ctx, "hello-world", German)
	require.True(t, ok)
	assert.Equal(t, "Hallo", post.Title)
	assert.Equal(t, German, post.Lang)
	assert.Equal(t, 2024, post.PublishedAt.Year())
	require.NotNil(t, post.Blocks)
	assert.Equal(t, "/x", post.Blocks.CTA.ButtonURL)
	assert.Equal(t, "go", post.Tags[0].Key())

	_, ok = c.GetPost(ctx, "missing", German)
	assert.False(t, ok)
	_, ok = c.GetPost(ctx, "broken", German)
	assert.False(t, ok)
	_, ok = c.GetPost(ctx, "", German)
	assert.False(t, ok)
}

func TestGetPostEscapesSlug(t *testing.T) {
	var rawPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		http.NotFound(w, r)
	}))
	c.GetPost(context.Background(), "a/b c", English)
	assert.Equal(t, "/api/public/blog/posts/a%2Fb%20c", rawPath)
}

func TestTaxonomies(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/public/blog/categories":
			writeJSON(w, Envelope[[]Category]{Data: []Category{{ID: "c1", Slug: "news", Name: "News"}}})
		case "/api/public/blog/tags":
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	ctx := context.Background()

	cats := c.GetCategories(ctx, English)
	require.Len(t, cats, 1)
	assert.Equal(t, "c1", cats[0].Key())

	tags := c.GetTags(ctx, English)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestGetAllPostsForSitemapPagesUntilShortPage(t *testing.T) {
	var mu sync.Mutex
	calls := map[string][]int{}
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		lang := q.Get("lang")
		page, _ := strconv.Atoi(q.Get("page"))
		assert.Equal(t, "100", q.Get("limit"))
		mu.Lock()
		calls[lang] = append(calls[lang], page)
		mu.Unlock()

		n := 0
		switch {
		case lang == "tr" && page <= 2:
			n = 100
		case lang == "tr" && page == 3:
			n = 5
		case lang == "en":
			n = 3
		}
		posts := make([]Post, n)
		for i := range posts {
			posts[i] = Post{Slug: fmt.Sprintf("%s-%d-%d", lang, page, i), Lang: Language(lang)}
		}
		writeJSON(w, Page[Post]{Data: posts})
	}))

	posts := c.GetAllPostsForSitemap(context.Background())
	assert.Len(t, posts, 208)
	assert.Equal(t, []int{1, 2, 3}, calls["tr"])
	assert.Equal(t, []int{1}, calls["en"])
	assert.Equal(t, []int{1}, calls["de"])
	assert.Equal(t, Turkish, posts[0].Lang)
	assert.Equal(t, English, posts[205].Lang)
}

func TestGetAllPostsForSitemapUnreachable(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	posts := c.GetAllPostsForSitemap(context.Background())
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestParseLanguage(t *testing.T) {
	lang, ok := ParseLanguage("EN")
	assert.True(t, ok)
	assert.Equal(t, English, lang)
	assert.Equal(t, "Deutsch", German.Name())

	_, ok = ParseLanguage("fr")
	assert.False(t, ok)
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://sarlab.pro/tr", LanguageURL("https://sarlab.pro/", Turkish, ""))
	assert.Equal(t, "https://sarlab.pro/en/blog", LanguageURL("https://sarlab.pro", English, "/blog"))
	assert.Equal(t, "https://sarlab.pro/de/blog/hello", PostURL("https://sarlab.pro", German, "hello"))
}
