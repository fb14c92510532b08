// Package content models blog posts, taxonomies and site settings and reads
// them from the public content API. Every read is total: upstream failures
// are logged, counted and turned into an empty result.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/fetcher"
	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
)

const (
	apiPrefix = "/api/public/blog"

	defaultPage  = 1
	defaultLimit = 12

	sitemapPageSize = 100
	// MaxSitemapPages stops enumeration of a language whose upstream keeps
	// returning full pages.
	MaxSitemapPages = 1000
)

// PostQuery selects a page of posts.
type PostQuery struct {
	Lang         Language
	Page         int
	Limit        int
	CategorySlug string
	TagSlug      string
	Search       string
}

func (q PostQuery) normalized() PostQuery {
	if q.Page <= 0 {
		q.Page = defaultPage
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	return q
}

func (q PostQuery) values() url.Values {
	v := url.Values{}
	v.Set("lang", string(q.Lang))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.CategorySlug != "" {
		v.Set("category", q.CategorySlug)
	}
	if q.TagSlug != "" {
		v.Set("tag", q.TagSlug)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	return v
}

// Client reads posts, taxonomies and settings from the content API.
type Client struct {
	baseURL string
	fetcher *fetcher.Fetcher
	opts    fetcher.Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClient creates a Client rooted at baseURL.
func NewClient(baseURL string, f *fetcher.Fetcher, opts fetcher.Options, m *metrics.Metrics) *Client {
	if m == nil {
		m = metrics.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: f,
		opts:    opts,
		metrics: m,
		logger:  slog.Default().With("component", "content-client"),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint builds the absolute URL of an API resource.
func (c *Client) Endpoint(resource string, query url.Values) string {
	u := c.baseURL + apiPrefix + "/" + strings.TrimPrefix(resource, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// GetJSON fetches resource and decodes the body into dst. Non-2xx responses
// become *errors.UpstreamStatusError; undecodable bodies wrap
// ErrMalformedPayload.
func (c *Client) GetJSON(ctx context.Context, resource string, query url.Values, dst any) error {
	endpoint := c.Endpoint(resource, query)
	resp, err := c.fetcher.Get(ctx, endpoint, c.opts)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	if !resp.OK() {
		return &apperrors.UpstreamStatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}
	if err := json.Unmarshal(resp.Body, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrMalformedPayload, endpoint, err)
	}
	return nil
}

// GetPosts returns one page of posts, or an empty page on any failure.
func (c *Client) GetPosts(ctx context.Context, q PostQuery) Page[Post] {
	q = q.normalized()
	var page Page[Post]
	if err := c.GetJSON(ctx, "posts", q.values(), &page); err != nil {
		c.degrade(ctx, "get_posts", err, "lang", q.Lang, "page", q.Page)
		return Page[Post]{Data: []Post{}, Total: 0, Page: defaultPage, Limit: defaultLimit}
	}
	if page.Data == nil {
		page.Data = []Post{}
	}
	return page
}

// GetPost returns the post with the given slug in lang. A 404 and any
// failure both report absence.
func (c *Client) GetPost(ctx context.Context, slug string, lang Language) (*Post, bool) {
	if slug == "" {
		return nil, false
	}
	var env Envelope[*Post]
	err := c.GetJSON(ctx, "posts/"+url.PathEscape(slug), url.Values{"lang": {string(lang)}}, &env)
	if err != nil {
		if isNotFound(err) {
			logger.FromContext(ctx).Debug("post not found", "component", "content-client", "slug", slug, "lang", lang)
			return nil, false
		}
		c.degrade(ctx, "get_post", err, "slug", slug, "lang", lang)
		return nil, false
	}
	if env.Data == nil {
		return nil, false
	}
	return env.Data, true
}

// GetCategories returns every category for lang, or none on failure.
func (c *Client) GetCategories(ctx context.Context, lang Language) []Category {
	var env Envelope[[]Category]
	if err := c.GetJSON(ctx, "categories", url.Values{"lang": {string(lang)}}, &env); err != nil {
		c.degrade(ctx, "get_categories", err, "lang", lang)
		return []Category{}
	}
	if env.Data == nil {
		return []Category{}
	}
	return env.Data
}

// GetTags returns every tag for lang, or none on failure.
func (c *Client) GetTags(ctx context.Context, lang Language) []Tag {
	var env Envelope[[]Tag]
	if err := c.GetJSON(ctx, "tags", url.Values{"lang": {string(lang)}}, &env); err != nil {
		c.degrade(ctx, "get_tags", err, "lang", lang)
		return []Tag{}
	}
	if env.Data == nil {
		return []Tag{}
	}
	return env.Data
}

// GetAllPostsForSitemap enumerates every language in order, paging with
// limit 100 until a short page comes back. A failed page reads as empty and
// ends that language.
func (c *Client) GetAllPostsForSitemap(ctx context.Context) []Post {
	all := make([]Post, 0)
	for _, lang := range Languages {
		for page := 1; page <= MaxSitemapPages; page++ {
			if ctx.Err() != nil {
				c.degrade(ctx, "sitemap_enumeration", ctx.Err(), "lang", lang, "page", page)
				return all
			}
			resp := c.GetPosts(ctx, PostQuery{Lang: lang, Page: page, Limit: sitemapPageSize})
			all = append(all, resp.Data...)
			if len(resp.Data) < sitemapPageSize {
				break
			}
			if page == MaxSitemapPages {
				c.logger.Warn("sitemap page guard reached", "lang", lang, "pages", page)
			}
		}
	}
	return all
}

func (c *Client) degrade(ctx context.Context, operation string, err error, attrs ...any) {
	c.metrics.DegradedTotal.WithLabelValues(operation).Inc()
	args := append([]any{"component", "content-client", "operation", operation, "error", err}, attrs...)
	logger.FromContext(ctx).Warn("content request degraded", args...)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
