// Package article assembles a single post page: it fetches the post, renders
// and anchors its body, derives reading metadata and picks related posts.
package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/article/cache"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/markdown"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/related"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/sanitizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/tracing"
)

const (
	DefaultPoolSize      = 50
	DescriptionMaxLength = 160
)

// Alternate points at the same section of the site in another language.
type Alternate struct {
	Lang content.Language `json:"lang"`
	Href string           `json:"href"`
}

// Article is a post ready to be served.
type Article struct {
	Post           content.Post        `json:"post"`
	HTML           string              `json:"html"`
	TOC            []document.TOCEntry `json:"toc"`
	ReadingMinutes int                 `json:"readingMinutes"`
	Description    string              `json:"description"`
	CanonicalURL   string              `json:"canonicalUrl"`
	Related        []content.Post      `json:"related"`
	Alternates     []Alternate         `json:"alternates"`
}

// PostSource is the read side of the content client the builder needs.
type PostSource interface {
	GetPost(ctx context.Context, slug string, lang content.Language) (*content.Post, bool)
	GetPosts(ctx context.Context, q content.PostQuery) content.Page[content.Post]
}

// Options tune a Builder.
type Options struct {
	SiteURL      string
	PoolSize     int
	RelatedLimit int
	// Cache is optional; without it every Build assembles from scratch.
	Cache *cache.Cache[*Article]
}

// Builder assembles articles.
type Builder struct {
	source   PostSource
	renderer *markdown.Renderer
	opts     Options
	logger   *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(source PostSource, renderer *markdown.Renderer, opts Options) *Builder {
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = related.DefaultLimit
	}
	if renderer == nil {
		renderer = markdown.New(nil)
	}
	return &Builder{
		source:   source,
		renderer: renderer,
		opts:     opts,
		logger:   slog.Default().With("component", "article-builder"),
	}
}

// Build returns the article for slug in lang, or false when the post does
// not exist, cannot be fetched, or ctx ends before it is complete. Partial
// articles are never cached.
func (b *Builder) Build(ctx context.Context, lang content.Language, slug string) (*Article, bool) {
	var (
		art *Article
		hit bool
		err error
	)
	if b.opts.Cache == nil {
		art, err = b.assemble(ctx, lang, slug)
	} else {
		art, hit, err = b.opts.Cache.GetOrCompute(ctx, string(lang), slug, func() (*Article, error) {
			return b.assemble(ctx, lang, slug)
		})
	}
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.FromContext(ctx).Error("article build failed", "component", "article-builder", "slug", slug, "error", err)
		}
		return nil, false
	}
	if hit {
		logger.FromContext(ctx).Debug("article served from cache", "component", "article-builder", "slug", slug, "lang", lang)
	}
	return art, true
}

// Invalidate drops any cached copy of slug in every language.
func (b *Builder) Invalidate(ctx context.Context, slug string) error {
	if b.opts.Cache == nil {
		return nil
	}
	langs := make([]string, len(content.Languages))
	for i, l := range content.Languages {
		langs[i] = string(l)
	}
	return b.opts.Cache.InvalidateSlug(ctx, langs, slug)
}

// InvalidateAll drops every cached article.
func (b *Builder) InvalidateAll(ctx context.Context) error {
	if b.opts.Cache == nil {
		return nil
	}
	return b.opts.Cache.InvalidateAll(ctx)
}

// CacheStats reports cache counters, and false when caching is disabled.
func (b *Builder) CacheStats() (cache.Stats, bool) {
	if b.opts.Cache == nil {
		return cache.Stats{}, false
	}
	return b.opts.Cache.Stats(), true
}

func (b *Builder) assemble(ctx context.Context, lang content.Language, slug string) (*Article, error) {
	ctx, root := tracing.StartSpan(ctx, "article.build", logger.RequestID(ctx))
	root.SetAttr("lang", string(lang))
	root.SetAttr("slug", slug)
	defer func() {
		root.End()
		root.Log(logger.FromContext(ctx))
	}()

	fetchCtx, fetchSpan := tracing.StartChildSpan(ctx, "fetch")
	post, ok := b.source.GetPost(fetchCtx, slug, lang)
	fetchSpan.End()
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	var pool []content.Post
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, span := tracing.StartChildSpan(gctx, "related")
		defer span.End()
		page := b.source.GetPosts(gctx, content.PostQuery{Lang: lang, Page: 1, Limit: b.opts.PoolSize})
		pool = page.Data
		span.SetAttr("pool", len(pool))
		return gctx.Err()
	})

	_, renderSpan := tracing.StartChildSpan(ctx, "render")
	rendered := b.renderer.MustRender(post.BodyMarkdown)
	renderSpan.End()

	_, processSpan := tracing.StartChildSpan(ctx, "process")
	html, toc := document.Process(rendered)
	minutes := document.ReadingTime(html)
	processSpan.SetAttr("toc", len(toc))
	processSpan.End()

	if err := g.Wait(); err != nil {
		root.SetAttr("aborted", err.Error())
		return nil, fmt.Errorf("%w: building %s/%s: %v", apperrors.ErrTimeout, lang, slug, err)
	}

	return &Article{
		Post:           *post,
		HTML:           html,
		TOC:            toc,
		ReadingMinutes: minutes,
		Description:    Description(*post),
		CanonicalURL:   b.canonicalURL(*post, lang, slug),
		Related:        related.Related(*post, pool, b.opts.RelatedLimit),
		Alternates:     b.alternates(),
	}, nil
}

// Description is the post's SEO description, or its excerpt as plain text
// bounded to DescriptionMaxLength characters.
func Description(post content.Post) string {
	if post.SEODescription != "" {
		return post.SEODescription
	}
	return sanitizer.TruncateText(sanitizer.StripHTML(post.Excerpt), DescriptionMaxLength)
}

func (b *Builder) canonicalURL(post content.Post, lang content.Language, slug string) string {
	if post.CanonicalURL != "" {
		return post.CanonicalURL
	}
	return content.PostURL(b.opts.SiteURL, lang, slug)
}

// alternates lists the blog index of every language. Slugs are not shared
// across languages, so the index is the closest stable counterpart.
func (b *Builder) alternates() []Alternate {
	out := make([]Alternate, len(content.Languages))
	for i, l := range content.Languages {
		out[i] = Alternate{Lang: l, Href: content.LanguageURL(b.opts.SiteURL, l, "blog")}
	}
	return out
}
