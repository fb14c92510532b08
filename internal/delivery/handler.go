// Package delivery exposes the blog frontend over HTTP: the feed artifacts,
// a JSON API over settings, listings and assembled articles, and the cache
// and health endpoints used by operators.
package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/article"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/article/cache"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/feed"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/invalidation"
	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
)

const (
	defaultPageLimit = 12
	maxPageLimit     = 100
	maxEventBytes    = 64 << 10
)

type ContentReader interface {
	GetPosts(ctx context.Context, q content.PostQuery) content.Page[content.Post]
	GetCategories(ctx context.Context, lang content.Language) []content.Category
	GetTags(ctx context.Context, lang content.Language) []content.Tag
}

type ArticleBuilder interface {
	Build(ctx context.Context, lang content.Language, slug string) (*article.Article, bool)
	CacheStats() (cache.Stats, bool)
}

type SettingsProvider interface {
	Get(ctx context.Context) content.Settings
	Age() (time.Duration, bool)
}

type FeedGenerator interface {
	RSS(ctx context.Context) ([]byte, error)
	Sitemap(ctx context.Context) ([]byte, error)
	Robots() []byte
}

type Invalidator interface {
	Apply(ctx context.Context, ev invalidation.Event) error
}

// Deps are the collaborators a Handler serves from.
type Deps struct {
	Content     ContentReader
	Articles    ArticleBuilder
	Settings    SettingsProvider
	Feeds       FeedGenerator
	Invalidator Invalidator
}

type Handler struct {
	deps   Deps
	logger *slog.Logger
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		deps:   deps,
		logger: slog.Default().With("component", "delivery"),
	}
}

func (h *Handler) RSS(w http.ResponseWriter, r *http.Request) {
	body, err := h.deps.Feeds.RSS(r.Context())
	if err != nil {
		h.fail(w, r, "rss", err)
		return
	}
	setCacheControl(w, CacheStatic)
	writeBody(w, feed.RSSContentType, body)
}

func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	body, err := h.deps.Feeds.Sitemap(r.Context())
	if err != nil {
		h.fail(w, r, "sitemap", err)
		return
	}
	setCacheControl(w, CacheStatic)
	writeBody(w, feed.SitemapContentType, body)
}

func (h *Handler) Robots(w http.ResponseWriter, r *http.Request) {
	setCacheControl(w, CacheRobots)
	writeBody(w, feed.RobotsContentType, h.deps.Feeds.Robots())
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	setCacheControl(w, CacheStatic)
	writeJSON(w, http.StatusOK, content.Envelope[content.Settings]{Data: h.deps.Settings.Get(r.Context())})
}

// Posts lists one page of posts. The q, category and tag parameters are
// forwarded to the content API.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.language(w, r)
	if !ok {
		return
	}
	params := r.URL.Query()

	page, err := positiveInt(params.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, err := positiveInt(params.Get("limit"), defaultPageLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, maxPageLimit)

	result := h.deps.Content.GetPosts(r.Context(), content.PostQuery{
		Lang:         lang,
		Page:         page,
		Limit:        limit,
		CategorySlug: params.Get("category"),
		TagSlug:      params.Get("tag"),
		Search:       strings.TrimSpace(params.Get("q")),
	})
	if result.Data == nil {
		result.Data = []content.Post{}
	}
	setCacheControl(w, CacheList)
	writeJSON(w, http.StatusOK, result)
}

// Post serves a fully assembled article. Posts marked noIndex are served
// privately so shared caches never hold them.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.language(w, r)
	if !ok {
		return
	}
	slug := r.PathValue("slug")
	art, found := h.deps.Articles.Build(r.Context(), lang, slug)
	if !found {
		setCacheControl(w, CacheList)
		h.fail(w, r, "post", apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "post %q not found", slug))
		return
	}
	if art.Post.NoIndex {
		setCacheControl(w, CacheNoIndex)
		w.Header().Set("X-Robots-Tag", "noindex")
	} else {
		setCacheControl(w, CacheStatic)
	}
	writeJSON(w, http.StatusOK, content.Envelope[*article.Article]{Data: art})
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.language(w, r)
	if !ok {
		return
	}
	categories := h.deps.Content.GetCategories(r.Context(), lang)
	if categories == nil {
		categories = []content.Category{}
	}
	setCacheControl(w, CacheStatic)
	writeJSON(w, http.StatusOK, content.Envelope[[]content.Category]{Data: categories})
}

func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.language(w, r)
	if !ok {
		return
	}
	tags := h.deps.Content.GetTags(r.Context(), lang)
	if tags == nil {
		tags = []content.Tag{}
	}
	setCacheControl(w, CacheStatic)
	writeJSON(w, http.StatusOK, content.Envelope[[]content.Tag]{Data: tags})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, enabled := h.deps.Articles.CacheStats()
	total := stats.Hits + stats.Misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total)
	}
	resp := map[string]any{
		"article_cache": map[string]any{
			"enabled":  enabled,
			"hits":     stats.Hits,
			"misses":   stats.Misses,
			"total":    total,
			"hit_rate": hitRate,
		},
	}
	if age, cached := h.deps.Settings.Age(); cached {
		resp["settings_age_seconds"] = age.Seconds()
	} else {
		resp["settings_age_seconds"] = nil
	}
	setCacheControl(w, CacheNone)
	writeJSON(w, http.StatusOK, resp)
}

// CacheInvalidate applies an invalidation event from the request body. An
// empty body invalidates everything.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	ev := invalidation.Event{Type: invalidation.All}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &ev); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if err := h.deps.Invalidator.Apply(r.Context(), ev); err != nil {
		h.fail(w, r, "invalidate", err)
		return
	}
	setCacheControl(w, CacheNone)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "invalidated",
		"type":   ev.Type,
	})
}

func (h *Handler) language(w http.ResponseWriter, r *http.Request) (content.Language, bool) {
	raw := r.PathValue("lang")
	lang, ok := content.ParseLanguage(raw)
	if !ok {
		h.fail(w, r, "language", apperrors.Newf(apperrors.ErrInvalidLanguage, http.StatusNotFound, "unsupported language %q", raw))
		return "", false
	}
	return lang, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := apperrors.HTTPStatusCode(err)
	log := h.logger.With("operation", operation)
	if id := logger.RequestID(r.Context()); id != "" {
		log = log.With("request_id", id)
	}
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", "error", err)
	case status == http.StatusNotFound:
		log.Debug("not found", "error", err)
	default:
		log.Warn("request rejected", "error", err)
	}
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeError(w, status, msg)
}

func positiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.ErrInvalidInput
	}
	return n, nil
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
