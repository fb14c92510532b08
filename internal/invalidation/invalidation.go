// Package invalidation applies content-change events to the in-process
// settings cache and the shared article cache. Events arrive either from the
// content-invalidate Kafka topic or from the HTTP cache endpoint.
package invalidation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
)

// EventType names what changed upstream.
type EventType string

const (
	SettingsUpdated EventType = "settings.updated"
	PostUpdated     EventType = "post.updated"
	PostDeleted     EventType = "post.deleted"
	All             EventType = "all"
)

// Event is the payload carried on the content-invalidate topic.
type Event struct {
	Type EventType `json:"type"`
	Lang string    `json:"lang,omitempty"`
	Slug string    `json:"slug,omitempty"`
}

// Validate checks that the event names a known type and, for post events,
// a slug. Lang is optional but must be supported when present.
func (e Event) Validate() error {
	switch e.Type {
	case SettingsUpdated, All:
	case PostUpdated, PostDeleted:
		if e.Slug == "" {
			return fmt.Errorf("%s event requires a slug: %w", e.Type, apperrors.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("unknown event type %q: %w", e.Type, apperrors.ErrInvalidInput)
	}
	if e.Lang != "" {
		if _, ok := content.ParseLanguage(e.Lang); !ok {
			return fmt.Errorf("event language %q: %w", e.Lang, apperrors.ErrInvalidInput)
		}
	}
	return nil
}

// Key is the partition key used when publishing.
func (e Event) Key() string {
	if e.Slug != "" {
		return e.Slug
	}
	return string(e.Type)
}

// SettingsInvalidator is satisfied by *settings.Cache.
type SettingsInvalidator interface {
	Invalidate()
}

// ArticleInvalidator is satisfied by *article.Builder.
type ArticleInvalidator interface {
	Invalidate(ctx context.Context, slug string) error
	InvalidateAll(ctx context.Context) error
}

// Handler applies events to the caches it was given. Either cache may be nil.
type Handler struct {
	settings SettingsInvalidator
	articles ArticleInvalidator
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(settings SettingsInvalidator, articles ArticleInvalidator, m *metrics.Metrics) *Handler {
	if m == nil {
		m = metrics.Default()
	}
	return &Handler{
		settings: settings,
		articles: articles,
		metrics:  m,
		logger:   slog.Default().With("component", "invalidation"),
	}
}

// Apply validates ev and drops the cache entries it names. Post events drop
// the slug in every language since a cached article may exist under any of
// them.
func (h *Handler) Apply(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	log := logger.FromContext(ctx)

	switch ev.Type {
	case SettingsUpdated:
		h.invalidateSettings()
	case PostUpdated, PostDeleted:
		if h.articles != nil {
			if err := h.articles.Invalidate(ctx, ev.Slug); err != nil {
				return fmt.Errorf("invalidating article %s: %w", ev.Slug, err)
			}
		}
	case All:
		h.invalidateSettings()
		if h.articles != nil {
			if err := h.articles.InvalidateAll(ctx); err != nil {
				return fmt.Errorf("invalidating all articles: %w", err)
			}
		}
	}

	h.metrics.InvalidationsTotal.WithLabelValues(string(ev.Type)).Inc()
	log.Info("cache invalidated",
		"component", "invalidation",
		"type", ev.Type,
		"lang", ev.Lang,
		"slug", ev.Slug,
	)
	return nil
}

func (h *Handler) invalidateSettings() {
	if h.settings != nil {
		h.settings.Invalidate()
	}
}

// HandleMessage is a kafka.MessageHandler. Messages that cannot be decoded or
// fail validation are logged and skipped so they are committed; cache errors
// are returned and the message is left uncommitted.
func (h *Handler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	ev, err := kafka.DecodeJSON[Event](value)
	if err != nil {
		h.logger.Error("failed to decode invalidation event",
			"error", err,
			"key", string(key),
		)
		return nil
	}
	if err := ev.Validate(); err != nil {
		h.logger.Warn("skipping invalid invalidation event",
			"error", err,
			"key", string(key),
		)
		return nil
	}
	return h.Apply(ctx, ev)
}
