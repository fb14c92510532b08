// Package markdown converts post bodies to HTML with goldmark and passes the
// result through the sanitizer before anything else sees it.
package markdown

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/sanitizer"
)

// Renderer is stateless after construction and safe for concurrent use.
type Renderer struct {
	engine    goldmark.Markdown
	sanitizer *sanitizer.Sanitizer
	logger    *slog.Logger
}

// New builds a Renderer with GitHub Flavored Markdown and hard line breaks.
// Raw HTML in the source is passed to the sanitizer rather than escaped.
func New(s *sanitizer.Sanitizer) *Renderer {
	if s == nil {
		s = sanitizer.New()
	}
	engine := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(),
		),
	)
	return &Renderer{
		engine:    engine,
		sanitizer: s,
		logger:    slog.Default().With("component", "markdown"),
	}
}

// Render converts markdown to sanitized HTML.
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}

// MustRender is Render that never fails: on a conversion error it logs and
// returns the sanitized source instead.
func (r *Renderer) MustRender(markdown string) string {
	out, err := r.Render(markdown)
	if err != nil {
		r.logger.Error("markdown render failed, serving sanitized source", "error", err)
		return r.sanitizer.Sanitize(markdown)
	}
	return out
}
