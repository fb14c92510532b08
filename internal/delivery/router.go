package delivery

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/middleware"
)

// RouterOptions carries the cross-cutting pieces of the HTTP stack.
type RouterOptions struct {
	Health         *health.Checker
	Limiter        *IPLimiter
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	// AdminToken guards the cache endpoints. Empty disables them.
	AdminToken string
}

// NewRouter builds the frontend HTTP handler.
//
// Route table:
//
//	GET    /rss.xml
//	GET    /sitemap.xml
//	GET    /robots.txt
//	GET    /api/v1/settings
//	GET    /api/v1/{lang}/posts           (q is rate limited per client)
//	GET    /api/v1/{lang}/posts/{slug}
//	GET    /api/v1/{lang}/categories
//	GET    /api/v1/{lang}/tags
//	GET    /api/v1/cache/stats            (operator token)
//	POST   /api/v1/cache/invalidate       (operator token)
//	GET    /health/live
//	GET    /health/ready
//
// Middleware chain (outermost first):
//
//	RequestID → Metrics → CORS → Timeout → mux
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Feeds
	mux.HandleFunc("GET /rss.xml", h.RSS)
	mux.HandleFunc("GET /sitemap.xml", h.Sitemap)
	mux.HandleFunc("GET /robots.txt", h.Robots)

	// Content API
	mux.HandleFunc("GET /api/v1/settings", h.Settings)
	mux.Handle("GET /api/v1/{lang}/posts", RateLimitSearch(opts.Limiter)(http.HandlerFunc(h.Posts)))
	mux.HandleFunc("GET /api/v1/{lang}/posts/{slug}", h.Post)
	mux.HandleFunc("GET /api/v1/{lang}/categories", h.Categories)
	mux.HandleFunc("GET /api/v1/{lang}/tags", h.Tags)

	// Cache API
	operator := OperatorAuth(opts.AdminToken)
	mux.Handle("GET /api/v1/cache/stats", operator(http.HandlerFunc(h.CacheStats)))
	mux.Handle("POST /api/v1/cache/invalidate", operator(http.HandlerFunc(h.CacheInvalidate)))

	// Health
	if opts.Health != nil {
		mux.HandleFunc("GET /health/live", opts.Health.LiveHandler())
		mux.HandleFunc("GET /health/ready", opts.Health.ReadyHandler())
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Default()
	}

	var chain http.Handler = mux
	if opts.RequestTimeout > 0 {
		chain = middleware.Timeout(opts.RequestTimeout)(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	return chain
}
