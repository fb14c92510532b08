// Package fetcher performs HTTP requests against the content API with a
// per-attempt timeout, a fixed-delay retry budget and an optional circuit
// breaker. Only transport failures and 5xx responses are retried.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/resilience"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 1
	DefaultBackoff = 500 * time.Millisecond
)

// Options bound a single Fetch call. They are per call and never stored.
type Options struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// DefaultOptions returns 10s per attempt, one retry and a 500ms pause.
func DefaultOptions() Options {
	return Options{
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
		Backoff: DefaultBackoff,
	}
}

// OptionsFromConfig maps the upstream config section onto fetch options.
func OptionsFromConfig(cfg config.UpstreamConfig) Options {
	return Options{
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
		Backoff: cfg.Backoff,
	}
}

// Response is a fully read upstream response. Nothing of the underlying
// connection outlives the attempt that produced it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher executes bounded, retried requests.
type Fetcher struct {
	client  *http.Client
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client. The client's own Timeout should be
// zero; attempts are bounded through their context.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithBreaker puts a circuit breaker in front of every attempt.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(f *Fetcher) { f.breaker = cb }
}

// WithMetrics overrides the collectors the fetcher reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// New creates a Fetcher using http.DefaultClient and the default metrics.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: http.DefaultClient,
		logger: slog.Default().With("component", "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.metrics == nil {
		f.metrics = metrics.Default()
	}
	return f
}

// NewBreaker builds the upstream circuit breaker from config and mirrors its
// state into the circuit_breaker_state gauge. It returns nil when disabled.
func NewBreaker(cfg config.BreakerConfig, m *metrics.Metrics) *resilience.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return resilience.NewCircuitBreaker("content-api", resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.FailureThreshold,
		ResetTimeout:     cfg.ResetTimeout,
		OnStateChange: func(name string, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
}

// Get is Fetch for a plain GET of url.
func (f *Fetcher) Get(ctx context.Context, url string, opts Options) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	return f.Fetch(ctx, req, opts)
}

// Fetch runs req until it yields a non-retryable result or the budget of
// opts.Retries extra attempts is spent. 2xx, 3xx and 4xx responses are
// returned immediately. When the budget runs out the last failure is
// returned as it was observed: a 5xx comes back as a Response with a nil
// error, a transport failure comes back as the error.
func (f *Fetcher) Fetch(ctx context.Context, req *http.Request, opts Options) (*Response, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	log := logger.FromContext(ctx).With("component", "fetcher", "url", req.URL.String())

	var last *Response
	err := resilience.Retry(ctx, "fetch", resilience.RetryConfig{
		Retries:   opts.Retries,
		Delay:     opts.Backoff,
		Retryable: retryable,
	}, func(attempt int) error {
		if attempt > 1 {
			f.metrics.UpstreamRetriesTotal.Inc()
		}
		if f.breaker != nil {
			if err := f.breaker.Allow(); err != nil {
				f.metrics.UpstreamAttemptsTotal.WithLabelValues("circuit_open").Inc()
				last = nil
				return err
			}
		}

		start := time.Now()
		resp, err := f.attempt(ctx, req, opts.Timeout)
		outcome := classify(resp, err)
		f.metrics.UpstreamAttemptsTotal.WithLabelValues(outcome).Inc()
		f.metrics.UpstreamLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

		switch {
		case err != nil:
			last = nil
			f.record(true)
			log.Debug("attempt failed", "attempt", attempt, "error", err)
			return err
		case resp.StatusCode >= http.StatusInternalServerError:
			last = resp
			f.record(true)
			log.Debug("attempt returned server error", "attempt", attempt, "status", resp.StatusCode)
			return &apperrors.UpstreamStatusError{StatusCode: resp.StatusCode, URL: req.URL.String()}
		default:
			last = resp
			f.record(false)
			return nil
		}
	})
	if err != nil {
		var statusErr *apperrors.UpstreamStatusError
		if last != nil && errors.As(err, &statusErr) {
			return last, nil
		}
		return nil, err
	}
	return last, nil
}

// attempt performs one request bounded by timeout and reads the whole body
// before the attempt context is cancelled.
func (f *Fetcher) attempt(ctx context.Context, req *http.Request, timeout time.Duration) (*Response, error) {
	var out *Response
	err := resilience.WithTimeout(ctx, timeout, "fetch attempt", func(actx context.Context) error {
		r := req.Clone(actx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return fmt.Errorf("rewinding request body: %w", err)
			}
			r.Body = body
		}
		resp, err := f.client.Do(r)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		out = &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *Fetcher) record(failed bool) {
	if f.breaker != nil {
		f.breaker.Record(failed)
	}
}

// retryable treats everything except an open circuit and a caller
// cancellation as worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func classify(resp *Response, err error) string {
	switch {
	case err != nil:
		return "transport_error"
	case resp.StatusCode >= 500:
		return "server_error"
	case resp.StatusCode >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
