// Package transport issues individual page fetches against the source site.
// It carries no retry logic; callers decide retry policy.
package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/devscout/internal/resilience"
)

const maxBodyBytes = 2 << 20 // 2 MiB response cap

// Client fetches a single URL and returns the raw document.
type Client interface {
	Fetch(ctx context.Context, targetURL string) ([]byte, error)
}

// Options configures the HTTP client.
type Options struct {
	// Timeout bounds every fetch, including body read. Default: 15s.
	Timeout time.Duration

	// RequestsPerSec limits fetches per host. Zero disables limiting.
	RequestsPerSec float64

	// UserAgent overrides the default browser-emulating User-Agent.
	UserAgent string
}

// httpClient implements Client over net/http with browser-emulating headers
// and a per-host rate limiter.
type httpClient struct {
	client    *http.Client
	userAgent string

	mu       sync.Mutex
	perSec   float64
	limiters map[string]*rate.Limiter
}

// browser-like defaults; the source site serves degraded markup to
// obvious bots.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// New creates an HTTP client with the given options.
func New(opts Options) Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &httpClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: ua,
		perSec:    opts.RequestsPerSec,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Fetch performs a single GET. Non-2xx statuses are errors; transient
// statuses (429, 5xx) are wrapped so callers can classify them.
func (c *httpClient) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	if err := c.waitHost(ctx, targetURL); err != nil {
		return nil, eris.Wrap(err, "transport: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "transport: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "transport: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "transport: read body")
	}

	if resp.StatusCode >= 400 {
		statusErr := eris.Errorf("transport: status %d for %s", resp.StatusCode, targetURL)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	zap.L().Debug("transport: fetched",
		zap.String("url", targetURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)

	return body, nil
}

// waitHost blocks until the per-host limiter allows another request.
func (c *httpClient) waitHost(ctx context.Context, targetURL string) error {
	if c.perSec <= 0 {
		return nil
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		return nil // malformed URLs fail later in http.NewRequest
	}

	c.mu.Lock()
	lim, ok := c.limiters[u.Host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(c.perSec), 1)
		c.limiters[u.Host] = lim
	}
	c.mu.Unlock()

	return lim.Wait(ctx)
}
