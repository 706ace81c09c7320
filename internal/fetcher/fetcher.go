package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Config holds the fetch policy for a single audit run.
type Config struct {
	Timeout       time.Duration // Per-attempt wall-clock timeout
	RetryAttempts int           // Retries on connection-level failures only
	RetryDelay    time.Duration // Delay between retry attempts
	RateLimit     int           // Maximum requests per second against the target host
	MaxBodySize   int64         // Response body cap in bytes
	UserAgent     string
}

// DefaultConfig returns a Config instance with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:       15 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    500 * time.Millisecond,
		RateLimit:     5,
		MaxBodySize:   10 * 1024 * 1024,
		UserAgent:     "NewsAuditBot/1.0 (+https://github.com/msnewsgroup/newsaudit)",
	}
}

// Result captures everything observed for a single GET. A transport
// failure is data, not an error: StatusCode stays 0 and Error holds the
// failure text. Immutable once returned; owned by the caller.
type Result struct {
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Body       []byte      `json:"-"`
	Headers    http.Header `json:"-"`
	ElapsedMs  int64       `json:"elapsed_ms"`
	SizeBytes  int64       `json:"size_bytes"`
	Error      string      `json:"error,omitempty"`
}

// OK reports whether the fetch completed with a non-error HTTP status.
func (r *Result) OK() bool {
	return r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 400
}

// Client performs bounded HTTP GETs with retry and response capture.
// It holds no per-URL state and never caches across calls.
type Client struct {
	config  *Config
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client with the given configuration.
// If config is nil, default configuration is used.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 25,
			MaxConnsPerHost:     50,
			IdleConnTimeout:     120 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &Client{
		config:  config,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// UserAgent returns the user agent string used for requests.
func (c *Client) UserAgent() string {
	return c.config.UserAgent
}

// Fetch performs a GET against targetURL. It never returns an error for
// transport failures: the Result carries the failure instead, so callers
// can fold it into findings. Retries apply only to connection-level
// failures; any HTTP response, including 4xx/5xx, is terminal.
func (c *Client) Fetch(ctx context.Context, targetURL string) *Result {
	res := &Result{URL: targetURL}

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			log.Debug().
				Str("url", targetURL).
				Int("attempt", attempt+1).
				Msg("Retrying fetch after transport failure")

			select {
			case <-time.After(c.config.RetryDelay):
			case <-ctx.Done():
				res.Error = ctx.Err().Error()
				return res
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			res.Error = err.Error()
			return res
		}

		done := c.attempt(ctx, targetURL, res)
		if done {
			return res
		}
	}

	log.Debug().
		Str("url", targetURL).
		Str("error", res.Error).
		Int("attempts", c.config.RetryAttempts+1).
		Msg("Fetch failed after all retries")

	return res
}

// attempt performs one GET. Returns true when the result is terminal
// (any HTTP response, or context cancellation), false when the failure
// is connection-level and worth retrying.
func (c *Client) attempt(ctx context.Context, targetURL string, res *Result) bool {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		res.Error = err.Error()
		return true
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		res.Error = err.Error()
		res.ElapsedMs = time.Since(start).Milliseconds()
		if ctx.Err() != nil {
			return true
		}
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodySize))
	if err != nil {
		res.Error = err.Error()
		res.ElapsedMs = time.Since(start).Milliseconds()
		return ctx.Err() != nil
	}

	res.StatusCode = resp.StatusCode
	res.Body = body
	res.Headers = resp.Header.Clone()
	res.ElapsedMs = time.Since(start).Milliseconds()
	res.SizeBytes = int64(len(body))
	res.Error = ""

	log.Debug().
		Str("url", targetURL).
		Int("status", res.StatusCode).
		Int64("size_bytes", res.SizeBytes).
		Int64("elapsed_ms", res.ElapsedMs).
		Msg("Fetch completed")

	return true
}
