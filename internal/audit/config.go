package audit

import (
	"fmt"
	"time"

	"github.com/msnewsgroup/newsaudit/internal/fetcher"
	"github.com/msnewsgroup/newsaudit/internal/util"
)

// Config carries every knob for a single audit run. It is built once,
// validated before any network activity, and passed through the
// pipeline unchanged — no process-wide mutable state.
type Config struct {
	Site             string        // Normalised base URL (scheme + host + trailing slash)
	SampleSize       int           // Articles to sample
	Concurrency      int           // Parallel article fetches
	Timeout          time.Duration // Per-fetch attempt timeout
	RetryAttempts    int           // Fetcher retries on connection failures
	OverallDeadline  time.Duration // Whole-run budget; 0 disables
	ExcerptThreshold int           // Median content length below which a feed looks excerpt-only
	SizeCeilingBytes int64         // Average page weight above which a P2 fires
	MaxSitemapDepth  int           // Sitemap-of-sitemaps recursion budget
	MaxSitemapURLs   int           // Cap on collected sitemap entries
	RateLimit        int           // Requests per second against the site
	UserAgent        string
}

// DefaultConfig returns a Config with the recommended policy values.
// The heuristic constants are policy, not truths: callers may override
// any of them before Run.
func DefaultConfig(site string) *Config {
	return &Config{
		Site:             site,
		SampleSize:       10,
		Concurrency:      6,
		Timeout:          15 * time.Second,
		RetryAttempts:    2,
		OverallDeadline:  5 * time.Minute,
		ExcerptThreshold: 500,
		SizeCeilingBytes: 500 * 1024,
		MaxSitemapDepth:  2,
		MaxSitemapURLs:   500,
		RateLimit:        5,
		UserAgent:        "NewsAuditBot/1.0 (+https://github.com/msnewsgroup/newsaudit)",
	}
}

// Validate normalises the site URL and rejects unusable settings.
// These are the only fatal errors in the system; everything past this
// point degrades into findings.
func (c *Config) Validate() error {
	site, err := util.NormaliseSite(c.Site)
	if err != nil {
		return err
	}
	c.Site = site

	if c.SampleSize <= 0 {
		return fmt.Errorf("sample size must be positive, got %d", c.SampleSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func (c *Config) fetcherConfig() *fetcher.Config {
	return &fetcher.Config{
		Timeout:       c.Timeout,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    500 * time.Millisecond,
		RateLimit:     c.RateLimit,
		MaxBodySize:   10 * 1024 * 1024,
		UserAgent:     c.UserAgent,
	}
}
