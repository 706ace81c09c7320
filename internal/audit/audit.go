package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/msnewsgroup/newsaudit/internal/article"
	"github.com/msnewsgroup/newsaudit/internal/discovery"
	"github.com/msnewsgroup/newsaudit/internal/feed"
	"github.com/msnewsgroup/newsaudit/internal/fetcher"
)

// Run executes the audit pipeline against cfg.Site: robots.txt, the
// sitemap walk, feed analysis, then article sampling. Data flows
// strictly forward and every network failure degrades into the result
// rather than an error. The only error Run returns is a configuration
// one, surfaced before any network activity.
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.OverallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.OverallDeadline)
		defer cancel()
	}

	client := fetcher.New(cfg.fetcherConfig())

	log.Info().
		Str("site", cfg.Site).
		Int("sample_size", cfg.SampleSize).
		Msg("Starting news-readiness audit")

	result := &Result{
		Site:  cfg.Site,
		RunID: uuid.NewString(),
	}

	result.Robots = discovery.DiscoverRobots(ctx, client, cfg.Site)

	candidates := discovery.SitemapCandidates(cfg.Site, result.Robots.SitemapURLs)
	result.Sitemap = discovery.WalkSitemaps(ctx, client, candidates, discovery.WalkOptions{
		MaxDepth: cfg.MaxSitemapDepth,
		MaxURLs:  cfg.MaxSitemapURLs,
	})
	result.SitemapEntries = len(result.Sitemap.Entries)
	result.SitemapReferenced = result.Sitemap.Referenced
	result.SitemapReachable = result.Sitemap.Reachable

	result.Feed = feed.Analyze(ctx, client, cfg.Site, cfg.ExcerptThreshold)

	sampleURLs := article.SelectCandidates(result.Feed.Items, result.Sitemap.Entries, cfg.Site, cfg.SampleSize)
	result.Samples = article.FetchAll(ctx, client, sampleURLs, cfg.Concurrency)

	log.Info().
		Str("site", cfg.Site).
		Int("sitemap_entries", result.SitemapEntries).
		Int("feed_items", result.Feed.ItemCount).
		Int("articles_sampled", len(result.Samples)).
		Msg("Audit pipeline complete")

	return result, nil
}

// sampleStats carries the per-sample rollups shared by metrics and
// findings so both stay consistent with the underlying samples.
type sampleStats struct {
	Sampled            int
	Fetched            int
	Unreachable        int
	MissingCanonical   int
	CanonicalMismatch  int
	Noindex            int
	MissingSchema      int
	MissingOGTitle     int
	MissingOGType      int
	MissingOGURL       int
	MissingOGImage     int
	MissingOGImageDims int
	MissingDateVisible int
	HighBlockingPages  int
	HugeInlinePages    int
	AvgSizeBytes       int64
	MaxSizeBytes       int64
	AvgElapsedMs       int64
	MaxElapsedMs       int64
}

func computeStats(samples []article.Sample) sampleStats {
	stats := sampleStats{Sampled: len(samples)}

	var totalSize, totalElapsed int64
	for _, s := range samples {
		if !s.Fetched {
			stats.Unreachable++
			continue
		}
		stats.Fetched++

		if s.CanonicalURL == "" {
			stats.MissingCanonical++
		} else if !s.CanonicalMatches {
			stats.CanonicalMismatch++
		}
		if s.Noindex {
			stats.Noindex++
		}
		if !s.HasArticleSchema {
			stats.MissingSchema++
		}
		if !s.OGTitlePresent {
			stats.MissingOGTitle++
		}
		if !s.OGTypePresent {
			stats.MissingOGType++
		}
		if !s.OGURLPresent {
			stats.MissingOGURL++
		}
		if !s.OGImagePresent {
			stats.MissingOGImage++
		}
		if !s.OGImageDims {
			stats.MissingOGImageDims++
		}
		if !s.DateVisible {
			stats.MissingDateVisible++
		}
		if s.BlockingScripts >= blockingScriptThreshold {
			stats.HighBlockingPages++
		}
		if s.HugeInlineScripts > 0 {
			stats.HugeInlinePages++
		}

		totalSize += s.ResponseSizeBytes
		totalElapsed += s.ElapsedMs
		if s.ResponseSizeBytes > stats.MaxSizeBytes {
			stats.MaxSizeBytes = s.ResponseSizeBytes
		}
		if s.ElapsedMs > stats.MaxElapsedMs {
			stats.MaxElapsedMs = s.ElapsedMs
		}
	}

	if stats.Fetched > 0 {
		stats.AvgSizeBytes = totalSize / int64(stats.Fetched)
		stats.AvgElapsedMs = totalElapsed / int64(stats.Fetched)
	}

	return stats
}

// BuildMetrics derives the named counters for the report. Every value
// is pre-formatted so renderers stay dumb; counts always agree with
// the underlying samples.
func BuildMetrics(result *Result) map[string]string {
	stats := computeStats(result.Samples)

	yesNo := func(b bool) string {
		if b {
			return "YES"
		}
		return "NO"
	}

	f := result.Feed
	return map[string]string{
		"robots_txt_reachable":        yesNo(result.Robots.Reachable),
		"sitemap_endpoints_reachable": fmt.Sprintf("%d/%d", result.SitemapReachable, result.SitemapReferenced),
		"sitemap_entries":             fmt.Sprintf("%d", result.SitemapEntries),
		"feed_items_parsed":           fmt.Sprintf("%d", f.ItemCount),
		"feed_title_coverage":         fmt.Sprintf("%d/%d", f.TitleCoverage, f.ItemCount),
		"feed_link_coverage":          fmt.Sprintf("%d/%d", f.LinkCoverage, f.ItemCount),
		"feed_date_coverage":          fmt.Sprintf("%d/%d", f.DateCoverage, f.ItemCount),
		"feed_image_coverage":         fmt.Sprintf("%d/%d", f.ImageCoverage, f.ItemCount),
		"newsbreak_risk":              yesNo(f.NewsBreakRisk),
		"articles_sampled":            fmt.Sprintf("%d", stats.Sampled),
		"articles_fetched":            fmt.Sprintf("%d", stats.Fetched),
		"articles_unreachable":        fmt.Sprintf("%d", stats.Unreachable),
		"missing_canonical":           fmt.Sprintf("%d", stats.MissingCanonical),
		"canonical_mismatch":          fmt.Sprintf("%d", stats.CanonicalMismatch),
		"noindex_pages":               fmt.Sprintf("%d", stats.Noindex),
		"missing_jsonld_article":      fmt.Sprintf("%d", stats.MissingSchema),
		"missing_og_fields":           fmt.Sprintf("%d/%d/%d/%d", stats.MissingOGTitle, stats.MissingOGType, stats.MissingOGURL, stats.MissingOGImage),
		"missing_og_image_dims":       fmt.Sprintf("%d", stats.MissingOGImageDims),
		"missing_date_html":           fmt.Sprintf("%d", stats.MissingDateVisible),
		"blocking_script_pages":       fmt.Sprintf("%d", stats.HighBlockingPages),
		"huge_inline_script_pages":    fmt.Sprintf("%d", stats.HugeInlinePages),
		"avg_response_size_bytes":     fmt.Sprintf("%d", stats.AvgSizeBytes),
		"max_response_size_bytes":     fmt.Sprintf("%d", stats.MaxSizeBytes),
		"avg_response_time_ms":        fmt.Sprintf("%d", stats.AvgElapsedMs),
		"max_response_time_ms":        fmt.Sprintf("%d", stats.MaxElapsedMs),
	}
}
