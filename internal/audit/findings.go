package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msnewsgroup/newsaudit/internal/article"
)

// blockingScriptThreshold is how many non-deferred head scripts a page
// carries before it counts as render-blocking heavy.
const blockingScriptThreshold = 8

var priorityRank = map[Priority]int{P0: 0, P1: 1, P2: 2}

// BuildFindings turns a raw Result into the prioritized remediation
// list. Findings are emitted area by area (discovery, feed, schema,
// performance), deduplicated by title, then stably sorted by priority
// so equal-priority findings keep emission order.
func BuildFindings(cfg *Config, result *Result) []Finding {
	var findings []Finding
	add := func(f Finding) { findings = append(findings, f) }

	stats := computeStats(result.Samples)

	robots := result.Robots
	if len(robots.BlockingRules) > 0 {
		add(Finding{
			Priority: P0,
			Title:    "robots.txt may block news discovery paths",
			Evidence: strings.Join(robots.BlockingRules, ", "),
			Fix:      "In WordPress, check SEO plugin robots settings and remove Disallow rules blocking /feed/ or sitemap endpoints.",
			Category: CategoryDiscovery,
		})
	}
	if !robots.Reachable {
		evidence := "robots.txt could not be fetched."
		if robots.FetchError != "" {
			evidence = fmt.Sprintf("robots.txt fetch failed: %s", robots.FetchError)
		} else if robots.StatusCode != 0 {
			evidence = fmt.Sprintf("robots.txt returned status %d.", robots.StatusCode)
		}
		add(Finding{
			Priority: P1,
			Title:    "robots.txt was unreachable",
			Evidence: evidence,
			Fix:      "Ensure /robots.txt returns 200 with a plain-text body; check server rewrites and security plugins.",
			Category: CategoryDiscovery,
		})
	}

	if result.SitemapReachable == 0 {
		add(Finding{
			Priority: P0,
			Title:    "No sitemap endpoint was reachable",
			Evidence: fmt.Sprintf("0 of %d candidate sitemap URLs returned a parseable document.", result.SitemapReferenced),
			Fix:      "Enable XML sitemaps in your SEO plugin or core WordPress and verify robots.txt exposes a Sitemap line.",
			Category: CategoryDiscovery,
		})
	}

	if stats.Fetched > 0 && stats.Noindex > 0 {
		add(Finding{
			Priority: P1,
			Title:    "Some sampled articles are marked noindex",
			Evidence: fmt.Sprintf("%d of %d sampled pages contain meta robots noindex.", stats.Noindex, stats.Fetched),
			Fix:      "In SEO plugin settings, set posts to Index and remove per-post noindex overrides.",
			Category: CategoryDiscovery,
		})
	}

	feed := result.Feed
	if !feed.Reachable {
		add(Finding{
			Priority: P0,
			Title:    "No valid RSS feed items found",
			Evidence: feedUnreachableEvidence(feed.ParseError),
			Fix:      "Ensure /feed/ returns valid RSS and is not cached/rewritten to HTML.",
			Category: CategoryFeed,
		})
	} else {
		if feed.IsExcerptOnly {
			add(Finding{
				Priority: P1,
				Title:    "Feed content is excerpt-only",
				Evidence: fmt.Sprintf("Median feed content length is %d characters, below the %d character full-text threshold.", feed.MedianContent, cfg.ExcerptThreshold),
				Fix:      "Switch RSS to full text under Settings > Reading and disable excerpt filters in the theme.",
				Category: CategoryFeed,
			})
		}
		if feed.ItemCount > 0 && feed.ImageCoverage < feed.ItemCount {
			add(Finding{
				Priority: P2,
				Title:    "Feed items are missing images",
				Evidence: fmt.Sprintf("%d of %d feed items include an image.", feed.ImageCoverage, feed.ItemCount),
				Fix:      "Set a featured image on every post and include it in feed items via enclosure or media:content.",
				Category: CategoryFeed,
			})
		}
	}

	if stats.Fetched > 0 {
		if stats.MissingCanonical > 0 {
			add(Finding{
				Priority: P1,
				Title:    "Canonical tags are missing on sampled articles",
				Evidence: fmt.Sprintf("%d of %d pages were missing canonical.", stats.MissingCanonical, stats.Fetched),
				Fix:      "Enable canonical output in your SEO plugin and ensure single.php includes wp_head().",
				Category: CategorySchema,
			})
		}
		if stats.CanonicalMismatch > 0 {
			add(Finding{
				Priority: P1,
				Title:    "Canonical URL mismatches article URL on sampled pages",
				Evidence: fmt.Sprintf("%d of %d pages have inconsistent canonical URLs.", stats.CanonicalMismatch, stats.Fetched),
				Fix:      "Review permalink settings and avoid plugins that rewrite canonical URLs to archives or tracking URLs.",
				Category: CategorySchema,
			})
		}
		if stats.MissingSchema > 0 {
			add(Finding{
				Priority: P1,
				Title:    "JSON-LD Article/NewsArticle schema is missing on sampled pages",
				Evidence: fmt.Sprintf("%d of %d pages lacked Article schema.", stats.MissingSchema, stats.Fetched),
				Fix:      "Enable schema output for Posts in your SEO plugin and map it to Article or NewsArticle.",
				Category: CategorySchema,
			})
		}

		for _, pattern := range missingFieldPatterns(result.Samples) {
			add(Finding{
				Priority: P2,
				Title:    fmt.Sprintf("JSON-LD Article schema is missing fields: %s", pattern.fields),
				Evidence: fmt.Sprintf("%d of %d pages carry Article schema without %s.", pattern.count, stats.Fetched, pattern.fields),
				Fix:      "Map headline, publication dates, author, publisher, and image in your SEO plugin's schema settings.",
				Category: CategorySchema,
			})
		}

		if stats.MissingOGImage > 0 {
			add(Finding{
				Priority: P2,
				Title:    "Open Graph images are missing on sampled articles",
				Evidence: fmt.Sprintf("%d of %d pages are missing og:image.", stats.MissingOGImage, stats.Fetched),
				Fix:      "Set a featured image on all posts and enable Open Graph in SEO plugin social settings.",
				Category: CategorySchema,
			})
		}
		if stats.MissingDateVisible > 0 {
			add(Finding{
				Priority: P2,
				Title:    "Publication date is not clearly visible in article HTML",
				Evidence: fmt.Sprintf("%d of %d pages did not expose an obvious date signal.", stats.MissingDateVisible, stats.Fetched),
				Fix:      "Update single post template to render <time datetime> with published and updated timestamps.",
				Category: CategorySchema,
			})
		}
		if float64(stats.MissingOGImageDims)/float64(stats.Fetched) > 0.5 {
			add(Finding{
				Priority: P2,
				Title:    "og:image dimensions are often missing",
				Evidence: fmt.Sprintf("%d of %d pages are missing og:image:width/height.", stats.MissingOGImageDims, stats.Fetched),
				Fix:      "Configure SEO plugin to emit og:image width/height metadata for featured images.",
				Category: CategorySchema,
			})
		}

		if stats.AvgSizeBytes > cfg.SizeCeilingBytes {
			add(Finding{
				Priority: P2,
				Title:    "Average sampled article response size is heavy",
				Evidence: fmt.Sprintf("Average response size is %d bytes against a %d byte ceiling.", stats.AvgSizeBytes, cfg.SizeCeilingBytes),
				Fix:      "Compress images, reduce third-party scripts, and defer non-critical JS.",
				Category: CategoryPerformance,
			})
		}
		if stats.HighBlockingPages > 0 {
			add(Finding{
				Priority: P2,
				Title:    "Potential render-blocking scripts detected",
				Evidence: fmt.Sprintf("%d sampled pages have many non-deferred scripts in <head>.", stats.HighBlockingPages),
				Fix:      "Move non-critical scripts to footer or add defer/async where safe.",
				Category: CategoryPerformance,
			})
		}
	}

	findings = dedupeByTitle(findings)
	sort.SliceStable(findings, func(i, j int) bool {
		return priorityRank[findings[i].Priority] < priorityRank[findings[j].Priority]
	})
	return findings
}

func feedUnreachableEvidence(parseError string) string {
	if parseError == "" {
		return "Feed discovery returned no usable entries."
	}
	return fmt.Sprintf("Feed discovery returned no usable entries (%s).", parseError)
}

type fieldPattern struct {
	fields string
	count  int
}

// missingFieldPatterns groups pages that do carry Article schema by
// which required fields they omit, preserving first-seen order so
// finding output stays deterministic.
func missingFieldPatterns(samples []article.Sample) []fieldPattern {
	index := map[string]int{}
	var patterns []fieldPattern

	for _, s := range samples {
		if !s.Fetched || !s.HasArticleSchema || len(s.MissingFields) == 0 {
			continue
		}
		key := strings.Join(s.MissingFields, ", ")
		if i, ok := index[key]; ok {
			patterns[i].count++
			continue
		}
		index[key] = len(patterns)
		patterns = append(patterns, fieldPattern{fields: key, count: 1})
	}
	return patterns
}

func dedupeByTitle(findings []Finding) []Finding {
	seen := make(map[string]bool, len(findings))
	out := findings[:0]
	for _, f := range findings {
		if seen[f.Title] {
			continue
		}
		seen[f.Title] = true
		out = append(out, f)
	}
	return out
}
