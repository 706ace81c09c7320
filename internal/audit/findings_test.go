package audit

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msnewsgroup/newsaudit/internal/article"
	"github.com/msnewsgroup/newsaudit/internal/discovery"
	"github.com/msnewsgroup/newsaudit/internal/feed"
)

func healthyResult() *Result {
	samples := make([]article.Sample, 0, 10)
	for i := 0; i < 10; i++ {
		samples = append(samples, article.Sample{
			URL:               "https://example.com/post/",
			StatusCode:        200,
			Fetched:           true,
			CanonicalURL:      "https://example.com/post/",
			CanonicalMatches:  true,
			HasArticleSchema:  true,
			OGTitlePresent:    true,
			OGTypePresent:     true,
			OGURLPresent:      true,
			OGImagePresent:    true,
			OGImageDims:       true,
			DateVisible:       true,
			ResponseSizeBytes: 100 * 1024,
			ElapsedMs:         50,
		})
	}
	return &Result{
		Site:  "https://example.com/",
		RunID: "run-1",
		Robots: &discovery.RobotsInfo{
			URL:       "https://example.com/robots.txt",
			Reachable: true,
		},
		Feed: &feed.Summary{
			FeedURL:       "https://example.com/feed/",
			Reachable:     true,
			ItemCount:     10,
			TitleCoverage: 10,
			LinkCoverage:  10,
			DateCoverage:  10,
			ImageCoverage: 10,
			MedianContent: 2000,
			AvgContentLen: 2000,
		},
		Samples:           samples,
		SitemapEntries:    50,
		SitemapReferenced: 4,
		SitemapReachable:  2,
	}
}

func findByTitle(findings []Finding, title string) (Finding, bool) {
	for _, f := range findings {
		if f.Title == title {
			return f, true
		}
	}
	return Finding{}, false
}

func TestBuildFindingsHealthySite(t *testing.T) {
	findings := BuildFindings(DefaultConfig("https://example.com"), healthyResult())
	assert.Empty(t, findings)
}

func TestBuildFindingsSortedByPriority(t *testing.T) {
	result := healthyResult()
	result.Feed.Reachable = false
	result.Robots.Reachable = false
	result.Robots.StatusCode = 404
	for i := range result.Samples {
		result.Samples[i].OGImagePresent = false
	}

	findings := BuildFindings(DefaultConfig("https://example.com"), result)
	require.NotEmpty(t, findings)

	assert.True(t, sort.SliceIsSorted(findings, func(i, j int) bool {
		return priorityRank[findings[i].Priority] < priorityRank[findings[j].Priority]
	}))
	assert.Equal(t, P0, findings[0].Priority)
}

func TestBuildFindingsFeedUnreachableSingleP0(t *testing.T) {
	// A dead feed must produce exactly one feed finding: the P0. The
	// excerpt and image checks are meaningless without items and must
	// stay quiet.
	result := healthyResult()
	result.Feed = &feed.Summary{
		Reachable:     false,
		ParseError:    "status 404",
		NewsBreakRisk: true,
		RiskReasons:   []string{"No valid feed items were found."},
	}

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	var feedFindings []Finding
	for _, f := range findings {
		if f.Category == CategoryFeed {
			feedFindings = append(feedFindings, f)
		}
	}
	require.Len(t, feedFindings, 1)
	assert.Equal(t, P0, feedFindings[0].Priority)
	assert.Equal(t, "No valid RSS feed items found", feedFindings[0].Title)
}

func TestBuildFindingsExcerptOnlyFeed(t *testing.T) {
	result := healthyResult()
	result.Feed.IsExcerptOnly = true
	result.Feed.MedianContent = 180

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "Feed content is excerpt-only")
	require.True(t, ok)
	assert.Equal(t, P1, f.Priority)
	assert.Contains(t, f.Evidence, "180")
}

func TestBuildFindingsFeedImageCoverage(t *testing.T) {
	result := healthyResult()
	result.Feed.ImageCoverage = 7

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "Feed items are missing images")
	require.True(t, ok)
	assert.Equal(t, P2, f.Priority)
	assert.Equal(t, "7 of 10 feed items include an image.", f.Evidence)
}

func TestBuildFindingsRobotsBlockingRules(t *testing.T) {
	result := healthyResult()
	result.Robots.BlockingRules = []string{"/feed", "/sitemap.xml"}

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "robots.txt may block news discovery paths")
	require.True(t, ok)
	assert.Equal(t, P0, f.Priority)
	assert.Equal(t, "/feed, /sitemap.xml", f.Evidence)
}

func TestBuildFindingsRobotsUnreachableIsP1(t *testing.T) {
	result := healthyResult()
	result.Robots.Reachable = false
	result.Robots.StatusCode = 500

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "robots.txt was unreachable")
	require.True(t, ok)
	assert.Equal(t, P1, f.Priority)
	assert.Contains(t, f.Evidence, "500")
}

func TestBuildFindingsAllSitemapsDown(t *testing.T) {
	result := healthyResult()
	result.SitemapReachable = 0

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "No sitemap endpoint was reachable")
	require.True(t, ok)
	assert.Equal(t, P0, f.Priority)
	assert.Contains(t, f.Evidence, "0 of 4")
}

func TestBuildFindingsSchemaMissingEverywhere(t *testing.T) {
	result := healthyResult()
	for i := range result.Samples {
		result.Samples[i].HasArticleSchema = false
	}

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "JSON-LD Article/NewsArticle schema is missing on sampled pages")
	require.True(t, ok)
	assert.Equal(t, P1, f.Priority)
	assert.Equal(t, "10 of 10 pages lacked Article schema.", f.Evidence)
}

func TestBuildFindingsMissingFieldPatterns(t *testing.T) {
	// Two distinct patterns of missing fields yield two distinct P2
	// findings; repeats of a pattern collapse into its count.
	result := healthyResult()
	result.Samples[0].MissingFields = []string{"datePublished", "image"}
	result.Samples[1].MissingFields = []string{"datePublished", "image"}
	result.Samples[2].MissingFields = []string{"author.name"}

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "JSON-LD Article schema is missing fields: datePublished, image")
	require.True(t, ok)
	assert.Equal(t, P2, f.Priority)
	assert.Contains(t, f.Evidence, "2 of 10")

	_, ok = findByTitle(findings, "JSON-LD Article schema is missing fields: author.name")
	assert.True(t, ok)
}

func TestBuildFindingsNoindexAndCanonical(t *testing.T) {
	result := healthyResult()
	result.Samples[0].Noindex = true
	result.Samples[1].CanonicalURL = ""
	result.Samples[2].CanonicalMatches = false

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "Some sampled articles are marked noindex")
	require.True(t, ok)
	assert.Equal(t, P1, f.Priority)
	assert.Equal(t, CategoryDiscovery, f.Category)

	f, ok = findByTitle(findings, "Canonical tags are missing on sampled articles")
	require.True(t, ok)
	assert.Equal(t, "1 of 10 pages were missing canonical.", f.Evidence)

	_, ok = findByTitle(findings, "Canonical URL mismatches article URL on sampled pages")
	assert.True(t, ok)
}

func TestBuildFindingsOGImageDimensions(t *testing.T) {
	// Fires only past half the fetched pages: 6 of 10 missing trips it,
	// 5 of 10 stays quiet.
	result := healthyResult()
	for i := 0; i < 6; i++ {
		result.Samples[i].OGImageDims = false
	}

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "og:image dimensions are often missing")
	require.True(t, ok)
	assert.Equal(t, P2, f.Priority)
	assert.Equal(t, "6 of 10 pages are missing og:image:width/height.", f.Evidence)

	result = healthyResult()
	for i := 0; i < 5; i++ {
		result.Samples[i].OGImageDims = false
	}

	findings = BuildFindings(DefaultConfig("https://example.com"), result)
	_, ok = findByTitle(findings, "og:image dimensions are often missing")
	assert.False(t, ok)
}

func TestBuildFindingsPerformance(t *testing.T) {
	result := healthyResult()
	for i := range result.Samples {
		result.Samples[i].ResponseSizeBytes = 900 * 1024
	}
	result.Samples[0].BlockingScripts = blockingScriptThreshold

	findings := BuildFindings(DefaultConfig("https://example.com"), result)

	f, ok := findByTitle(findings, "Average sampled article response size is heavy")
	require.True(t, ok)
	assert.Equal(t, P2, f.Priority)
	assert.Equal(t, CategoryPerformance, f.Category)

	f, ok = findByTitle(findings, "Potential render-blocking scripts detected")
	require.True(t, ok)
	assert.Contains(t, f.Evidence, "1 sampled pages")
}

func TestBuildFindingsSkipsUnfetchedSamples(t *testing.T) {
	// Pages that never fetched must not count as missing anything.
	result := healthyResult()
	result.Samples = []article.Sample{
		{URL: "https://example.com/down/", Fetched: false},
	}

	findings := BuildFindings(DefaultConfig("https://example.com"), result)
	assert.Empty(t, findings)
}

func TestBuildFindingsIdempotent(t *testing.T) {
	result := healthyResult()
	result.Feed.IsExcerptOnly = true
	result.Samples[0].Noindex = true

	cfg := DefaultConfig("https://example.com")
	first := BuildFindings(cfg, result)
	second := BuildFindings(cfg, result)
	assert.Equal(t, first, second)
}

func TestBuildMetricsKeys(t *testing.T) {
	result := healthyResult()
	metrics := BuildMetrics(result)

	assert.Equal(t, "2/4", metrics["sitemap_endpoints_reachable"])
	assert.Equal(t, "10", metrics["feed_items_parsed"])
	assert.Equal(t, "10/10", metrics["feed_image_coverage"])
	assert.Equal(t, "NO", metrics["newsbreak_risk"])
	assert.Equal(t, "10", metrics["articles_sampled"])
	assert.Equal(t, "10", metrics["articles_fetched"])
	assert.Equal(t, "0", metrics["articles_unreachable"])
	assert.Equal(t, "0", metrics["missing_jsonld_article"])
	assert.Equal(t, "YES", metrics["robots_txt_reachable"])
	assert.Equal(t, "0/0/0/0", metrics["missing_og_fields"])
	assert.Equal(t, "0", metrics["missing_og_image_dims"])
	assert.Equal(t, "0", metrics["canonical_mismatch"])
	assert.Equal(t, "0", metrics["missing_date_html"])
	assert.Equal(t, "0", metrics["blocking_script_pages"])
	assert.Equal(t, "0", metrics["huge_inline_script_pages"])
}

func TestBuildMetricsOGFieldCounts(t *testing.T) {
	result := healthyResult()
	result.Samples[0].OGTitlePresent = false
	result.Samples[0].OGTypePresent = false
	result.Samples[1].OGTypePresent = false
	result.Samples[2].OGURLPresent = false
	result.Samples[3].OGImagePresent = false
	result.Samples[3].OGImageDims = false
	result.Samples[4].HugeInlineScripts = 1

	metrics := BuildMetrics(result)

	assert.Equal(t, "1/2/1/1", metrics["missing_og_fields"])
	assert.Equal(t, "1", metrics["missing_og_image_dims"])
	assert.Equal(t, "1", metrics["huge_inline_script_pages"])
}

func TestReportCounts(t *testing.T) {
	report := &Report{Findings: []Finding{
		{Priority: P0}, {Priority: P1}, {Priority: P1}, {Priority: P2},
	}}

	counts := report.Counts()
	assert.Equal(t, 1, counts[P0])
	assert.Equal(t, 2, counts[P1])
	assert.Equal(t, 1, counts[P2])
}
