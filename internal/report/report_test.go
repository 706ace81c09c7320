package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msnewsgroup/newsaudit/internal/audit"
	"github.com/msnewsgroup/newsaudit/internal/discovery"
	"github.com/msnewsgroup/newsaudit/internal/feed"
)

func testResult() *audit.Result {
	return &audit.Result{
		Site:  "https://example.com/",
		RunID: "run-abc",
		Robots: &discovery.RobotsInfo{
			URL:       "https://example.com/robots.txt",
			Reachable: true,
		},
		Feed: &feed.Summary{
			FeedURL:       "https://example.com/feed/",
			Reachable:     true,
			ItemCount:     5,
			TitleCoverage: 5,
			LinkCoverage:  5,
			DateCoverage:  5,
			ImageCoverage: 4,
		},
		SitemapReferenced: 4,
		SitemapReachable:  2,
	}
}

func testFindings() []audit.Finding {
	return []audit.Finding{
		{
			Priority: audit.P0,
			Title:    "No valid RSS feed items found",
			Evidence: "Feed discovery returned no usable entries.",
			Fix:      "Ensure /feed/ returns valid RSS and is not cached/rewritten to HTML.",
			Category: audit.CategoryFeed,
		},
		{
			Priority: audit.P2,
			Title:    "Feed items are missing images",
			Evidence: "4 of 5 feed items include an image.",
			Fix:      "Set a featured image on every post and include it in feed items via enclosure or media:content.",
			Category: audit.CategoryFeed,
		},
	}
}

func TestSynthesize(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.FixedZone("AEST", 10*3600))

	r := Synthesize(testResult(), testFindings(), now)

	assert.Equal(t, "https://example.com/", r.Site)
	assert.Equal(t, "run-abc", r.RunID)
	assert.Equal(t, time.UTC, r.GeneratedAt.Location())
	assert.Equal(t, "2/4", r.Metrics["sitemap_endpoints_reachable"])
	assert.Len(t, r.Findings, 2)
}

func TestRenderMarkdownSections(t *testing.T) {
	r := Synthesize(testResult(), testFindings(), time.Now())
	md := RenderMarkdown(r)

	assert.Contains(t, md, "# WordPress News Visibility Ops Report")
	assert.Contains(t, md, "- [P0] No valid RSS feed items found - Feed discovery returned no usable entries.")
	assert.Contains(t, md, "| Sitemap endpoints reachable | 2/4 |")
	assert.Contains(t, md, "## Remediation Plan")
	assert.Contains(t, md, "### P0\n- **No valid RSS feed items found**")
	assert.Contains(t, md, "### P1\n- None detected.")
	assert.Contains(t, md, "## Exact WordPress Fixes")
	assert.Contains(t, md, "## Theme Snippets (Minimal PHP)")
	assert.Contains(t, md, "Verify property for `https://example.com/`.")
}

func TestRenderMarkdownCleanRun(t *testing.T) {
	r := Synthesize(testResult(), nil, time.Now())
	md := RenderMarkdown(r)

	assert.Contains(t, md, "- No major issues detected in this run.")
	assert.Contains(t, md, "### P0\n- None detected.")
}

func TestTerminalSummary(t *testing.T) {
	result := testResult()
	r := Synthesize(result, testFindings(), time.Now())

	out := TerminalSummary(result, r)

	assert.Contains(t, out, "Site: https://example.com/")
	assert.Contains(t, out, "selected feed: https://example.com/feed/")
	assert.Contains(t, out, "sitemap endpoints reachable: 2/4")
	assert.Contains(t, out, "missing canonical: 0 | canonical mismatch: 0")
	assert.Contains(t, out, "missing OG fields (title/type/url/image): 0/0/0/0")
	assert.Contains(t, out, "missing HTML date: 0")
	assert.Contains(t, out, "high render-blocking script pages: 0")
	assert.Contains(t, out, "huge inline script pages: 0")
	assert.Contains(t, out, "Findings: 1 P0, 0 P1, 1 P2")
}

func TestWriteJSONAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	r := Synthesize(testResult(), testFindings(), time.Now())

	jsonPath := filepath.Join(dir, "reports", "latest.json")
	mdPath := filepath.Join(dir, "reports", "latest.md")

	require.NoError(t, WriteJSON(jsonPath, r))
	require.NoError(t, WriteMarkdown(mdPath, r))

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded audit.Report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, r.Site, decoded.Site)
	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Len(t, decoded.Findings, 2)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# WordPress News Visibility Ops Report")
}
