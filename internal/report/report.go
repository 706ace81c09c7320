// Package report turns audit results into the deliverable artifacts:
// an immutable Report value, a markdown remediation document, a JSON
// payload, and a terminal summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/msnewsgroup/newsaudit/internal/audit"
)

// Synthesize assembles the final Report from a run's raw result and
// its derived findings. Pure: no I/O, no clock reads beyond the
// caller-supplied timestamp.
func Synthesize(result *audit.Result, findings []audit.Finding, now time.Time) *audit.Report {
	return &audit.Report{
		Site:        result.Site,
		RunID:       result.RunID,
		GeneratedAt: now.UTC(),
		Metrics:     audit.BuildMetrics(result),
		Findings:    findings,
	}
}

// snapshotRows fixes the order and labels of the metrics table in the
// markdown report. Keys missing from the metrics map render as "-".
var snapshotRows = []struct {
	key   string
	label string
}{
	{"robots_txt_reachable", "robots.txt reachable"},
	{"sitemap_endpoints_reachable", "Sitemap endpoints reachable"},
	{"sitemap_entries", "Sitemap entries collected"},
	{"feed_items_parsed", "Feed items parsed"},
	{"feed_title_coverage", "Feed title coverage"},
	{"feed_link_coverage", "Feed link coverage"},
	{"feed_date_coverage", "Feed date coverage"},
	{"feed_image_coverage", "Feed image coverage"},
	{"newsbreak_risk", "NewsBreak risk"},
	{"articles_sampled", "Articles sampled"},
	{"articles_fetched", "Articles fetched"},
	{"articles_unreachable", "Articles unreachable"},
	{"missing_canonical", "Missing canonical"},
	{"noindex_pages", "Noindex pages"},
	{"missing_jsonld_article", "Missing JSON-LD Article"},
	{"avg_response_size_bytes", "Avg response size (bytes)"},
}

// RenderMarkdown produces the full remediation document: summary list,
// metrics snapshot, the P0/P1/P2 plan, then the static WordPress
// appendices.
func RenderMarkdown(r *audit.Report) string {
	var b strings.Builder

	b.WriteString("# WordPress News Visibility Ops Report\n")
	fmt.Fprintf(&b, "- Site: `%s`\n", r.Site)
	fmt.Fprintf(&b, "- Run ID: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Generated (UTC): `%s`\n", r.GeneratedAt.Format(time.RFC3339))
	b.WriteString("\n## What's Broken / Missing\n")

	if len(r.Findings) == 0 {
		b.WriteString("- No major issues detected in this run.\n")
	} else {
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "- [%s] %s - %s\n", f.Priority, f.Title, f.Evidence)
		}
	}

	b.WriteString("\n## Findings Snapshot\n")
	b.WriteString("| Check | Result |\n|---|---|\n")
	for _, row := range snapshotRows {
		value := r.Metrics[row.key]
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", row.label, value)
	}

	b.WriteString("\n## Remediation Plan\n")
	for _, priority := range []audit.Priority{audit.P0, audit.P1, audit.P2} {
		b.WriteString(prioritySection(r.Findings, priority))
	}

	b.WriteString("\n")
	b.WriteString(pluginFixMatrix)
	b.WriteString("\n")
	b.WriteString(themeSnippets)
	b.WriteString("\n")
	b.WriteString(submissionChecklist(r.Site))

	return b.String()
}

func prioritySection(findings []audit.Finding, priority audit.Priority) string {
	var matches []audit.Finding
	for _, f := range findings {
		if f.Priority == priority {
			matches = append(matches, f)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", priority)
	if len(matches) == 0 {
		b.WriteString("- None detected.\n")
		return b.String()
	}

	for _, f := range matches {
		fmt.Fprintf(&b, "- **%s**\n", f.Title)
		fmt.Fprintf(&b, "  Evidence: %s\n", f.Evidence)
		fmt.Fprintf(&b, "  Fix: %s\n", f.Fix)
	}
	return b.String()
}

// TerminalSummary is the short plain-text digest printed after a run.
func TerminalSummary(result *audit.Result, r *audit.Report) string {
	m := r.Metrics
	counts := r.Counts()

	lines := []string{
		fmt.Sprintf("Site: %s", r.Site),
		fmt.Sprintf("Generated: %s", r.GeneratedAt.Format(time.RFC3339)),
		"",
		"[Discovery]",
		fmt.Sprintf("robots.txt reachable: %s", m["robots_txt_reachable"]),
		fmt.Sprintf("robots.txt potential blockers: %d", len(result.Robots.BlockingRules)),
		fmt.Sprintf("sitemap endpoints reachable: %s", m["sitemap_endpoints_reachable"]),
		"",
		"[Feed]",
		fmt.Sprintf("selected feed: %s", orNone(result.Feed.FeedURL)),
		fmt.Sprintf("items: %s", m["feed_items_parsed"]),
		fmt.Sprintf("fields coverage (title/link/date/image): %s %s %s %s",
			m["feed_title_coverage"], m["feed_link_coverage"], m["feed_date_coverage"], m["feed_image_coverage"]),
		fmt.Sprintf("NewsBreak risk: %s", m["newsbreak_risk"]),
		"",
		"[Articles]",
		fmt.Sprintf("sampled/fetched: %s/%s", m["articles_sampled"], m["articles_fetched"]),
		fmt.Sprintf("missing canonical: %s | canonical mismatch: %s", m["missing_canonical"], m["canonical_mismatch"]),
		fmt.Sprintf("noindex pages: %s", m["noindex_pages"]),
		fmt.Sprintf("missing OG fields (title/type/url/image): %s", m["missing_og_fields"]),
		fmt.Sprintf("missing HTML date: %s", m["missing_date_html"]),
		fmt.Sprintf("missing JSON-LD Article: %s", m["missing_jsonld_article"]),
		"",
		"[Performance]",
		fmt.Sprintf("avg response size bytes: %s", m["avg_response_size_bytes"]),
		fmt.Sprintf("high render-blocking script pages: %s", m["blocking_script_pages"]),
		fmt.Sprintf("huge inline script pages: %s", m["huge_inline_script_pages"]),
		"",
		fmt.Sprintf("Findings: %d P0, %d P1, %d P2", counts[audit.P0], counts[audit.P1], counts[audit.P2]),
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// WriteJSON writes the report payload as indented JSON, creating
// parent directories as needed.
func WriteJSON(path string, r *audit.Report) error {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := writeFile(path, append(payload, '\n')); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Wrote JSON report")
	return nil
}

// WriteMarkdown renders and writes the markdown report, creating
// parent directories as needed.
func WriteMarkdown(path string, r *audit.Report) error {
	if err := writeFile(path, []byte(RenderMarkdown(r))); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Wrote markdown report")
	return nil
}

func writeFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
