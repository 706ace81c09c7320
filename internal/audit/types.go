package audit

import (
	"time"

	"github.com/msnewsgroup/newsaudit/internal/article"
	"github.com/msnewsgroup/newsaudit/internal/discovery"
	"github.com/msnewsgroup/newsaudit/internal/feed"
)

// Priority ranks a finding by how hard it blocks aggregator ingestion:
// P0 blocks entirely, P1 materially degrades quality, P2 is cosmetic.
type Priority string

const (
	P0 Priority = "P0"
	P1 Priority = "P1"
	P2 Priority = "P2"
)

// Category groups findings by the audit area that produced them.
type Category string

const (
	CategoryDiscovery   Category = "discovery"
	CategoryFeed        Category = "feed"
	CategorySchema      Category = "schema"
	CategoryPerformance Category = "performance"
)

// Finding is a single remediation item. Findings are pure derived
// facts with no identity beyond content; the aggregator deduplicates
// by title within a run.
type Finding struct {
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Evidence string   `json:"evidence"`
	Fix      string   `json:"fix"`
	Category Category `json:"category"`
}

// Result is the raw outcome of one audit run before synthesis: each
// pipeline stage's output, untouched. Nothing here survives past the
// run.
type Result struct {
	Site    string                `json:"site"`
	RunID   string                `json:"run_id"`
	Robots  *discovery.RobotsInfo `json:"robots"`
	Sitemap *discovery.WalkResult `json:"-"`
	Feed    *feed.Summary         `json:"feed"`
	Samples []article.Sample      `json:"samples"`

	SitemapEntries    int `json:"sitemap_entries"`
	SitemapReferenced int `json:"sitemap_referenced"`
	SitemapReachable  int `json:"sitemap_reachable"`
}

// Report is the single top-level audit artifact: metrics plus
// priority-ordered findings. Immutable once synthesized.
type Report struct {
	Site        string            `json:"site"`
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Metrics     map[string]string `json:"metrics"`
	Findings    []Finding         `json:"findings"`
}

// Counts returns how many findings sit in each priority tier.
func (r *Report) Counts() map[Priority]int {
	counts := map[Priority]int{P0: 0, P1: 0, P2: 0}
	for _, f := range r.Findings {
		counts[f.Priority]++
	}
	return counts
}
