package discovery

import (
	"bufio"
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/msnewsgroup/newsaudit/internal/fetcher"
	"github.com/msnewsgroup/newsaudit/internal/util"
)

// newsPathPrefixes are the discovery paths aggregators depend on. A
// Disallow rule touching any of these is flagged as potentially blocking.
var newsPathPrefixes = []string{
	"/feed",
	"/sitemap",
	"/wp-sitemap",
	"/news-sitemap",
	"/sitemaps",
}

// RobotsInfo holds what robots.txt told us about the site.
type RobotsInfo struct {
	URL           string   `json:"url"`
	Reachable     bool     `json:"reachable"`
	StatusCode    int      `json:"status_code"`
	FetchError    string   `json:"fetch_error,omitempty"`
	SitemapURLs   []string `json:"sitemap_urls"`
	DisallowRules []string `json:"disallow_rules"`
	BlockingRules []string `json:"blocking_rules"`
}

// DiscoverRobots fetches and parses the site's robots.txt. A missing or
// non-200 robots.txt is not fatal: the result simply reports Reachable
// false and the audit layer raises a finding.
func DiscoverRobots(ctx context.Context, client *fetcher.Client, site string) *RobotsInfo {
	robotsURL := util.ResolveRef(site, "robots.txt")

	res := client.Fetch(ctx, robotsURL)
	info := &RobotsInfo{
		URL:           robotsURL,
		StatusCode:    res.StatusCode,
		FetchError:    res.Error,
		SitemapURLs:   []string{},
		DisallowRules: []string{},
		BlockingRules: []string{},
	}

	if !res.OK() {
		log.Debug().
			Str("url", robotsURL).
			Int("status", res.StatusCode).
			Str("error", res.Error).
			Msg("robots.txt unreachable")
		return info
	}

	info.Reachable = true
	parseRobotsContent(string(res.Body), info)

	log.Debug().
		Str("url", robotsURL).
		Int("sitemaps", len(info.SitemapURLs)).
		Int("disallow_rules", len(info.DisallowRules)).
		Int("blocking_rules", len(info.BlockingRules)).
		Msg("Parsed robots.txt")

	return info
}

// parseRobotsContent applies the line-oriented robots.txt grammar:
// case-insensitive directive names, # comments (inline included),
// Sitemap lines collected in document order.
func parseRobotsContent(content string, info *RobotsInfo) {
	scanner := bufio.NewScanner(strings.NewReader(content))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "disallow":
			info.DisallowRules = append(info.DisallowRules, value)
		case "sitemap":
			if value != "" {
				info.SitemapURLs = append(info.SitemapURLs, value)
			}
		}
	}

	info.BlockingRules = blockingRules(info.DisallowRules)
}

// blockingRules returns the subset of disallow rules that could hide
// feeds or sitemaps from aggregator crawlers, sorted and deduplicated.
func blockingRules(disallow []string) []string {
	seen := make(map[string]bool)

	for _, rule := range disallow {
		clean := strings.TrimSpace(rule)
		if clean == "" {
			continue
		}
		if clean == "/" {
			seen[clean] = true
			continue
		}
		if strings.HasPrefix(clean, "/?") {
			if strings.Contains(clean, "/?feed") || strings.Contains(clean, "/?sitemap") {
				seen[clean] = true
			}
			continue
		}
		for _, prefix := range newsPathPrefixes {
			if clean == prefix || strings.HasPrefix(clean, prefix+"/") {
				seen[clean] = true
				break
			}
		}
	}

	rules := make([]string, 0, len(seen))
	for rule := range seen {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	return rules
}
