package discovery

import (
	"bytes"
	"context"
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/msnewsgroup/newsaudit/internal/fetcher"
	"github.com/msnewsgroup/newsaudit/internal/util"
)

// wellKnownSitemapPaths are the endpoints WordPress installs typically
// expose, probed in addition to robots.txt Sitemap lines.
var wellKnownSitemapPaths = []string{
	"sitemap.xml",
	"sitemap_index.xml",
	"wp-sitemap.xml",
	"news-sitemap.xml",
}

// Entry is a single page reference extracted from a sitemap urlset.
type Entry struct {
	URL     string    `json:"url"`
	LastMod time.Time `json:"last_mod,omitzero"`
}

// WalkOptions bound the sitemap walk.
type WalkOptions struct {
	MaxDepth int // How many levels of sitemap-of-sitemaps to follow
	MaxURLs  int // Stop collecting entries past this count
}

// WalkResult is the outcome of walking all referenced sitemap documents.
type WalkResult struct {
	Entries    []Entry
	Referenced int // Sitemap documents we attempted to fetch
	Reachable  int // Of those, how many fetched and parsed
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []urlRef `xml:"url"`
}

type urlRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// SitemapCandidates merges robots.txt Sitemap lines with the well-known
// WordPress endpoints, preserving order and dropping duplicates.
func SitemapCandidates(site string, fromRobots []string) []string {
	var candidates []string
	seen := make(map[string]bool)

	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			candidates = append(candidates, u)
		}
	}

	for _, u := range fromRobots {
		add(u)
	}
	for _, path := range wellKnownSitemapPaths {
		add(util.ResolveRef(site, path))
	}

	return candidates
}

// WalkSitemaps fetches each sitemap URL, recursing into sitemap-index
// documents while depth budget remains. A single malformed or
// unreachable sitemap never aborts the walk; partial results are
// returned along with reachable/referenced counts.
func WalkSitemaps(ctx context.Context, client *fetcher.Client, sitemapURLs []string, opts WalkOptions) *WalkResult {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 2
	}
	if opts.MaxURLs <= 0 {
		opts.MaxURLs = 500
	}

	result := &WalkResult{}
	for _, sitemapURL := range sitemapURLs {
		walkOne(ctx, client, sitemapURL, 1, opts, result)
	}

	log.Debug().
		Int("entries", len(result.Entries)).
		Int("reachable", result.Reachable).
		Int("referenced", result.Referenced).
		Msg("Finished sitemap walk")

	return result
}

func walkOne(ctx context.Context, client *fetcher.Client, sitemapURL string, depth int, opts WalkOptions, result *WalkResult) {
	if len(result.Entries) >= opts.MaxURLs {
		return
	}

	result.Referenced++

	res := client.Fetch(ctx, sitemapURL)
	if !res.OK() {
		log.Debug().
			Str("url", sitemapURL).
			Int("status", res.StatusCode).
			Str("error", res.Error).
			Msg("Sitemap unreachable")
		return
	}

	index, set, err := parseSitemapDocument(res.Body)
	if err != nil {
		log.Debug().Err(err).Str("url", sitemapURL).Msg("Malformed sitemap document")
		return
	}

	result.Reachable++

	if index != nil {
		if depth >= opts.MaxDepth {
			log.Debug().
				Str("url", sitemapURL).
				Int("depth", depth).
				Msg("Sitemap index found at depth budget, not recursing")
			return
		}
		for _, ref := range index.Sitemaps {
			child := util.ResolveRef(sitemapURL, ref.Loc)
			if child == "" {
				continue
			}
			walkOne(ctx, client, child, depth+1, opts, result)
			if len(result.Entries) >= opts.MaxURLs {
				return
			}
		}
		return
	}

	for _, ref := range set.URLs {
		loc := util.ResolveRef(sitemapURL, ref.Loc)
		if loc == "" {
			continue
		}
		result.Entries = append(result.Entries, Entry{
			URL:     loc,
			LastMod: parseLastMod(ref.LastMod),
		})
		if len(result.Entries) >= opts.MaxURLs {
			return
		}
	}
}

// parseSitemapDocument distinguishes a sitemap index from a urlset by
// its root element. Exactly one of the returns is non-nil on success.
func parseSitemapDocument(body []byte) (*sitemapIndex, *urlSet, error) {
	root, err := rootElementName(body)
	if err != nil {
		return nil, nil, err
	}

	if root == "sitemapindex" {
		var index sitemapIndex
		if err := xml.Unmarshal(body, &index); err != nil {
			return nil, nil, err
		}
		return &index, nil, nil
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, nil, err
	}
	return nil, &set, nil
}

func rootElementName(body []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}
		if start, ok := token.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

var lastModLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

func parseLastMod(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range lastModLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SortByLastModDesc orders entries newest-first, keeping the original
// order among entries without a usable lastmod.
func SortByLastModDesc(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastMod.After(sorted[j].LastMod)
	})

	return sorted
}
