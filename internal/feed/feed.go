package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/msnewsgroup/newsaudit/internal/fetcher"
	"github.com/msnewsgroup/newsaudit/internal/util"
)

// Item is one feed entry, RSS item or Atom entry alike. Ordering of
// items follows document order, which downstream sampling relies on
// for "most recent N" semantics.
type Item struct {
	Title         string `json:"title,omitempty"`
	Link          string `json:"link,omitempty"`
	PubDate       string `json:"pub_date,omitempty"`
	ContentLength int    `json:"content_length"`
	HasImage      bool   `json:"has_image"`
	LooksExcerpt  bool   `json:"looks_excerpt"`
	FullContent   bool   `json:"full_content"`
}

// Summary is the derived view of the selected feed. Never mutated
// after Analyze returns it.
type Summary struct {
	FeedURL        string   `json:"feed_url,omitempty"`
	CandidateURLs  []string `json:"candidate_urls"`
	Reachable      bool     `json:"reachable"`
	ParseError     string   `json:"parse_error,omitempty"`
	ItemCount      int      `json:"item_count"`
	TitleCoverage  int      `json:"title_coverage"`
	LinkCoverage   int      `json:"link_coverage"`
	DateCoverage   int      `json:"date_coverage"`
	ImageCoverage  int      `json:"image_coverage"`
	ExcerptLike    int      `json:"excerpt_like"`
	AvgContentLen  float64  `json:"avg_content_length"`
	MedianContent  int      `json:"median_content_length"`
	IsExcerptOnly  bool     `json:"is_excerpt_only"`
	NewsBreakRisk  bool     `json:"newsbreak_risk"`
	RiskReasons    []string `json:"newsbreak_risk_reasons,omitempty"`
	Items          []Item   `json:"items"`
}

// excerptMarkers are phrases WordPress themes append to truncated
// feed content.
var excerptMarkers = []string{"continue reading", "read more", "[...]", "…"}

// DiscoverFeedURLs returns candidate feed URLs for the site: the
// conventional WordPress /feed/ endpoint plus any alternate links
// advertised on the homepage. Sorted for a deterministic check order.
func DiscoverFeedURLs(ctx context.Context, client *fetcher.Client, site string) []string {
	seen := map[string]bool{util.ResolveRef(site, "feed/"): true}

	home := client.Fetch(ctx, site)
	if home.OK() {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(home.Body))
		if err == nil {
			doc.Find("link[rel~='alternate']").Each(func(i int, s *goquery.Selection) {
				mime := strings.ToLower(s.AttrOr("type", ""))
				href := strings.TrimSpace(s.AttrOr("href", ""))
				if href == "" {
					return
				}
				if strings.Contains(mime, "rss+xml") || strings.Contains(mime, "atom+xml") {
					if resolved := util.ResolveRef(site, href); resolved != "" {
						seen[resolved] = true
					}
				}
			})
		}
	} else {
		log.Debug().
			Str("site", site).
			Str("error", home.Error).
			Int("status", home.StatusCode).
			Msg("Homepage unavailable for feed discovery, using /feed/ only")
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Analyze discovers and parses the site's feed, returning the derived
// Summary. A malformed or unreachable feed yields an empty Summary
// with Reachable false; the audit layer turns that into a P0 finding.
func Analyze(ctx context.Context, client *fetcher.Client, site string, excerptThreshold int) *Summary {
	candidates := DiscoverFeedURLs(ctx, client, site)

	summary := &Summary{
		CandidateURLs: candidates,
		Items:         []Item{},
		RiskReasons:   []string{},
	}

	var lastErr string
	for _, feedURL := range candidates {
		res := client.Fetch(ctx, feedURL)
		if !res.OK() {
			lastErr = fmt.Sprintf("status %d %s", res.StatusCode, res.Error)
			continue
		}

		items, err := parseFeedXML(res.Body)
		if err != nil {
			log.Debug().Err(err).Str("url", feedURL).Msg("Feed candidate failed to parse")
			lastErr = err.Error()
			continue
		}
		if len(items) == 0 {
			lastErr = "feed parsed but contained no items"
			continue
		}

		summary.FeedURL = feedURL
		summary.Reachable = true
		summary.Items = items
		break
	}

	if !summary.Reachable {
		summary.ParseError = lastErr
		summary.NewsBreakRisk = true
		summary.RiskReasons = append(summary.RiskReasons, "No valid feed items were found.")
		return summary
	}

	summarise(summary, excerptThreshold)

	log.Debug().
		Str("feed_url", summary.FeedURL).
		Int("items", summary.ItemCount).
		Bool("excerpt_only", summary.IsExcerptOnly).
		Bool("newsbreak_risk", summary.NewsBreakRisk).
		Msg("Feed analysis complete")

	return summary
}

func summarise(s *Summary, excerptThreshold int) {
	s.ItemCount = len(s.Items)

	lengths := make([]int, 0, s.ItemCount)
	totalLen := 0
	anyFullContent := false

	for _, item := range s.Items {
		if item.Title != "" {
			s.TitleCoverage++
		}
		if item.Link != "" {
			s.LinkCoverage++
		}
		if item.PubDate != "" {
			s.DateCoverage++
		}
		if item.HasImage {
			s.ImageCoverage++
		}
		if item.LooksExcerpt {
			s.ExcerptLike++
		}
		if item.FullContent {
			anyFullContent = true
		}
		lengths = append(lengths, item.ContentLength)
		totalLen += item.ContentLength
	}

	s.AvgContentLen = float64(totalLen) / float64(s.ItemCount)
	s.MedianContent = median(lengths)
	s.IsExcerptOnly = s.MedianContent < excerptThreshold && !anyFullContent

	imageRatio := float64(s.ImageCoverage) / float64(s.ItemCount)
	excerptRatio := float64(s.ExcerptLike) / float64(s.ItemCount)

	if imageRatio < 0.7 {
		s.NewsBreakRisk = true
		s.RiskReasons = append(s.RiskReasons, "Feed items often do not include images.")
	}
	if excerptRatio > 0.5 || s.AvgContentLen < float64(excerptThreshold) {
		s.NewsBreakRisk = true
		s.RiskReasons = append(s.RiskReasons, "Feed content appears excerpt-only.")
	}
}

func median(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// contentStats strips tags from a content fragment and reports text
// length in runes, inline image presence, and excerpt markers. Rune
// counting keeps the excerpt threshold meaningful for non-ASCII feeds.
func contentStats(html string) (length int, hasImage bool, looksExcerpt bool) {
	if strings.TrimSpace(html) == "" {
		return 0, false, false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Treat an unparsable fragment as opaque text.
		text := strings.TrimSpace(html)
		return utf8.RuneCountInString(text), false, containsExcerptMarker(text)
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	hasImage = doc.Find("img").Length() > 0
	return utf8.RuneCountInString(text), hasImage, containsExcerptMarker(text)
}

func containsExcerptMarker(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range excerptMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

var imageSuffixes = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif"}

func looksLikeImageURL(rawURL string) bool {
	lowered := strings.ToLower(strings.TrimSpace(rawURL))
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(lowered, suffix) {
			return true
		}
	}
	return false
}

// linkText accumulates the first usable value across repeated <link>
// elements: element text for RSS, href attribute for Atom.
type linkText struct {
	value string
}

func (l *linkText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var href string
	for _, attr := range start.Attr {
		if attr.Name.Local == "href" {
			href = strings.TrimSpace(attr.Value)
		}
	}

	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}

	candidate := strings.TrimSpace(text)
	if candidate == "" {
		candidate = href
	}
	if l.value == "" && candidate != "" {
		l.value = candidate
	}
	return nil
}

type mediaRef struct {
	URL  string `xml:"url,attr"`
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

func (m mediaRef) isImage() bool {
	if strings.HasPrefix(strings.ToLower(m.Type), "image/") {
		return true
	}
	if m.URL != "" && looksLikeImageURL(m.URL) {
		return true
	}
	return m.Href != "" && looksLikeImageURL(m.Href)
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string     `xml:"title"`
	Link        linkText   `xml:"link"`
	PubDate     string     `xml:"pubDate"`
	DCDate      string     `xml:"date"`
	Encoded     string     `xml:"encoded"`
	Description string     `xml:"description"`
	Enclosures  []mediaRef `xml:"enclosure"`
	Media       []mediaRef `xml:"content"`
	Thumbnails  []mediaRef `xml:"thumbnail"`
}

type atomDocument struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string   `xml:"title"`
	Links     linkText `xml:"link"`
	Published string   `xml:"published"`
	Updated   string   `xml:"updated"`
	Content   string   `xml:"content"`
	Summary   string   `xml:"summary"`
}

// parseFeedXML parses an RSS 2.0 or Atom document into items. The
// returned error covers the document level only; individual items
// degrade to empty fields rather than failing the parse.
func parseFeedXML(body []byte) ([]Item, error) {
	root, err := rootElement(body)
	if err != nil {
		return nil, fmt.Errorf("feed is not valid XML: %w", err)
	}

	switch root {
	case "rss":
		var doc rssDocument
		if err := xml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
		}
		items := make([]Item, 0, len(doc.Channel.Items))
		for _, raw := range doc.Channel.Items {
			items = append(items, rssToItem(raw))
		}
		return items, nil

	case "feed":
		var doc atomDocument
		if err := xml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse Atom feed: %w", err)
		}
		items := make([]Item, 0, len(doc.Entries))
		for _, raw := range doc.Entries {
			items = append(items, atomToItem(raw))
		}
		return items, nil

	default:
		return nil, fmt.Errorf("unsupported feed root element: %s", root)
	}
}

func rssToItem(raw rssItem) Item {
	content := raw.Encoded
	fullContent := strings.TrimSpace(raw.Encoded) != ""
	if !fullContent {
		content = raw.Description
	}

	pubDate := strings.TrimSpace(raw.PubDate)
	if pubDate == "" {
		pubDate = strings.TrimSpace(raw.DCDate)
	}

	length, inlineImage, looksExcerpt := contentStats(content)

	hasImage := inlineImage
	for _, refs := range [][]mediaRef{raw.Enclosures, raw.Media, raw.Thumbnails} {
		for _, ref := range refs {
			if ref.isImage() {
				hasImage = true
			}
		}
	}

	return Item{
		Title:         strings.TrimSpace(raw.Title),
		Link:          raw.Link.value,
		PubDate:       pubDate,
		ContentLength: length,
		HasImage:      hasImage,
		LooksExcerpt:  looksExcerpt,
		FullContent:   fullContent,
	}
}

func atomToItem(raw atomEntry) Item {
	content := raw.Content
	fullContent := strings.TrimSpace(raw.Content) != ""
	if !fullContent {
		content = raw.Summary
	}

	pubDate := strings.TrimSpace(raw.Published)
	if pubDate == "" {
		pubDate = strings.TrimSpace(raw.Updated)
	}

	length, inlineImage, looksExcerpt := contentStats(content)

	return Item{
		Title:         strings.TrimSpace(raw.Title),
		Link:          raw.Links.value,
		PubDate:       pubDate,
		ContentLength: length,
		HasImage:      inlineImage,
		LooksExcerpt:  looksExcerpt,
		FullContent:   fullContent,
	}
}

func rootElement(body []byte) (string, error) {
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
