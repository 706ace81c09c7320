package report

import "fmt"

// Static appendices attached to every markdown report. The fix matrix
// covers the three dominant WordPress SEO plugins plus plugin-agnostic
// admin areas; keeping it inline avoids shipping doc files alongside
// the binary.

const pluginFixMatrix = `## Exact WordPress Fixes
### Rank Math
- ` + "`Rank Math -> Titles & Meta -> Posts`" + `: set Robots Meta to ` + "`index`" + `, enable canonical defaults.
- ` + "`Rank Math -> Sitemap Settings`" + `: enable XML sitemap and include Posts; enable News Sitemap if available in your plan.
- ` + "`Rank Math -> General Settings -> Social Meta`" + `: enable Open Graph and set fallback image.
- ` + "`Rank Math -> Schema (per post type)`" + `: map Posts to ` + "`Article`" + ` or ` + "`NewsArticle`" + ` and ensure author/publisher are set.

### Yoast SEO
- ` + "`SEO -> Search Appearance -> Content Types -> Posts`" + `: set Show in search results = ` + "`Yes`" + `.
- ` + "`SEO -> Settings -> Site features`" + `: ensure XML sitemaps are ` + "`On`" + `.
- ` + "`SEO -> Social`" + `: enable Open Graph meta data and set default image.
- ` + "`SEO -> Search Appearance`" + `: verify schema output remains enabled for posts.

### All in One SEO (AIOSEO)
- ` + "`AIOSEO -> Search Appearance -> Content Types -> Posts`" + `: set Robots = ` + "`Index`" + ` and enable canonical URL output.
- ` + "`AIOSEO -> Sitemaps`" + `: enable XML sitemap; enable News sitemap module if available.
- ` + "`AIOSEO -> Social Networks`" + `: enable Open Graph and default post image source = featured image.
- ` + "`AIOSEO -> Schema`" + `: set default post schema to ` + "`Article`" + ` or ` + "`NewsArticle`" + `.

### Plugin-Agnostic WP Admin Areas
- ` + "`Settings -> Reading`" + `: set ` + "`For each post in a feed, include`" + ` to ` + "`Full text`" + `.
- ` + "`Settings -> Permalinks`" + `: keep stable post permalinks and avoid frequent structure changes.
- Theme check: confirm ` + "`wp_head()`" + ` exists in ` + "`header.php`" + ` and ` + "`wp_footer()`" + ` in footer template.
`

const themeSnippets = `## Theme Snippets (Minimal PHP)
` + "```php" + `
<?php
// 1) Canonical fallback in header.php (if SEO plugin is missing canonical output).
if (is_single()) {
    echo '<link rel="canonical" href="' . esc_url(get_permalink()) . '" />' . PHP_EOL;
}
` + "```" + `

` + "```php" + `
<?php
// 2) Publish/modified dates in single.php.
if (is_single()) :
    $published = get_the_date('c');
    $modified = get_the_modified_date('c');
    ?>
    <p class="post-dates">
        Published <time datetime="<?php echo esc_attr($published); ?>"><?php echo esc_html(get_the_date()); ?></time>
        | Updated <time datetime="<?php echo esc_attr($modified); ?>"><?php echo esc_html(get_the_modified_date()); ?></time>
    </p>
<?php endif; ?>
` + "```" + `

` + "```php" + `
<?php
// 3) Ensure featured image is available for OG image generation.
if (is_single() && !has_post_thumbnail()) {
    // Optional: set or prompt for a default featured image workflow.
}
` + "```" + `
`

func submissionChecklist(site string) string {
	return fmt.Sprintf(`## Submission Checklist
- Google Search Console
  - Verify property for `+"`%s`"+`.
  - Submit primary XML sitemap (core or plugin sitemap URL).
  - Use URL Inspection on fresh articles and request indexing when needed.
  - In Publisher Center, maintain publication details and section URLs.
- Bing Webmaster Tools
  - Verify site and submit sitemap URL(s).
  - Check crawl controls, URL inspection, and indexing reports.
  - Confirm RSS/feed URLs are crawlable and return full content.
- NewsBreak Feed Submission
  - Submit the native WordPress feed URL (`+"`/feed/`"+` or category feed if required).
  - Ensure feed items include full content, dates, canonical links, and images.
  - Re-test feed validity after every major plugin/theme update.
`, site)
}
