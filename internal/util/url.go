package util

import (
	"fmt"
	"net/url"
	"strings"
)

// NormaliseSite validates a site URL and normalises it to
// scheme://host/ form with a trailing slash. A missing scheme
// defaults to https.
func NormaliseSite(site string) (string, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return "", fmt.Errorf("site URL cannot be empty")
	}

	if !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
		site = "https://" + site
	}

	parsed, err := url.Parse(site)
	if err != nil {
		return "", fmt.Errorf("invalid site URL %q: %w", site, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid site URL %q: missing host", site)
	}

	return parsed.Scheme + "://" + strings.ToLower(parsed.Host) + "/", nil
}

// ResolveRef resolves a possibly relative href against a base URL.
// Returns "" when either side fails to parse.
func ResolveRef(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return baseURL.ResolveReference(refURL).String()
}

// SameHost reports whether rawURL is on the site's host or a subdomain of it.
func SameHost(rawURL, site string) bool {
	target, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	base, err := url.Parse(site)
	if err != nil {
		return false
	}

	targetHost := strings.ToLower(target.Host)
	baseHost := strings.ToLower(base.Host)
	if targetHost == "" || baseHost == "" {
		return false
	}

	return targetHost == baseHost || strings.HasSuffix(targetHost, "."+baseHost)
}

// CanonicalKey reduces a URL to scheme+host+path with the trailing slash
// removed, for deduplication. Query strings and fragments are ignored.
func CanonicalKey(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	path := parsed.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}

	return parsed.Scheme + "://" + strings.ToLower(parsed.Host) + path
}

// URLsEquivalent compares two URLs by host and path only, ignoring
// scheme, query, fragment and trailing slashes. Used to decide whether
// a declared canonical URL actually points at the page it sits on.
func URLsEquivalent(a, b string) bool {
	hostA, pathA := hostAndPath(a)
	hostB, pathB := hostAndPath(b)

	if hostA != "" && hostB != "" && hostA != hostB {
		return false
	}
	return pathA == pathB
}

func hostAndPath(rawURL string) (string, string) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", rawURL
	}

	path := parsed.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}

	return strings.ToLower(parsed.Host), path
}
