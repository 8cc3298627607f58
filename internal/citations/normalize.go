package citations

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid", "gclid", "msclkid",
}

// NormalizeURL returns the deduplication key for rawURL:
// - lowercase scheme and host, port 80/443 and leading "www." dropped
// - fragment removed
// - tracking query parameters (utm_*, fbclid, gclid, msclkid) removed
// - trailing slash removed from the path
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	parsed.Host = strings.TrimPrefix(host, "www.")
	parsed.Fragment = ""
	parsed.RawFragment = ""

	if parsed.RawQuery != "" {
		q := parsed.Query()
		for _, p := range trackingParams {
			q.Del(p)
		}
		parsed.RawQuery = q.Encode()
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	parsed.RawPath = ""

	return parsed.String(), nil
}

// ExtractDomain returns the lowercase host of rawURL without port or a
// leading "www.", preserving other subdomains.
// Example: "https://blog.example.com/path" -> "blog.example.com"
func ExtractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www."), nil
}

// cleanMatchedURL strips prose artefacts from a URL matched in free text:
// trailing punctuation, closing brackets, <url> tag residue and anything
// after the first non-ASCII byte (e.g. CJK parentheses glued to the URL).
func cleanMatchedURL(raw string) string {
	raw = trimNonASCIISuffix(raw)
	for {
		before := raw
		raw = strings.TrimRight(raw, ",.;:!?'\"*>")
		raw = stripURLTagSuffix(raw)
		raw = trimUnbalancedClosers(raw)
		if raw == before {
			return raw
		}
	}
}

// trimUnbalancedClosers drops a trailing ")" or "]" or "}" only when it has
// no opening partner inside the URL, so Wikipedia-style paths such as
// /wiki/Foo_(bar) survive.
func trimUnbalancedClosers(s string) string {
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}
	for len(s) > 0 {
		last := s[len(s)-1]
		open, ok := pairs[last]
		if !ok {
			return s
		}
		if strings.Count(s, string(open)) >= strings.Count(s, string(last)) {
			return s
		}
		s = s[:len(s)-1]
	}
	return s
}

func stripURLTagSuffix(s string) string {
	suffixes := []string{"</url>", "</url", "%3c/url%3e", "%3c/url", "&lt;/url&gt;", "&lt;/url&gt", "&lt;/url"}
	for {
		before := s
		for _, suf := range suffixes {
			if strings.HasSuffix(strings.ToLower(s), suf) {
				s = s[:len(s)-len(suf)]
			}
		}
		if s == before {
			return s
		}
	}
}

func trimNonASCIISuffix(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return s[:i]
		}
	}
	return s
}

var skippedExtensions = map[string]bool{
	".css": true, ".js": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".svg": true, ".ico": true, ".woff": true, ".woff2": true,
	".webp": true, ".mp4": true, ".xml": true, ".txt": true, ".zip": true,
}

// usableURL reports whether raw is an absolute http(s) URL worth citing:
// it has a host with a dot and does not point at a static asset, sitemap
// or robots file.
func usableURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" || !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return false
	}
	p := strings.ToLower(u.Path)
	if strings.Contains(p, "sitemap") || strings.HasSuffix(p, "/robots.txt") {
		return false
	}
	return !skippedExtensions[path.Ext(p)]
}
