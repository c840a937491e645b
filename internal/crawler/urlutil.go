package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL string so identical resources
// deduplicate to the same key. A missing scheme defaults to https, the
// host is lowercased, and any fragment is stripped. Path, query, and
// params are left untouched.
//
// The normalized string is the dedup key for the visited set: two URLs
// differing only by host case or fragment normalize identically.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	return u.String(), nil
}

// skipExtensions lists path suffixes that identify non-HTML resources.
// URLs ending in one of these are never fetched: documents, archives,
// executables, images, audio/video, and already-typed text resources.
var skipExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".zip", ".tar", ".gz", ".rar", ".exe", ".dmg",
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg",
	".mp3", ".mp4", ".avi", ".mov", ".wmv",
	".css", ".js", ".xml", ".rss", ".json",
}

// Scope decides whether a discovered URL is eligible for fetching.
// It checks the scheme, the allowed-domain set, and the file-extension
// deny list. Domain matching is exact: subdomains must be listed
// explicitly.
type Scope struct {
	// allowedHosts is the set of hosts eligible for crawling,
	// lowercased. Ports are part of the host string.
	allowedHosts map[string]struct{}
}

// NewScope creates a Scope allowing exactly the given hosts.
func NewScope(hosts []string) *Scope {
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			allowed[h] = struct{}{}
		}
	}
	return &Scope{allowedHosts: allowed}
}

// Allows reports whether the given normalized URL may be fetched.
// Invalid URLs are out of scope rather than an error; the caller
// simply never crawls them.
func (s *Scope) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if _, ok := s.allowedHosts[strings.ToLower(u.Host)]; !ok {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	return true
}
