package verifier

import (
	"net/url"
	"strings"
)

// PageIdentity names which logical page a location belongs to, independent
// of how the URL string is formatted.
type PageIdentity int

const (
	PageUnknown PageIdentity = iota
	PageHome
	PageAbout
)

// String returns the page name used in logs and metrics.
func (p PageIdentity) String() string {
	switch p {
	case PageHome:
		return "home"
	case PageAbout:
		return "about"
	default:
		return "unknown"
	}
}

// Targets holds the URL each page is loaded from.
type Targets struct {
	Home  string
	About string
}

// URL returns the target URL of page.
func (t Targets) URL(page PageIdentity) (string, bool) {
	switch page {
	case PageHome:
		return t.Home, t.Home != ""
	case PageAbout:
		return t.About, t.About != ""
	default:
		return "", false
	}
}

// Classify maps a location to the page it shows. Scheme and host compare
// case-insensitively, default ports and a trailing slash are ignored, so
// "https://xkcd.com/about" and "https://xkcd.com/about/" are both PageAbout.
func (t Targets) Classify(location string) PageIdentity {
	key, ok := normalize(location)
	if !ok {
		return PageUnknown
	}
	for _, page := range []PageIdentity{PageHome, PageAbout} {
		target, _ := t.URL(page)
		if tk, ok := normalize(target); ok && tk == key {
			return page
		}
	}
	return PageUnknown
}

// normalize reduces a URL to the parts that decide page identity.
func normalize(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	key := scheme + "://" + host + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key, true
}
