package urlutil

import (
	"regexp"
	"strings"
)

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// NormalizeBaseURL trims whitespace and guarantees a single trailing slash so relative
// paths can be appended directly.
func NormalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// NormalizeHost prefixes https:// when no http(s) scheme is present and strips trailing
// slashes. "auth.example.com" and "https://auth.example.com/" both become
// "https://auth.example.com".
func NormalizeHost(host string) string {
	h := strings.TrimSpace(host)
	if h == "" {
		return ""
	}
	if !schemePattern.MatchString(h) {
		h = "https://" + h
	}
	return strings.TrimRight(h, "/")
}

// JoinPath appends a relative path to a base URL. The base gets a trailing slash first and
// leading slashes are dropped from path.
func JoinPath(base, path string) string {
	base = NormalizeBaseURL(base)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return base + strings.TrimLeft(path, "/")
}
