// Package safeurl validates and redacts provider URLs. IPTV playback URLs
// embed account credentials in the path, so anything logged goes through
// Redact first.
package safeurl

import (
	"net/url"
	"strings"
)

// IsHTTPOrHTTPS reports whether u parses as an http or https URL. Rejects
// file://, ftp:// and friends so a misconfigured playlist URL can't reach
// local files.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// Redact returns u with query values and all but the first path segment
// masked, keeping enough to identify the host in logs.
func Redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "<invalid url>"
	}
	out := parsed.Scheme + "://" + parsed.Host
	segs := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segs) > 0 && segs[0] != "" {
		out += "/" + segs[0]
		if len(segs) > 1 {
			out += "/…"
		}
	}
	if parsed.RawQuery != "" {
		out += "?…"
	}
	return out
}
