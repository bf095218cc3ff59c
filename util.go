package iclient

import (
	"net/url"
	"strings"
)

// URLPathAppend joins segment onto the path of base with exactly one separator.
// A query string on base is kept after the joined path.
func URLPathAppend(base, segment string) string {
	if segment == "" {
		return base
	}
	path, query, hasQuery := strings.Cut(base, "?")
	joined := strings.TrimRight(path, "/") + "/" + strings.TrimLeft(segment, "/")
	if hasQuery {
		return joined + "?" + query
	}
	return joined
}

// URLAppend appends an already-encoded query fragment to base.
func URLAppend(base, query string) string {
	if query == "" {
		return base
	}
	switch {
	case !strings.Contains(base, "?"):
		return base + "?" + query
	case strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&"):
		return base + query
	default:
		return base + "&" + query
	}
}

// appendFormatSuffix inserts the .json resource representation before the query string.
func appendFormatSuffix(raw string) string {
	path, query, hasQuery := strings.Cut(raw, "?")
	if strings.HasSuffix(path, ".json") {
		return raw
	}
	path = strings.TrimRight(path, "/") + ".json"
	if hasQuery {
		return path + "?" + query
	}
	return path
}

// encodeURIComponent escapes like the browser function of the same name.
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, keep := range []string{"!", "'", "(", ")", "*", "~"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(keep), keep)
	}
	return escaped
}

// BoolPtr is a convenience helper for optional boolean fields.
func BoolPtr(b bool) *bool { return &b }
