package utils

import (
	"net/url"
	"strings"
)

// NormalizeLink reduces a link or bare domain to its lower-cased host and
// path without scheme, "www." prefix and trailing slash.
func NormalizeLink(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimPrefix(strings.TrimPrefix(s, "http://"), "https://"), "/")
	}
	host := strings.TrimPrefix(u.Host, "www.")
	return strings.TrimRight(host+u.EscapedPath(), "/")
}

// SplitList splits comma or newline separated admin input into trimmed,
// lower-cased, de-duplicated items.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
