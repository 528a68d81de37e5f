package rest

import "strings"

// SplitPath splits a request path into its ordered non-empty segments.
// A query string, if still attached, is stripped first.
func SplitPath(path string) []string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
