package rest

import (
	"fmt"
	"strings"
	"sync"
)

// PathRegistry is the default Registry: an explicit mapping from slash
// patterns to resources, selected by ordinary matching rather than any
// runtime type machinery. Patterns are sequences of literal segments and
// "{name}" placeholders; a placeholder matches any single segment.
//
// Resolution requires the same segment count and prefers the candidate
// with the most literal matches, so "/users/self" beats "/users/{id}"
// for GET /users/self.
//
// Registration typically happens once at startup; resolution is called
// concurrently by all in-flight exchanges and takes only a read lock.
type PathRegistry struct {
	mu      sync.RWMutex
	entries []registryEntry
}

type registryEntry struct {
	pattern  []string
	resource Resource
}

// NewPathRegistry creates an empty registry.
func NewPathRegistry() *PathRegistry {
	return &PathRegistry{}
}

// Add registers a resource under a pattern, e.g. "/users/{id}/avatar".
// Registering the same pattern twice is a programming error.
func (r *PathRegistry) Add(pattern string, resource Resource) error {
	if resource == nil {
		return fmt.Errorf("nil resource for pattern %q", pattern)
	}
	segments := SplitPath(pattern)
	if len(segments) == 0 {
		return fmt.Errorf("empty pattern %q", pattern)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if samePattern(entry.pattern, segments) {
			return fmt.Errorf("pattern %q already registered", pattern)
		}
	}
	r.entries = append(r.entries, registryEntry{pattern: segments, resource: resource})
	return nil
}

// Resolve returns the best-matching resource for the path segments, or
// nil when nothing matches. The method does not narrow resolution at
// this level; method selection is the resource's concern.
func (r *PathRegistry) Resolve(segments []string, _ Method) Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best Resource
	bestScore := -1
	for _, entry := range r.entries {
		score, ok := matchPattern(entry.pattern, segments)
		if ok && score > bestScore {
			best = entry.resource
			bestScore = score
		}
	}
	return best
}

// matchPattern reports whether segments match the pattern, and how many
// of the matches were literal.
func matchPattern(pattern, segments []string) (int, bool) {
	if len(pattern) != len(segments) {
		return 0, false
	}
	literals := 0
	for i, part := range pattern {
		if isPlaceholder(part) {
			continue
		}
		if part != segments[i] {
			return 0, false
		}
		literals++
	}
	return literals, true
}

func isPlaceholder(part string) bool {
	return strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}")
}

func samePattern(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ap, bp := a[i], b[i]
		// All placeholders are equivalent for uniqueness.
		if isPlaceholder(ap) && isPlaceholder(bp) {
			continue
		}
		if ap != bp {
			return false
		}
	}
	return true
}
