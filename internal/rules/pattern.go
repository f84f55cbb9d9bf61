package rules

import (
	"errors"
	"strings"
)

// ErrEmptyPattern is returned at load time for any rule whose pattern is
// the empty string — an empty pattern would match everything for free and
// is rejected rather than silently accepted.
var ErrEmptyPattern = errors.New("rules: empty pattern is not allowed")

// Match reports whether target satisfies pattern under the engine's
// wildcard language: "*" means any substring (possibly empty); a pattern
// without "*" matches as plain substring containment; a pattern with "*"
// decomposes into literal fragments that must appear in order, with the
// first fragment anchored at the start (if non-empty) and the last
// anchored at the end (if non-empty). Matching is case-insensitive.
func Match(pattern, target string) bool {
	if pattern == "*" {
		return target != ""
	}
	if !strings.Contains(pattern, "*") {
		return strings.Contains(strings.ToLower(target), strings.ToLower(pattern))
	}

	lowerTarget := strings.ToLower(target)
	fragments := strings.Split(strings.ToLower(pattern), "*")

	first, rest := fragments[0], fragments[1:]
	last := rest[len(rest)-1]
	middle := rest[:len(rest)-1]

	cursor := 0

	if first != "" {
		if !strings.HasPrefix(lowerTarget, first) {
			return false
		}
		cursor = len(first)
	}

	for _, frag := range middle {
		if frag == "" {
			continue
		}
		idx := strings.Index(lowerTarget[cursor:], frag)
		if idx < 0 {
			return false
		}
		cursor += idx + len(frag)
	}

	if last != "" {
		if !strings.HasSuffix(lowerTarget, last) {
			return false
		}
		// The suffix must still occur at or after cursor; since only
		// forward progress matters and HasSuffix already anchors it at
		// the target's end, this is sufficient given fragments were
		// matched in order up to cursor.
		if len(lowerTarget)-len(last) < cursor {
			return false
		}
	}

	return true
}
