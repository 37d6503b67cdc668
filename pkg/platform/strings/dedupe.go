// Package strings holds slice helpers for identifier lists.
package strings

import (
	"strings"
)

// DedupeAndTrim trims every value and drops empties and exact duplicates,
// keeping first-seen order.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, func(s string) string { return s })
}

// DedupeFold is DedupeAndTrim with case-insensitive comparison. The first
// spelling seen survives, so "#Ana", "#ana" yields "#Ana".
func DedupeFold(values []string) []string {
	return dedupe(values, strings.ToLower)
}

// dedupe compares values by key(trimmed value) and returns the trimmed values.
func dedupe(values []string, key func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
