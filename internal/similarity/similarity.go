// Package similarity decides whether a catalog name refers to the same person
// as a viewer. It favours recall: a false positive hides an unrelated entry,
// a false negative shows a competitor their own listing.
package similarity

import (
	"strings"
	"unicode"

	"viewergate/pkg/platform/text"
)

// MinTokenLength is the exclusive lower bound on token length for partial
// matches. Tokens of this length or shorter never match on their own.
const MinTokenLength = 3

// Normalize folds case and diacritics and drops every rune that is not a
// letter or digit.
func Normalize(s string) string {
	folded := text.Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '_' || r == '-' || r == '.'
}

// Tokens splits s on whitespace, underscores, hyphens and dots, normalizes each
// part and keeps those longer than MinTokenLength.
func Tokens(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, isSeparator) {
		n := Normalize(part)
		if len([]rune(n)) > MinTokenLength {
			out = append(out, n)
		}
	}
	return out
}

// IsMatch reports whether a and b plausibly name the same person: equal after
// normalization, or either one contains a significant token of the other.
// The relation is symmetric.
func IsMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return containsAnyToken(na, b) || containsAnyToken(nb, a)
}

func containsAnyToken(normalized, other string) bool {
	for _, tok := range Tokens(other) {
		if strings.Contains(normalized, tok) {
			return true
		}
	}
	return false
}

// MatchesAny reports whether any candidate matches any of the viewer's names.
// Empty names are ignored.
func MatchesAny(candidates []string, viewerNames ...string) bool {
	for _, v := range viewerNames {
		if strings.TrimSpace(v) == "" {
			continue
		}
		for _, c := range candidates {
			if IsMatch(c, v) {
				return true
			}
		}
	}
	return false
}
