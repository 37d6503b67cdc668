package models

import (
	"regexp"
	"strings"
	"unicode"

	pstrings "viewergate/pkg/platform/strings"
	"viewergate/pkg/platform/text"
)

// UnknownTag stands in for identifiers with nothing left after normalization.
const UnknownTag = "unknown"

var identifierSeparators = regexp.MustCompile(`[\s,;|]+`)

// ParseIdentifiers splits a raw identifier field from the data source into
// its individual identifiers.
func ParseIdentifiers(raw string) []string {
	var out []string
	for _, part := range identifierSeparators.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MakeTag normalizes an identifier into tag form: a leading "@" is dropped,
// case and diacritics are folded, whitespace runs collapse to "_" and anything
// outside [a-z0-9_] is removed.
func MakeTag(identifier string) string {
	s := strings.TrimSpace(identifier)
	s = strings.TrimPrefix(s, "@")
	s = text.Fold(s)

	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace && b.Len() > 0 {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return UnknownTag
	}
	return b.String()
}

// Hashtag is MakeTag with the display prefix.
func Hashtag(identifier string) string {
	return "#" + MakeTag(identifier)
}

// Hashtags derives one hashtag per identifier, keeping first-seen order and
// dropping case-insensitive duplicates.
func Hashtags(identifiers ...string) []string {
	tags := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		tags = append(tags, Hashtag(id))
	}
	return pstrings.DedupeFold(tags)
}
