package email

import (
	"strings"
	"unicode"
)

// Normalize trims surrounding whitespace and lowercases the address so it can
// be used as a lookup key.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Valid reports whether address has a single @ separating a non-empty local
// part from a non-empty domain, with no whitespace anywhere.
func Valid(address string) bool {
	local, domain, ok := strings.Cut(address, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return false
	}
	return strings.IndexFunc(address, unicode.IsSpace) == -1
}
