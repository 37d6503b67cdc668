package account

import (
	"time"
	"unicode/utf8"

	id "viewergate/pkg/domain"
)

// PasswordLongEnough counts characters, not bytes, so every caller applies the
// same minimum to non-ASCII passwords.
func PasswordLongEnough(password string, minLength int) bool {
	return utf8.RuneCountInString(password) >= minLength
}

// Account is a set of sign-in credentials. Identity and verification facts
// live on the verification profile keyed by the same ID.
type Account struct {
	ID           id.AccountID
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
