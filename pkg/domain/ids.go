// Package domain holds domain primitives shared across bounded contexts.
package domain

import (
	"github.com/google/uuid"

	dErrors "viewergate/pkg/domain-errors"
)

// AccountID identifies an authenticated account. It is opaque to the engine and
// immutable once assigned by the account provider.
type AccountID uuid.UUID

// SessionID identifies one signed-in session of an account.
type SessionID uuid.UUID

func (id AccountID) String() string { return uuid.UUID(id).String() }
func (id AccountID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the canonical UUID form so JSON carries a string.
func (id AccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *AccountID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid account ID")
	}
	*id = AccountID(u)
	return nil
}

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewAccountID returns a random account identifier.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewSessionID returns a random session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseAccountID parses a non-nil UUID into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account ID")
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParseSessionID parses a non-nil UUID into a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session ID")
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
