package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "viewergate/pkg/domain-errors"
)

// TestParseAccountID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseAccountID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseAccountID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(validUUID), id)
		assert.False(t, id.IsNil())
	})
}

// TestParseID_TrustBoundary covers hostile input at API entry points.
func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE profiles;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errAccount := ParseAccountID(tt.input)
			_, errSession := ParseSessionID(tt.input)
			if tt.wantErr {
				require.Error(t, errAccount)
				require.Error(t, errSession)
				assert.True(t, dErrors.HasCode(errAccount, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, errAccount)
			require.NoError(t, errSession)
		})
	}
}

func TestTypeDistinction(t *testing.T) {
	accountID := NewAccountID()
	sessionID := NewSessionID()

	// var _ AccountID = sessionID // does not compile
	assert.NotEqual(t, uuid.UUID(accountID), uuid.UUID(sessionID))
	assert.True(t, AccountID{}.IsNil())
}

func TestAccountID_JSONRoundTripsAsString(t *testing.T) {
	accountID := NewAccountID()
	raw, err := json.Marshal(struct {
		ID AccountID `json:"id"`
	}{ID: accountID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+accountID.String()+`"}`, string(raw))
}
