package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewergate/internal/account"
	id "viewergate/pkg/domain"
	"viewergate/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	a := &account.Account{ID: id.NewAccountID(), Email: "dana@example.com", PasswordHash: []byte("h")}
	require.NoError(t, s.Create(ctx, a))

	t.Run("email lookup ignores case", func(t *testing.T) {
		got, err := s.FindByEmail(ctx, "DANA@example.com")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		err := s.Create(ctx, &account.Account{ID: id.NewAccountID(), Email: "Dana@Example.com"})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("returned accounts are copies", func(t *testing.T) {
		got, err := s.FindByID(ctx, a.ID)
		require.NoError(t, err)
		got.Email = "changed@example.com"
		again, err := s.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "dana@example.com", again.Email)
	})

	t.Run("delete frees the email", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, a.ID))
		_, err := s.FindByEmail(ctx, "dana@example.com")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, a), sentinel.ErrNotFound)
	})
}
