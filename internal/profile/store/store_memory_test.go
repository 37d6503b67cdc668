package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	"viewergate/pkg/platform/sentinel"
)

func newProfile(t *testing.T) *models.VerificationProfile {
	t.Helper()
	p, err := models.NewProfile(id.NewAccountID(), models.Details{FullName: "Ana Ruiz", Username: "ana", Email: "ana@example.com"}, nil, time.Now())
	require.NoError(t, err)
	return p
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create then find returns a copy", func(t *testing.T) {
		s := NewInMemory()
		p := newProfile(t)
		require.NoError(t, s.Create(ctx, p))

		got, err := s.FindByAccountID(ctx, p.AccountID)
		require.NoError(t, err)
		got.Username = "changed"

		again, err := s.FindByAccountID(ctx, p.AccountID)
		require.NoError(t, err)
		assert.Equal(t, "ana", again.Username)
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		s := NewInMemory()
		p := newProfile(t)
		require.NoError(t, s.Create(ctx, p))
		assert.ErrorIs(t, s.Create(ctx, p), sentinel.ErrConflict)
	})

	t.Run("missing profile is not found", func(t *testing.T) {
		_, err := NewInMemory().FindByAccountID(ctx, id.NewAccountID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("update requires the next version", func(t *testing.T) {
		s := NewInMemory()
		p := newProfile(t)
		require.NoError(t, s.Create(ctx, p))

		stale := p.Clone()
		assert.ErrorIs(t, s.Update(ctx, stale), sentinel.ErrConflict)

		p.RequestDeletion(time.Now())
		require.NoError(t, s.Update(ctx, p))
		got, err := s.FindByAccountID(ctx, p.AccountID)
		require.NoError(t, err)
		assert.True(t, got.DeletionPending())

		assert.ErrorIs(t, s.Update(ctx, newProfile(t)), sentinel.ErrNotFound)
	})
}
