package cache

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

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory()
	p, err := models.NewProfile(id.NewAccountID(), models.Details{FullName: "Ana", Username: "ana", Email: "a@b.co"}, nil, time.Now())
	require.NoError(t, err)

	_, err = c.Get(ctx, p.AccountID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, c.Set(ctx, p))
	p.Username = "mutated after set"
	got, err := c.Get(ctx, p.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)

	require.NoError(t, c.Delete(ctx, p.AccountID))
	_, err = c.Get(ctx, p.AccountID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
