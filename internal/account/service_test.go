package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"viewergate/internal/account"
	"viewergate/internal/account/store"
	dErrors "viewergate/pkg/domain-errors"
)

func newService(t *testing.T) *account.Service {
	t.Helper()
	svc, err := account.New(store.NewInMemory(), account.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)
	return svc
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := account.New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account store is required")
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.Register(ctx, " Dana@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", created.Email)
	assert.NotEqual(t, []byte("secret1"), created.PasswordHash)

	t.Run("correct password signs in", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "dana@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := svc.Authenticate(ctx, "dana@example.com", "nope")
		_, errUnknown := svc.Authenticate(ctx, "nobody@example.com", "secret1")
		assert.True(t, dErrors.HasCode(errWrong, dErrors.CodeUnauthorized))
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, "DANA@example.com", "another1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestRegister_Validation(t *testing.T) {
	svc := newService(t)
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "secret1"},
		{"malformed email", "dana", "secret1"},
		{"password shorter than six", "dana@example.com", "12345"},
		{"five accented characters", "dana@example.com", "ééééé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestPasswordLongEnough(t *testing.T) {
	assert.True(t, account.PasswordLongEnough("secret", 6))
	assert.True(t, account.PasswordLongEnough("éééééé", 6))
	assert.False(t, account.PasswordLongEnough("ééé", 6), "six bytes are only three characters")
	assert.False(t, account.PasswordLongEnough("", 1))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	a, err := svc.Register(ctx, "dana@example.com", "secret1")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, a.ID, "wrong", "secret2")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	require.NoError(t, svc.ChangePassword(ctx, a.ID, "secret1", "secret2"))

	_, err = svc.Authenticate(ctx, "dana@example.com", "secret1")
	assert.Error(t, err)
	_, err = svc.Authenticate(ctx, "dana@example.com", "secret2")
	assert.NoError(t, err)
}

func TestRemove_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	a, err := svc.Register(ctx, "dana@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, a.ID))
	require.NoError(t, svc.Remove(ctx, a.ID))

	_, err = svc.Register(ctx, "dana@example.com", "secret1")
	assert.NoError(t, err)
}
