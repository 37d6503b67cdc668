package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	t.Run("new error carries code", func(t *testing.T) {
		err := New(CodeNotFound, "profile not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.Equal(t, "profile not found", MessageOf(err))
	})

	t.Run("wrapped error keeps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeProfileWriteFailed, "failed to save profile")
		assert.True(t, errors.Is(err, cause))
		assert.True(t, Is(err, CodeProfileWriteFailed))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("register: %w", New(CodeConflict, "already registered"))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors map to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
		assert.False(t, HasCode(nil, CodeInternal))
		assert.Equal(t, "", MessageOf(errors.New("boom")))
	})
}
