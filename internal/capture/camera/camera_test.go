package camera

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "viewergate/pkg/domain-errors"
)

func TestUploadedFrame(t *testing.T) {
	ctx := context.Background()

	t.Run("empty upload is a denied permission", func(t *testing.T) {
		dev := NewUploadedFrame(nil, "image/jpeg")
		err := dev.RequestPermission(ctx)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("stream yields the uploaded frame until closed", func(t *testing.T) {
		dev := NewUploadedFrame([]byte("jpeg"), "image/jpeg")
		require.NoError(t, dev.RequestPermission(ctx))
		stream, err := dev.Open(ctx)
		require.NoError(t, err)

		frame, err := stream.Frame(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg"), frame.Data)
		assert.False(t, frame.CapturedAt.IsZero())

		require.NoError(t, stream.Close())
		require.NoError(t, stream.Close())
		_, err = stream.Frame(ctx)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
