package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewergate/internal/biometric"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/circuit"
)

type fakeRuntime struct {
	loads     atomic.Int32
	classify  atomic.Int32
	loadCode  atomic.Int32
	classCode atomic.Int32
	faces     atomic.Pointer[[]face]
	dropOnce  atomic.Bool
}

func (f *fakeRuntime) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/load", func(w http.ResponseWriter, r *http.Request) {
		f.loads.Add(1)
		var req loadRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if code := f.loadCode.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/classify", func(w http.ResponseWriter, r *http.Request) {
		f.classify.Add(1)
		if f.dropOnce.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusConflict)
			return
		}
		if code := f.classCode.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		var faces []face
		if p := f.faces.Load(); p != nil {
			faces = *p
		}
		_ = json.NewEncoder(w).Encode(classifyResponse{Faces: faces})
	})
	return mux
}

func newFakeRuntime(faces ...face) *fakeRuntime {
	rt := &fakeRuntime{}
	rt.faces.Store(&faces)
	return rt
}

func newTestClient(t *testing.T, rt *fakeRuntime, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(rt.handler())
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", ModelBundleURL: "https://models.example/bundle"}, opts...)
	require.NoError(t, err)
	return c
}

var frame = biometric.Frame{Data: []byte{0xff, 0xd8, 0xff}, ContentType: "image/jpeg"}

func TestNew_RequiresURLs(t *testing.T) {
	_, err := New(Config{ModelBundleURL: "x"})
	require.Error(t, err)
	_, err = New(Config{BaseURL: "http://rt"})
	require.Error(t, err)
}

func TestClassify_ReturnsMostConfidentFace(t *testing.T) {
	rt := newFakeRuntime(
		face{Age: 31.4, Gender: "male", Score: 0.42},
		face{Age: 23.6, Gender: "female", Score: 0.87},
	)
	c := newTestClient(t, rt)

	result, err := c.Classify(context.Background(), frame)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 24, result.Age)
	assert.Equal(t, biometric.GenderFemale, result.Gender)
	assert.InDelta(t, 0.87, result.Score, 1e-9)
	assert.EqualValues(t, 1, rt.loads.Load(), "bundle loaded once")

	_, err = c.Classify(context.Background(), frame)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rt.loads.Load(), "bundle not reloaded")
}

func TestClassify_NoFaceIsNotAnError(t *testing.T) {
	c := newTestClient(t, newFakeRuntime())

	result, err := c.Classify(context.Background(), frame)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestClassify_LoadFailureIsUnavailableAndRetried(t *testing.T) {
	rt := newFakeRuntime()
	rt.loadCode.Store(http.StatusServiceUnavailable)
	c := newTestClient(t, rt)

	_, err := c.Classify(context.Background(), frame)
	require.Error(t, err)
	assert.True(t, biometric.IsUnavailable(err))

	rt.loadCode.Store(0)
	rt.faces.Store(&[]face{{Age: 40, Gender: "male", Score: 0.9}})
	result, err := c.Classify(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, biometric.GenderMale, result.Gender)
	assert.EqualValues(t, 2, rt.loads.Load())
}

func TestClassify_ReloadsWhenRuntimeLosesModel(t *testing.T) {
	rt := newFakeRuntime(face{Age: 20, Gender: "female", Score: 0.6})
	c := newTestClient(t, rt)
	_, err := c.Classify(context.Background(), frame)
	require.NoError(t, err)

	rt.dropOnce.Store(true)
	result, err := c.Classify(context.Background(), frame)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.EqualValues(t, 2, rt.loads.Load())
}

func TestClassify_BadFrameIsNotUnavailable(t *testing.T) {
	rt := newFakeRuntime()
	rt.classCode.Store(http.StatusUnprocessableEntity)
	c := newTestClient(t, rt)

	_, err := c.Classify(context.Background(), frame)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	assert.False(t, biometric.IsUnavailable(err))

	_, err = c.Classify(context.Background(), biometric.Frame{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestClassify_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.New("classifier",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	rt := newFakeRuntime()
	rt.classCode.Store(http.StatusInternalServerError)
	c := newTestClient(t, rt, WithBreaker(breaker))

	for range 2 {
		_, err := c.Classify(context.Background(), frame)
		require.True(t, biometric.IsUnavailable(err))
	}
	calls := rt.classify.Load()

	_, err := c.Classify(context.Background(), frame)
	require.True(t, biometric.IsUnavailable(err))
	assert.Equal(t, calls, rt.classify.Load(), "open circuit short-circuits the runtime")

	now = now.Add(2 * time.Minute)
	rt.classCode.Store(0)
	_, err = c.Classify(context.Background(), frame)
	require.NoError(t, err)
	assert.False(t, breaker.IsOpen())
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.1))
	assert.Equal(t, 1.0, clamp01(1.3))
	assert.Equal(t, 0.5, clamp01(0.5))
}
