package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := New("classifier")
	assert.Equal(t, "classifier", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.True(t, b.Allow())
}

// outcome is one recorded call: true for success.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		probes   int
		calls    []outcome
		wantOpen bool
	}{
		{"below failure threshold", 3, 2, []outcome{fail, fail}, false},
		{"opens at failure threshold", 3, 2, []outcome{fail, fail, fail}, true},
		{"success clears the failure streak", 3, 2, []outcome{fail, fail, ok, fail, fail}, false},
		{"one success while open is not enough", 1, 2, []outcome{fail, ok}, true},
		{"closes after enough successes", 1, 2, []outcome{fail, ok, ok}, false},
		{"failure while open restarts the success streak", 1, 3, []outcome{fail, ok, ok, fail, ok, ok}, true},
		{"streak completes after the restart", 1, 3, []outcome{fail, ok, ok, fail, ok, ok, ok}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("classifier", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.probes))
			for _, call := range tt.calls {
				if call {
					b.RecordSuccess()
				} else {
					b.RecordFailure()
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsStateChanges(t *testing.T) {
	b := New("classifier", WithFailureThreshold(2), WithSuccessThreshold(1))

	fallback, change := b.RecordFailure()
	assert.False(t, fallback)
	assert.Equal(t, StateChange{}, change)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback, "an open breaker keeps routing to the fallback")
	assert.False(t, change.Opened, "already open")

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
	assert.Equal(t, "closed", b.State().String())
}

func TestBreakerReset(t *testing.T) {
	b := New("classifier", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerCooldownProbe(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := New("classifier", WithFailureThreshold(1), WithCooldown(30*time.Second), WithClock(func() time.Time { return now }))

	b.RecordFailure()
	assert.False(t, b.Allow())
	assert.Equal(t, "open", b.State().String())

	now = now.Add(29 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(time.Second)
	assert.True(t, b.Allow(), "probe allowed once the cooldown elapses")

	b.RecordFailure()
	assert.False(t, b.Allow(), "a failed probe restarts the cooldown")
}
