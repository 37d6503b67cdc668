package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"viewergate/internal/biometric"
	"viewergate/internal/capture/camera"
	"viewergate/internal/platform/metrics"
	dErrors "viewergate/pkg/domain-errors"
)

var (
	errClosed     = dErrors.New(dErrors.CodeConflict, "capture session is closed")
	errSuperseded = dErrors.New(dErrors.CodeConflict, "capture session was cancelled")
)

// Observer is notified after every transition into Accepted, Rejected or Error.
// It runs outside the session lock.
type Observer func(ctx context.Context, outcome Outcome)

// Session drives one viewer's camera through permission, streaming and
// analysis.
//
// Invariants:
//   - The camera handle is held only in Streaming and Analyzing; every other
//     state has released it.
//   - Results arriving after a Cancel or Close are discarded (epoch mismatch).
//   - Camera permission is requested at most once per session; a denial is
//     terminal and Retry refuses it.
type Session struct {
	id         string
	device     camera.Device
	classifier biometric.Classifier
	threshold  float64
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	observer   Observer
	now        func() time.Time

	mu         sync.Mutex
	state      State
	epoch      uint64
	stream     camera.Stream
	permitted  bool
	reason     RejectReason
	result     *biometric.Result
	err        error
	acceptance *Acceptance
	closed     bool
}

type Option func(*Session)

// WithThreshold overrides the inclusive acceptance score.
func WithThreshold(threshold float64) Option {
	return func(s *Session) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSession(device camera.Device, classifier biometric.Classifier, opts ...Option) (*Session, error) {
	if device == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "camera device is required")
	}
	if classifier == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "classifier is required")
	}
	s := &Session{
		id:         uuid.NewString(),
		device:     device,
		classifier: classifier,
		threshold:  DefaultAcceptanceThreshold,
		tracer:     otel.Tracer("viewergate/capture"),
		now:        time.Now,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome snapshots the current state.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcomeLocked()
}

// Acceptance returns the accepted result once the session reached Accepted.
func (s *Session) Acceptance() (Acceptance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAccepted || s.acceptance == nil {
		return Acceptance{}, false
	}
	return *s.acceptance, true
}

// Start requests camera permission and opens the stream. Calling Start while
// the session is already acquiring, streaming, analyzing or accepted is a
// no-op that returns the current outcome.
func (s *Session) Start(ctx context.Context) (Outcome, error) {
	epoch, out, proceed, err := s.begin()
	if !proceed {
		return out, err
	}
	return s.acquire(ctx, epoch)
}

func (s *Session) begin() (uint64, Outcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, s.outcomeLocked(), false, errClosed
	}
	switch {
	case s.state.IsActive() || s.state == StateAccepted:
		return 0, s.outcomeLocked(), false, nil
	case s.state != StateIdle:
		return 0, s.outcomeLocked(), false, dErrors.New(dErrors.CodeConflict, "capture session must be retried or cancelled")
	}
	s.state = StatePermissionRequested
	s.epoch++
	return s.epoch, s.outcomeLocked(), true, nil
}

// Capture grabs a frame from the open stream and classifies it. Camera and
// classifier failures are reported through the returned Outcome (State Error);
// the error return is reserved for calls made in the wrong state or results
// that were superseded by Cancel.
func (s *Session) Capture(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Outcome{SessionID: s.id}, errClosed
	}
	if s.state != StateStreaming {
		out := s.outcomeLocked()
		s.mu.Unlock()
		return out, dErrors.New(dErrors.CodeConflict, "capture requires an open camera stream")
	}
	stream := s.stream
	s.state = StateAnalyzing
	epoch := s.epoch
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "capture.analyze", trace.WithAttributes(attribute.String("session_id", s.id)))
	defer span.End()

	result, err := s.analyze(ctx, stream)

	s.mu.Lock()
	if epoch != s.epoch {
		out := s.outcomeLocked()
		s.mu.Unlock()
		return out, errSuperseded
	}
	switch {
	case err != nil:
		s.failLocked(err)
	default:
		s.decideLocked(result)
	}
	out := s.outcomeLocked()
	s.mu.Unlock()

	span.SetAttributes(attribute.String("state", out.State.String()), attribute.String("reason", string(out.Reason)))
	s.notify(ctx, out)
	return out, nil
}

func (s *Session) analyze(ctx context.Context, stream camera.Stream) (*biometric.Result, error) {
	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, err
	}
	return s.classifier.Classify(ctx, frame)
}

func (s *Session) decideLocked(result *biometric.Result) {
	s.releaseLocked()
	ok, reason := Accepts(result, s.threshold)
	if ok {
		if err := result.Validate(); err != nil {
			s.failLocked(err)
			return
		}
		r := *result
		s.state = StateAccepted
		s.result = &r
		s.acceptance = &Acceptance{sessionID: s.id, result: r, acceptedAt: s.now()}
		return
	}
	s.state = StateRejected
	s.reason = reason
	if result != nil {
		r := *result
		s.result = &r
	}
}

// Retry returns a Rejected or Error session to Streaming, re-opening the
// camera without asking for permission again. A permission denial cannot be
// retried; the viewer has to cancel and start over.
func (s *Session) Retry(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Outcome{SessionID: s.id}, errClosed
	}
	switch s.state {
	case StateRejected:
	case StateError:
		if dErrors.HasCode(s.err, dErrors.CodePermissionDenied) {
			out := s.outcomeLocked()
			s.mu.Unlock()
			return out, dErrors.New(dErrors.CodePermissionDenied, "camera permission was denied; cancel and start again")
		}
	default:
		out := s.outcomeLocked()
		s.mu.Unlock()
		if out.State.IsActive() {
			return out, nil
		}
		return out, dErrors.New(dErrors.CodeConflict, "only rejected or failed captures can be retried")
	}
	s.clearLocked()
	s.state = StatePermissionRequested
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	return s.acquire(ctx, epoch)
}

func (s *Session) acquire(ctx context.Context, epoch uint64) (Outcome, error) {
	s.mu.Lock()
	permitted := s.permitted
	s.mu.Unlock()

	if !permitted {
		err := s.device.RequestPermission(ctx)
		s.mu.Lock()
		if epoch != s.epoch {
			out := s.outcomeLocked()
			s.mu.Unlock()
			return out, errSuperseded
		}
		if err != nil {
			if !dErrors.HasCode(err, dErrors.CodePermissionDenied) {
				err = dErrors.Wrap(err, dErrors.CodePermissionDenied, "camera permission could not be obtained")
			}
			s.failLocked(err)
			out := s.outcomeLocked()
			s.mu.Unlock()
			s.notify(ctx, out)
			return out, nil
		}
		s.permitted = true
		s.mu.Unlock()
	}

	stream, err := s.device.Open(ctx)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		if stream != nil {
			_ = stream.Close()
		}
		return s.Outcome(), errSuperseded
	}
	if err != nil {
		s.failLocked(err)
		out := s.outcomeLocked()
		s.mu.Unlock()
		s.notify(ctx, out)
		return out, nil
	}
	s.stream = stream
	s.state = StateStreaming
	s.metrics.CaptureSessionStarted()
	out := s.outcomeLocked()
	s.mu.Unlock()
	return out, nil
}

// Cancel returns the session to Idle from any state, releasing the camera and
// discarding any in-flight classification.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.epoch++
	s.releaseLocked()
	s.clearLocked()
	s.state = StateIdle
}

// Close tears the session down. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.epoch++
	s.releaseLocked()
	s.clearLocked()
	s.state = StateIdle
	s.closed = true
}

func (s *Session) failLocked(err error) {
	s.releaseLocked()
	s.state = StateError
	s.reason = ReasonNone
	s.result = nil
	s.err = err
}

func (s *Session) clearLocked() {
	s.reason = ReasonNone
	s.result = nil
	s.err = nil
	s.acceptance = nil
}

// releaseLocked is the single place the camera handle is given back.
func (s *Session) releaseLocked() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil && s.logger != nil {
		s.logger.Warn("failed to release camera", "session_id", s.id, "error", err)
	}
	s.stream = nil
	s.metrics.CaptureSessionEnded()
}

func (s *Session) outcomeLocked() Outcome {
	out := Outcome{SessionID: s.id, State: s.state, Reason: s.reason, Err: s.err}
	if s.result != nil {
		r := *s.result
		out.Result = &r
	}
	return out
}

func (s *Session) notify(ctx context.Context, out Outcome) {
	label := string(out.Reason)
	if out.Err != nil {
		label = string(dErrors.CodeOf(out.Err))
	}
	s.metrics.ObserveCaptureOutcome(out.State.String(), label)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "capture outcome",
			"session_id", s.id,
			"state", out.State.String(),
			"reason", label,
		)
	}
	if s.observer != nil {
		s.observer(ctx, out)
	}
}
