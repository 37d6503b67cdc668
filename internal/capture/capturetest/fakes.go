// Package capturetest provides camera and classifier fakes plus a helper that
// produces a genuine Acceptance by running a real capture session.
package capturetest

import (
	"context"
	"sync"
	"testing"

	"viewergate/internal/biometric"
	"viewergate/internal/capture"
	"viewergate/internal/capture/camera"
)

// Camera counts held handles so tests can prove every exit path releases.
type Camera struct {
	mu                 sync.Mutex
	denyPermission     bool
	openErr            error
	frameErr           error
	permissionRequests int
	opens              int
	held               int
}

func NewCamera() *Camera { return &Camera{} }

func (c *Camera) DenyPermission() *Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.denyPermission = true
	return c
}

func (c *Camera) FailOpen(err error) *Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
	return c
}

func (c *Camera) FailFrames(err error) *Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameErr = err
	return c
}

func (c *Camera) RequestPermission(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permissionRequests++
	if c.denyPermission {
		return camera.ErrPermissionDenied
	}
	return nil
}

func (c *Camera) Open(context.Context) (camera.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opens++
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.held++
	return &stream{cam: c}, nil
}

func (c *Camera) Held() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

func (c *Camera) PermissionRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permissionRequests
}

func (c *Camera) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

type stream struct {
	cam  *Camera
	once sync.Once
}

func (s *stream) Frame(context.Context) (biometric.Frame, error) {
	s.cam.mu.Lock()
	defer s.cam.mu.Unlock()
	if s.cam.frameErr != nil {
		return biometric.Frame{}, s.cam.frameErr
	}
	return biometric.Frame{Data: []byte("frame"), ContentType: "image/jpeg"}, nil
}

func (s *stream) Close() error {
	s.once.Do(func() {
		s.cam.mu.Lock()
		s.cam.held--
		s.cam.mu.Unlock()
	})
	return nil
}

// Response is one scripted classifier answer.
type Response struct {
	Result *biometric.Result
	Err    error
}

// Classifier replays scripted responses in order, repeating the last one.
// When Gate is set, Classify blocks until the gate is closed or ctx ends and
// signals Entered first.
type Classifier struct {
	mu        sync.Mutex
	responses []Response
	calls     int
	Gate      chan struct{}
	Entered   chan struct{}
}

func NewClassifier(responses ...Response) *Classifier {
	return &Classifier{responses: responses}
}

// Returning is shorthand for a classifier that always yields result.
func Returning(result biometric.Result) *Classifier {
	return NewClassifier(Response{Result: &result})
}

// Blocking returns a classifier that waits on its Gate before answering.
func Blocking(responses ...Response) *Classifier {
	c := NewClassifier(responses...)
	c.Gate = make(chan struct{})
	c.Entered = make(chan struct{}, 1)
	return c
}

func (c *Classifier) Classify(ctx context.Context, _ biometric.Frame) (*biometric.Result, error) {
	c.mu.Lock()
	c.calls++
	var resp Response
	if len(c.responses) > 0 {
		resp = c.responses[0]
		if len(c.responses) > 1 {
			c.responses = c.responses[1:]
		}
	}
	gate, entered := c.Gate, c.Entered
	c.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if resp.Result == nil {
		return nil, resp.Err
	}
	r := *resp.Result
	return &r, resp.Err
}

func (c *Classifier) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Accept runs a real capture session to acceptance and returns its proof.
func Accept(t testing.TB, result biometric.Result) capture.Acceptance {
	t.Helper()
	session, err := capture.NewSession(NewCamera(), Returning(result))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := session.Start(context.Background()); err != nil {
		t.Fatalf("start capture: %v", err)
	}
	out, err := session.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	acceptance, ok := session.Acceptance()
	if !ok {
		t.Fatalf("capture not accepted: state=%s reason=%s", out.State, out.Reason)
	}
	return acceptance
}
