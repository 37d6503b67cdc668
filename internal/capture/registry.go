package capture

import (
	"context"
	"sync"

	"viewergate/internal/biometric"
	"viewergate/internal/capture/camera"
	dErrors "viewergate/pkg/domain-errors"
)

// Registry enforces one capture session per viewer.
type Registry struct {
	classifier biometric.Classifier
	opts       []Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// StartResult reports which session a Start call landed on.
type StartResult struct {
	Session *Session
	Outcome Outcome
	// Joined is true when the viewer already had an active session and the
	// call was a no-op against it.
	Joined bool
}

func NewRegistry(classifier biometric.Classifier, opts ...Option) (*Registry, error) {
	if classifier == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "classifier is required")
	}
	return &Registry{
		classifier: classifier,
		opts:       opts,
		sessions:   make(map[string]*Session),
	}, nil
}

// Start begins a capture for viewerKey on device. If the viewer's session is
// already acquiring, streaming or analyzing, device is ignored and the existing
// session is returned untouched. A finished session is replaced.
func (r *Registry) Start(ctx context.Context, viewerKey string, device camera.Device) (StartResult, error) {
	if viewerKey == "" {
		return StartResult{}, dErrors.New(dErrors.CodeBadRequest, "viewer key is required")
	}

	r.mu.Lock()
	if existing, ok := r.sessions[viewerKey]; ok {
		if existing.State().IsActive() {
			r.mu.Unlock()
			return StartResult{Session: existing, Outcome: existing.Outcome(), Joined: true}, nil
		}
		existing.Close()
		delete(r.sessions, viewerKey)
	}
	session, err := NewSession(device, r.classifier, r.opts...)
	if err != nil {
		r.mu.Unlock()
		return StartResult{}, err
	}
	epoch, out, proceed, err := session.begin()
	r.sessions[viewerKey] = session
	r.mu.Unlock()

	if !proceed {
		return StartResult{Session: session, Outcome: out}, err
	}
	out, err = session.acquire(ctx, epoch)
	return StartResult{Session: session, Outcome: out}, err
}

func (r *Registry) Get(viewerKey string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[viewerKey]
	return s, ok
}

// End closes and forgets the viewer's session, releasing its camera.
func (r *Registry) End(viewerKey string) {
	r.mu.Lock()
	s, ok := r.sessions[viewerKey]
	delete(r.sessions, viewerKey)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// EndIf closes the viewer's session only if it is still session.
func (r *Registry) EndIf(viewerKey string, session *Session) {
	r.mu.Lock()
	current, ok := r.sessions[viewerKey]
	if ok && current == session {
		delete(r.sessions, viewerKey)
	}
	r.mu.Unlock()
	session.Close()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
