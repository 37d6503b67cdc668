// Package camera defines the device contract the capture session drives.
package camera

import (
	"context"
	"sync"
	"time"

	"viewergate/internal/biometric"
	dErrors "viewergate/pkg/domain-errors"
)

// Device is a camera that must be granted permission before it can be opened.
// RequestPermission reports a refusal with CodePermissionDenied.
type Device interface {
	RequestPermission(ctx context.Context) error
	Open(ctx context.Context) (Stream, error)
}

// Stream is an exclusively held camera handle. Close releases it and must be
// safe to call more than once.
type Stream interface {
	Frame(ctx context.Context) (biometric.Frame, error)
	Close() error
}

// ErrPermissionDenied is returned by devices whose owner refused access.
var ErrPermissionDenied = dErrors.New(dErrors.CodePermissionDenied, "camera access was denied")

// UploadedFrame is a Device backed by a single still image submitted by the
// client. Permission is implied by the upload.
type UploadedFrame struct {
	frame biometric.Frame
	now   func() time.Time
}

func NewUploadedFrame(data []byte, contentType string) *UploadedFrame {
	return &UploadedFrame{
		frame: biometric.Frame{Data: data, ContentType: contentType},
		now:   time.Now,
	}
}

func (u *UploadedFrame) RequestPermission(context.Context) error {
	if u.frame.IsEmpty() {
		return ErrPermissionDenied
	}
	return nil
}

func (u *UploadedFrame) Open(context.Context) (Stream, error) {
	if u.frame.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no camera frame was provided")
	}
	return &uploadedStream{frame: u.frame, now: u.now}, nil
}

type uploadedStream struct {
	mu     sync.Mutex
	frame  biometric.Frame
	now    func() time.Time
	closed bool
}

func (s *uploadedStream) Frame(context.Context) (biometric.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return biometric.Frame{}, dErrors.New(dErrors.CodeConflict, "camera stream is closed")
	}
	f := s.frame
	f.CapturedAt = s.now()
	return f, nil
}

func (s *uploadedStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
