// Package capture runs the camera capture and biometric acceptance flow that
// gates account verification.
package capture

import (
	"time"

	"viewergate/internal/biometric"
	dErrors "viewergate/pkg/domain-errors"
)

// State is a capture session position.
type State int

const (
	StateIdle State = iota
	StatePermissionRequested
	StateStreaming
	StateAnalyzing
	StateAccepted
	StateRejected
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePermissionRequested:
		return "permission_requested"
	case StateStreaming:
		return "streaming"
	case StateAnalyzing:
		return "analyzing"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsActive reports whether the session is between Start and an outcome.
func (s State) IsActive() bool {
	return s == StatePermissionRequested || s == StateStreaming || s == StateAnalyzing
}

// HoldsCamera reports whether the state owns the camera handle.
func (s State) HoldsCamera() bool {
	return s == StateStreaming || s == StateAnalyzing
}

// RejectReason explains a Rejected outcome.
type RejectReason string

const (
	ReasonNone          RejectReason = ""
	ReasonNoFace        RejectReason = "no_face"
	ReasonLowConfidence RejectReason = "low_confidence"
)

// Code maps the reason onto the domain error taxonomy.
func (r RejectReason) Code() dErrors.Code {
	switch r {
	case ReasonNoFace:
		return dErrors.CodeNoFaceDetected
	case ReasonLowConfidence:
		return dErrors.CodeLowConfidence
	default:
		return ""
	}
}

// DefaultAcceptanceThreshold is the inclusive minimum classifier score.
const DefaultAcceptanceThreshold = 0.5

// Acceptance is the proof that a capture session accepted a biometric result.
// Its fields are unexported so that only this package can mint one; the
// profile layer requires it to mark an account verified.
type Acceptance struct {
	sessionID  string
	result     biometric.Result
	acceptedAt time.Time
}

func (a Acceptance) Result() biometric.Result { return a.result }
func (a Acceptance) SessionID() string        { return a.sessionID }
func (a Acceptance) AcceptedAt() time.Time    { return a.acceptedAt }

// Valid reports whether a was produced by an accepting session.
func (a Acceptance) Valid() bool {
	return a.sessionID != "" && !a.acceptedAt.IsZero() && a.result.Validate() == nil
}

// Outcome is the observable result of a transition.
type Outcome struct {
	SessionID string
	State     State
	Reason    RejectReason
	// Result is set for Accepted and for low-confidence rejections.
	Result *biometric.Result
	// Err is set in the Error state.
	Err error
}

// Accepts applies the acceptance rule: a result exists and its score is at
// least threshold.
func Accepts(result *biometric.Result, threshold float64) (bool, RejectReason) {
	if result == nil {
		return false, ReasonNoFace
	}
	if result.Score < threshold {
		return false, ReasonLowConfidence
	}
	return true, ReasonNone
}
