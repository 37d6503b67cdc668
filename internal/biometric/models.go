// Package biometric defines the classifier contract used to estimate a
// registrant's apparent age and gender from a single camera frame.
package biometric

import (
	"context"
	"fmt"
	"strings"
	"time"

	dErrors "viewergate/pkg/domain-errors"
)

// Gender is the classifier's gender estimate, or unknown when none was recorded.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// ParseGender maps free-form labels onto Gender. Anything unrecognised is unknown.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return GenderMale
	case "female":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

func (g Gender) IsKnown() bool {
	return g == GenderMale || g == GenderFemale
}

func (g Gender) String() string { return string(g) }

// Result is a single classifier output for one captured frame.
// It is never persisted beyond the registration that consumes it.
//
// Invariants:
//   - Age >= 0
//   - Gender is male or female
//   - Score in [0, 1]
type Result struct {
	Age    int
	Gender Gender
	Score  float64
}

func (r Result) Validate() error {
	if r.Age < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("age must be non-negative, got %d", r.Age))
	}
	if !r.Gender.IsKnown() {
		return dErrors.New(dErrors.CodeInvariantViolation, "gender must be male or female")
	}
	if r.Score < 0 || r.Score > 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("score must be in [0,1], got %v", r.Score))
	}
	return nil
}

// Frame is one still image taken from a camera stream.
type Frame struct {
	Data        []byte
	ContentType string
	CapturedAt  time.Time
}

func (f Frame) IsEmpty() bool { return len(f.Data) == 0 }

// Classifier runs single-face detection plus age/gender estimation.
//
// Classify returns (nil, nil) when no face is found. A runtime that cannot be
// initialised or reached is reported with CodeClassifierUnavailable. No
// acceptance thresholding happens here.
type Classifier interface {
	Classify(ctx context.Context, frame Frame) (*Result, error)
}

// Unavailable wraps err as a ClassifierUnavailable failure.
func Unavailable(err error, msg string) error {
	if err == nil {
		return dErrors.New(dErrors.CodeClassifierUnavailable, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeClassifierUnavailable, msg)
}

// IsUnavailable reports whether err is a ClassifierUnavailable failure.
func IsUnavailable(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeClassifierUnavailable)
}

// NotConfigured stands in when no model runtime is configured. Every call
// fails as ClassifierUnavailable, so registrations with a frame are refused
// rather than silently verified.
var NotConfigured Classifier = notConfigured{}

type notConfigured struct{}

func (notConfigured) Classify(context.Context, Frame) (*Result, error) {
	return nil, Unavailable(nil, "no classifier runtime is configured")
}
