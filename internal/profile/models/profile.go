package models

import (
	"strings"
	"time"

	"viewergate/internal/biometric"
	"viewergate/internal/capture"
	id "viewergate/pkg/domain"
	dErrors "viewergate/pkg/domain-errors"
	emailaddr "viewergate/pkg/email"
)

// DeletionGracePeriod is the default wait between a deletion request and the
// account becoming eligible for erasure.
const DeletionGracePeriod = 7 * 24 * time.Hour

// Details are the identity facts supplied on the registration form.
type Details struct {
	FullName string
	Username string
	Email    string
}

// Normalize trims surrounding whitespace and lowercases the email.
func (d Details) Normalize() Details {
	return Details{
		FullName: strings.TrimSpace(d.FullName),
		Username: strings.TrimSpace(d.Username),
		Email:    emailaddr.Normalize(d.Email),
	}
}

func (d Details) Validate() error {
	switch {
	case d.FullName == "":
		return dErrors.New(dErrors.CodeValidation, "full name is required")
	case d.Username == "":
		return dErrors.New(dErrors.CodeValidation, "username is required")
	case !emailaddr.Valid(d.Email):
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	return nil
}

// VerificationProfile is the per-account record of identity and verification
// facts consulted by every visibility decision.
//
// Invariants:
//   - IsVerified implies GenderDetected is male or female.
//   - GenderDetected and AgeDetected are set once at registration and never change.
//   - Version increases by one on every persisted mutation.
type VerificationProfile struct {
	AccountID           id.AccountID     `json:"account_id"`
	DisplayName         string           `json:"display_name"`
	Username            string           `json:"username"`
	Email               string           `json:"email"`
	IsVerified          bool             `json:"is_verified"`
	GenderDetected      biometric.Gender `json:"gender_detected"`
	AgeDetected         *int             `json:"age_detected,omitempty"`
	VerifiedAt          *time.Time       `json:"verified_at,omitempty"`
	DeletionRequestedAt *time.Time       `json:"deletion_requested_at,omitempty"`
	Version             int64            `json:"version"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// NewProfile builds the profile written at registration. A valid acceptance
// from a capture session is the only way to obtain a verified profile; a nil
// acceptance yields an unverified one.
func NewProfile(accountID id.AccountID, details Details, acceptance *capture.Acceptance, now time.Time) (*VerificationProfile, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account ID is required")
	}
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, err
	}

	p := &VerificationProfile{
		AccountID:      accountID,
		DisplayName:    details.FullName,
		Username:       details.Username,
		Email:          details.Email,
		GenderDetected: biometric.GenderUnknown,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if acceptance != nil {
		if !acceptance.Valid() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification requires an accepted capture")
		}
		result := acceptance.Result()
		age := result.Age
		verifiedAt := acceptance.AcceptedAt()
		p.IsVerified = true
		p.GenderDetected = result.Gender
		p.AgeDetected = &age
		p.VerifiedAt = &verifiedAt
	}
	return p, p.Validate()
}

func (p *VerificationProfile) Validate() error {
	if p.IsVerified && !p.GenderDetected.IsKnown() {
		return dErrors.New(dErrors.CodeInvariantViolation, "verified profile must have a detected gender")
	}
	return nil
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (p *VerificationProfile) Clone() *VerificationProfile {
	if p == nil {
		return nil
	}
	c := *p
	if p.AgeDetected != nil {
		v := *p.AgeDetected
		c.AgeDetected = &v
	}
	if p.VerifiedAt != nil {
		v := *p.VerifiedAt
		c.VerifiedAt = &v
	}
	if p.DeletionRequestedAt != nil {
		v := *p.DeletionRequestedAt
		c.DeletionRequestedAt = &v
	}
	return &c
}

func (p *VerificationProfile) DeletionPending() bool {
	return p.DeletionRequestedAt != nil
}

func (p *VerificationProfile) CanRequestDeletion() error {
	if p.DeletionPending() {
		return dErrors.New(dErrors.CodeConflict, "deletion already requested")
	}
	return nil
}

func (p *VerificationProfile) RequestDeletion(now time.Time) {
	t := now
	p.DeletionRequestedAt = &t
	p.touch(now)
}

func (p *VerificationProfile) CanCancelDeletion() error {
	if !p.DeletionPending() {
		return dErrors.New(dErrors.CodeConflict, "no deletion is pending")
	}
	return nil
}

func (p *VerificationProfile) CancelDeletion(now time.Time) {
	p.DeletionRequestedAt = nil
	p.touch(now)
}

// ErasureScheduledAt returns when a pending deletion becomes eligible, or nil.
func (p *VerificationProfile) ErasureScheduledAt(grace time.Duration) *time.Time {
	if p.DeletionRequestedAt == nil {
		return nil
	}
	t := p.DeletionRequestedAt.Add(grace)
	return &t
}

func (p *VerificationProfile) EligibleForErasure(now time.Time, grace time.Duration) bool {
	at := p.ErasureScheduledAt(grace)
	return at != nil && !now.Before(*at)
}

func (p *VerificationProfile) touch(now time.Time) {
	p.UpdatedAt = now
	p.Version++
}
