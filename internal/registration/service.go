// Package registration creates accounts. A submitted camera frame is run
// through a capture session first; only an accepted capture produces a
// verified profile.
package registration

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"viewergate/internal/account"
	"viewergate/internal/capture"
	"viewergate/internal/capture/camera"
	profilemodels "viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/audit"
)

const defaultMinPasswordLength = 6

type Accounts interface {
	Register(ctx context.Context, email, password string) (*account.Account, error)
	Remove(ctx context.Context, accountID id.AccountID) error
}

type Profiles interface {
	Register(ctx context.Context, accountID id.AccountID, details profilemodels.Details, acceptance *capture.Acceptance) (*profilemodels.VerificationProfile, error)
}

// Captures hands out one capture session per viewer.
type Captures interface {
	Start(ctx context.Context, viewerKey string, device camera.Device) (capture.StartResult, error)
	EndIf(viewerKey string, session *capture.Session)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Form is the registration submission. Frame is optional; without it the
// account is created unverified.
type Form struct {
	FullName         string
	Username         string
	Email            string
	Password         string
	Frame            []byte
	FrameContentType string
}

func (f Form) Details() profilemodels.Details {
	return profilemodels.Details{FullName: f.FullName, Username: f.Username, Email: f.Email}.Normalize()
}

// Validate checks the form fields. Password length counts characters, matching
// the account provider and password changes.
func (f Form) Validate(minPassword int) error {
	if err := f.Details().Validate(); err != nil {
		return err
	}
	if f.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if !account.PasswordLongEnough(f.Password, minPassword) {
		return dErrors.New(dErrors.CodeValidation, "password is too short")
	}
	return nil
}

type Result struct {
	Account *account.Account
	Profile *profilemodels.VerificationProfile
}

type Service struct {
	accounts       Accounts
	profiles       Profiles
	captures       Captures
	auditPublisher AuditPublisher
	logger         *slog.Logger
	minPassword    int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMinPasswordLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minPassword = n
		}
	}
}

func New(accounts Accounts, profiles Profiles, captures Captures, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, errors.New("account provider is required")
	}
	if profiles == nil {
		return nil, errors.New("profile service is required")
	}
	if captures == nil {
		return nil, errors.New("capture registry is required")
	}
	svc := &Service{
		accounts:    accounts,
		profiles:    profiles,
		captures:    captures,
		minPassword: defaultMinPasswordLength,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register validates the form, verifies the frame when one is supplied and
// creates the account and its profile. A rejected capture creates nothing. If
// the profile cannot be written the account is removed again.
func (s *Service) Register(ctx context.Context, form Form) (*Result, error) {
	if err := form.Validate(s.minPassword); err != nil {
		return nil, err
	}
	details := form.Details()

	var acceptance *capture.Acceptance
	if len(form.Frame) > 0 {
		a, err := s.verify(ctx, details.Email, form)
		if err != nil {
			return nil, err
		}
		acceptance = &a
	}

	acct, err := s.accounts.Register(ctx, details.Email, form.Password)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Register(ctx, acct.ID, details, acceptance)
	if err != nil {
		if rmErr := s.accounts.Remove(ctx, acct.ID); rmErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to roll back account after profile write failure",
				"account_id", acct.ID.String(),
				"error", rmErr,
			)
		}
		return nil, err
	}
	return &Result{Account: acct, Profile: profile}, nil
}

// verify runs one capture over the uploaded frame. The session is keyed by
// email so concurrent submissions for the same address share it.
func (s *Service) verify(ctx context.Context, email string, form Form) (capture.Acceptance, error) {
	key := "register:" + strings.ToLower(email)
	start, err := s.captures.Start(ctx, key, camera.NewUploadedFrame(form.Frame, form.FrameContentType))
	if err != nil {
		return capture.Acceptance{}, err
	}
	if start.Joined {
		return capture.Acceptance{}, dErrors.New(dErrors.CodeConflict, "a verification for this email is already in progress")
	}
	defer s.captures.EndIf(key, start.Session)

	out := start.Outcome
	if out.State == capture.StateStreaming {
		out, err = start.Session.Capture(ctx)
		if err != nil {
			return capture.Acceptance{}, err
		}
	}

	switch out.State {
	case capture.StateAccepted:
		acceptance, ok := start.Session.Acceptance()
		if !ok {
			return capture.Acceptance{}, dErrors.New(dErrors.CodeInternal, "accepted capture carried no acceptance")
		}
		s.audit(ctx, audit.EventVerificationAccepted, "accepted", "", out.SessionID)
		return acceptance, nil
	case capture.StateRejected:
		s.audit(ctx, audit.EventVerificationRejected, "rejected", string(out.Reason), out.SessionID)
		return capture.Acceptance{}, rejection(out.Reason)
	case capture.StateError:
		if dErrors.HasCode(out.Err, dErrors.CodePermissionDenied) {
			s.audit(ctx, audit.EventCapturePermission, "denied", "", out.SessionID)
			return capture.Acceptance{}, out.Err
		}
		s.audit(ctx, audit.EventCaptureFailed, "error", string(dErrors.CodeOf(out.Err)), out.SessionID)
		if dErrors.CodeOf(out.Err) == dErrors.CodeInternal {
			return capture.Acceptance{}, dErrors.Wrap(out.Err, dErrors.CodeInternal, "verification failed")
		}
		return capture.Acceptance{}, out.Err
	default:
		return capture.Acceptance{}, dErrors.New(dErrors.CodeInternal, "capture ended in state "+out.State.String())
	}
}

func rejection(reason capture.RejectReason) error {
	switch reason {
	case capture.ReasonNoFace:
		return dErrors.New(reason.Code(), "no face was detected in the frame")
	case capture.ReasonLowConfidence:
		return dErrors.New(reason.Code(), "the face could not be verified with enough confidence, please try again")
	default:
		return dErrors.New(dErrors.CodeInternal, "capture was rejected without a reason")
	}
}

func (s *Service) audit(ctx context.Context, event audit.AuditEvent, decision, reason, sessionID string) {
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:   string(event),
		Decision: decision,
		Reason:   reason,
		Subject:  sessionID,
	}, "session_id", sessionID)
}
