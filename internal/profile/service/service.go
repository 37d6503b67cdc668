package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"viewergate/internal/account"
	"viewergate/internal/capture"
	"viewergate/internal/platform/metrics"
	"viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/audit"
	"viewergate/pkg/platform/sentinel"
	"viewergate/pkg/requestcontext"
)

// Repository is the durable profile store.
type Repository interface {
	Create(ctx context.Context, p *models.VerificationProfile) error
	Update(ctx context.Context, p *models.VerificationProfile) error
	FindByAccountID(ctx context.Context, accountID id.AccountID) (*models.VerificationProfile, error)
}

// Cache holds the profiles of signed-in accounts.
type Cache interface {
	Get(ctx context.Context, accountID id.AccountID) (*models.VerificationProfile, error)
	Set(ctx context.Context, p *models.VerificationProfile) error
	Delete(ctx context.Context, accountID id.AccountID) error
}

// PasswordChanger is the slice of the account provider used by settings.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, accountID id.AccountID, current, next string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the single writer of verification profiles and the read path
// every visibility decision goes through.
//
// Writes reach the repository first; the cache only changes after the
// repository accepted the write, so a failed write leaves the previous profile
// visible. At most one write per account is in flight at a time.
type Service struct {
	repo           Repository
	cache          Cache
	passwords      PasswordChanger
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	gracePeriod    time.Duration
	minPassword    int

	inflightMu sync.Mutex
	inflight   map[id.AccountID]struct{}
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPasswordChanger(p PasswordChanger) Option {
	return func(s *Service) { s.passwords = p }
}

func WithDeletionGracePeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.gracePeriod = d
		}
	}
}

func WithMinPasswordLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minPassword = n
		}
	}
}

func New(repo Repository, cache Cache, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("profile repository is required")
	}
	if cache == nil {
		return nil, errors.New("profile cache is required")
	}
	svc := &Service{
		repo:        repo,
		cache:       cache,
		gracePeriod: models.DeletionGracePeriod,
		minPassword: 6,
		inflight:    make(map[id.AccountID]struct{}),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GracePeriod is the configured wait before a deletion can be executed.
func (s *Service) GracePeriod() time.Duration { return s.gracePeriod }

// Load reads the account's profile from the repository into the cache. Called
// on sign-in.
func (s *Service) Load(ctx context.Context, accountID id.AccountID) (*models.VerificationProfile, error) {
	p, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	if err := s.cache.Set(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cache profile")
	}
	return p.Clone(), nil
}

// Invalidate drops the cached profile. Called on sign-out.
func (s *Service) Invalidate(ctx context.Context, accountID id.AccountID) error {
	if err := s.cache.Delete(ctx, accountID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate profile")
	}
	return nil
}

// Current returns a copy of the signed-in viewer's profile, or nil when the
// viewer is anonymous, the profile is not loaded, or the cache is unreachable.
func (s *Service) Current(ctx context.Context) *models.VerificationProfile {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return nil
	}
	p, err := s.cache.Get(ctx, accountID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) && s.logger != nil {
			s.logger.WarnContext(ctx, "profile cache read failed",
				"account_id", accountID.String(),
				"error", err,
			)
		}
		return nil
	}
	if p.Validate() != nil {
		return nil
	}
	return p
}

// Register creates the account's profile. Passing an acceptance from a
// capture session marks it verified; nil creates an unverified profile.
func (s *Service) Register(ctx context.Context, accountID id.AccountID, details models.Details, acceptance *capture.Acceptance) (*models.VerificationProfile, error) {
	p, err := models.NewProfile(accountID, details, acceptance, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	release, err := s.beginWrite(accountID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.repo.Create(ctx, p); err != nil {
		s.metrics.IncrementProfileWrite("register", "failed")
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "profile already exists")
		}
		s.auditWriteFailure(ctx, accountID, "register", err)
		return nil, dErrors.Wrap(err, dErrors.CodeProfileWriteFailed, "failed to create profile")
	}
	s.metrics.IncrementProfileWrite("register", "ok")
	s.commit(ctx, p)

	event := audit.Event{
		AccountID: accountID,
		Action:    string(audit.EventRegistrationCompleted),
		Subject:   p.Username,
		Decision:  "unverified",
	}
	if p.IsVerified {
		event.Decision = "verified"
	}
	audit.Log(ctx, s.logger, s.auditPublisher, event, "is_verified", p.IsVerified)
	return p.Clone(), nil
}

// ChangePassword delegates to the account provider after checking the new
// password's length. The profile itself is unchanged.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	accountID, err := s.requireAccount(ctx)
	if err != nil {
		return err
	}
	if s.passwords == nil {
		return dErrors.New(dErrors.CodeInternal, "password changes are not configured")
	}
	if current == "" {
		return dErrors.New(dErrors.CodeValidation, "current password is required")
	}
	if !account.PasswordLongEnough(next, s.minPassword) {
		return dErrors.New(dErrors.CodeValidation, "new password is too short")
	}
	release, err := s.beginWrite(accountID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.passwords.ChangePassword(ctx, accountID, current, next); err != nil {
		s.metrics.IncrementProfileWrite("change_password", "failed")
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) || dErrors.HasCode(err, dErrors.CodeValidation) {
			return err
		}
		s.auditWriteFailure(ctx, accountID, "change_password", err)
		return dErrors.Wrap(err, dErrors.CodeProfileWriteFailed, "failed to change password")
	}
	s.metrics.IncrementProfileWrite("change_password", "ok")
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: accountID,
		Action:    string(audit.EventPasswordChanged),
	})
	return nil
}

// RequestDeletion schedules the signed-in account for erasure after the
// grace period.
func (s *Service) RequestDeletion(ctx context.Context) (*models.VerificationProfile, error) {
	return s.mutate(ctx, "request_deletion", audit.EventDeletionRequested,
		func(p *models.VerificationProfile) error { return p.CanRequestDeletion() },
		func(p *models.VerificationProfile, now time.Time) { p.RequestDeletion(now) },
	)
}

// CancelDeletion clears a pending deletion request.
func (s *Service) CancelDeletion(ctx context.Context) (*models.VerificationProfile, error) {
	return s.mutate(ctx, "cancel_deletion", audit.EventDeletionCancelled,
		func(p *models.VerificationProfile) error { return p.CanCancelDeletion() },
		func(p *models.VerificationProfile, now time.Time) { p.CancelDeletion(now) },
	)
}

func (s *Service) mutate(
	ctx context.Context,
	action string,
	event audit.AuditEvent,
	check func(*models.VerificationProfile) error,
	apply func(*models.VerificationProfile, time.Time),
) (*models.VerificationProfile, error) {
	accountID, err := s.requireAccount(ctx)
	if err != nil {
		return nil, err
	}
	release, err := s.beginWrite(accountID)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.cache.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "profile is not loaded for this session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read profile")
	}
	if err := check(current); err != nil {
		return nil, err
	}

	next := current.Clone()
	apply(next, requestcontext.Now(ctx))
	if err := s.repo.Update(ctx, next); err != nil {
		s.metrics.IncrementProfileWrite(action, "failed")
		s.auditWriteFailure(ctx, accountID, action, err)
		return nil, dErrors.Wrap(err, dErrors.CodeProfileWriteFailed, "failed to update profile")
	}
	s.metrics.IncrementProfileWrite(action, "ok")
	s.commit(ctx, next)

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: accountID,
		Action:    string(event),
	})
	return next.Clone(), nil
}

// commit publishes a persisted profile to the cache. If the cache rejects it
// the stale entry is evicted so readers fail closed instead of seeing old data.
func (s *Service) commit(ctx context.Context, p *models.VerificationProfile) {
	if err := s.cache.Set(ctx, p); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to cache profile after write",
				"account_id", p.AccountID.String(),
				"error", err,
			)
		}
		_ = s.cache.Delete(ctx, p.AccountID)
	}
}

func (s *Service) requireAccount(ctx context.Context) (id.AccountID, error) {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return id.AccountID{}, dErrors.New(dErrors.CodeUnauthorized, "sign in required")
	}
	return accountID, nil
}

func (s *Service) beginWrite(accountID id.AccountID) (func(), error) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[accountID]; busy {
		return nil, dErrors.New(dErrors.CodeWriteInFlight, "a previous change is still being saved")
	}
	s.inflight[accountID] = struct{}{}
	return func() {
		s.inflightMu.Lock()
		delete(s.inflight, accountID)
		s.inflightMu.Unlock()
	}, nil
}

func (s *Service) auditWriteFailure(ctx context.Context, accountID id.AccountID, action string, err error) {
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: accountID,
		Action:    string(audit.EventProfileWriteFailed),
		Subject:   action,
		Reason:    err.Error(),
	})
}
