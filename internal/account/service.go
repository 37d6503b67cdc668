package account

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	id "viewergate/pkg/domain"
	dErrors "viewergate/pkg/domain-errors"
	emailaddr "viewergate/pkg/email"
	"viewergate/pkg/platform/sentinel"
	"viewergate/pkg/requestcontext"
)

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, accountID id.AccountID) error
	FindByID(ctx context.Context, accountID id.AccountID) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
}

// Service is the email/password account provider.
type Service struct {
	store       Store
	logger      *slog.Logger
	minPassword int
	cost        int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMinPasswordLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minPassword = n
		}
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	svc := &Service{
		store:       store,
		minPassword: 6,
		cost:        bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register creates an account. The returned ID keys the verification profile.
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	email = emailaddr.Normalize(email)
	if !emailaddr.Valid(email) {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if err := s.checkPassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	now := requestcontext.Now(ctx)
	a := &Account{
		ID:           id.NewAccountID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	return a, nil
}

// Authenticate checks an email and password pair. Unknown emails and wrong
// passwords produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	a, err := s.store.FindByEmail(ctx, emailaddr.Normalize(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "sign-in rejected",
				"account_id", a.ID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	return a, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, accountID id.AccountID, current, next string) error {
	if err := s.checkPassword(next); err != nil {
		return err
	}
	a, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(current)) != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	a.PasswordHash = hash
	a.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, a); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}
	return nil
}

// Remove deletes an account. Registration uses it to undo an account whose
// profile could not be written.
func (s *Service) Remove(ctx context.Context, accountID id.AccountID) error {
	if err := s.store.Delete(ctx, accountID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove account")
	}
	return nil
}

func (s *Service) checkPassword(password string) error {
	if !PasswordLongEnough(password, s.minPassword) {
		return dErrors.New(dErrors.CodeValidation, "password is too short")
	}
	// bcrypt ignores everything past 72 bytes.
	if len(password) > 72 {
		return dErrors.New(dErrors.CodeValidation, "password is too long")
	}
	return nil
}
