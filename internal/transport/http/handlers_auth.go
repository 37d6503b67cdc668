package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"viewergate/internal/account"
	"viewergate/internal/account/token"
	profilemodels "viewergate/internal/profile/models"
	"viewergate/internal/registration"
	id "viewergate/pkg/domain"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/httputil"
	"viewergate/pkg/platform/middleware/auth"
	"viewergate/pkg/platform/middleware/request"
)

// Registrar runs the registration flow.
type Registrar interface {
	Register(ctx context.Context, form registration.Form) (*registration.Result, error)
}

// Authenticator checks sign-in credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*account.Account, error)
}

// SessionIssuer mints session tokens.
type SessionIssuer interface {
	Issue(accountID id.AccountID) (*token.Session, error)
}

// SessionRevoker blocks a token until it would have expired anyway.
type SessionRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// ProfileSessions loads the profile on sign-in and drops it on sign-out.
type ProfileSessions interface {
	Load(ctx context.Context, accountID id.AccountID) (*profilemodels.VerificationProfile, error)
	Invalidate(ctx context.Context, accountID id.AccountID) error
}

type registerRequest struct {
	FullName         string `json:"full_name"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Frame            []byte `json:"frame,omitempty"`
	FrameContentType string `json:"frame_content_type,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string                             `json:"access_token"`
	TokenType   string                             `json:"token_type"`
	ExpiresAt   time.Time                          `json:"expires_at"`
	Profile     *profilemodels.VerificationProfile `json:"profile"`
}

// AuthHandler serves registration, sign-in and sign-out.
type AuthHandler struct {
	registrar     Registrar
	authenticator Authenticator
	sessions      SessionIssuer
	revoker       SessionRevoker
	profiles      ProfileSessions
	logger        *slog.Logger
}

func NewAuthHandler(
	registrar Registrar,
	authenticator Authenticator,
	sessions SessionIssuer,
	revoker SessionRevoker,
	profiles ProfileSessions,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		registrar:     registrar,
		authenticator: authenticator,
		sessions:      sessions,
		revoker:       revoker,
		profiles:      profiles,
		logger:        logger,
	}
}

// Register mounts the auth routes. Logout needs a valid session; the others
// are public.
func (h *AuthHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.With(requireAuth).Post("/auth/logout", h.handleLogout)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req registerRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid registration request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.registrar.Register(ctx, registration.Form{
		FullName:         req.FullName,
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		Frame:            req.Frame,
		FrameContentType: req.FrameContentType,
	})
	if err != nil {
		h.logFailure(ctx, "registration failed", err)
		httputil.WriteError(w, err)
		return
	}

	session, err := h.sessions.Issue(res.Account.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session after registration",
			"request_id", requestID,
			"account_id", res.Account.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start session"))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newSessionResponse(session, res.Profile))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "email and password are required"))
		return
	}

	acct, err := h.authenticator.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.logFailure(ctx, "sign-in failed", err)
		httputil.WriteError(w, err)
		return
	}
	profile, err := h.profiles.Load(ctx, acct.ID)
	if err != nil {
		h.logFailure(ctx, "failed to load profile on sign-in", err)
		httputil.WriteError(w, err)
		return
	}
	session, err := h.sessions.Issue(acct.ID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start session"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newSessionResponse(session, profile))
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := auth.GetClaims(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "claims missing from context despite auth middleware",
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	if err := h.revoker.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		h.logFailure(ctx, "failed to revoke session", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign out"))
		return
	}
	if err := h.profiles.Invalidate(ctx, claims.AccountID); err != nil {
		h.logFailure(ctx, "failed to drop cached profile on sign-out", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
}

func newSessionResponse(s *token.Session, p *profilemodels.VerificationProfile) sessionResponse {
	return sessionResponse{
		AccessToken: s.Token,
		TokenType:   "Bearer",
		ExpiresAt:   s.ExpiresAt,
		Profile:     p,
	}
}
