package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	profilemodels "viewergate/internal/profile/models"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/httputil"
	"viewergate/pkg/platform/middleware/request"
	"viewergate/pkg/requestcontext"
)

// ProfileService is the signed-in viewer's profile and its settings actions.
type ProfileService interface {
	Current(ctx context.Context) *profilemodels.VerificationProfile
	GracePeriod() time.Duration
	ChangePassword(ctx context.Context, current, next string) error
	RequestDeletion(ctx context.Context) (*profilemodels.VerificationProfile, error)
	CancelDeletion(ctx context.Context) (*profilemodels.VerificationProfile, error)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type profileResponse struct {
	*profilemodels.VerificationProfile
	ErasureScheduledAt *time.Time `json:"erasure_scheduled_at,omitempty"`
}

// MeHandler serves the account settings surface.
type MeHandler struct {
	profiles ProfileService
	logger   *slog.Logger
}

func NewMeHandler(profiles ProfileService, logger *slog.Logger) *MeHandler {
	return &MeHandler{profiles: profiles, logger: logger}
}

func (h *MeHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/me", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/profile", h.handleGetProfile)
		r.Post("/password", h.handleChangePassword)
		r.Post("/deletion", h.handleRequestDeletion)
		r.Delete("/deletion", h.handleCancelDeletion)
	})
}

func (h *MeHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p := h.profiles.Current(r.Context())
	if p == nil {
		h.logger.WarnContext(r.Context(), "profile not loaded for authenticated session",
			"request_id", request.GetRequestID(r.Context()),
			"account_id", requestcontext.AccountID(r.Context()).String(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "profile is not loaded for this session"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.view(p))
}

func (h *MeHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req changePasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.profiles.ChangePassword(ctx, req.CurrentPassword, req.NewPassword); err != nil {
		h.logger.WarnContext(ctx, "password change failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeHandler) handleRequestDeletion(w http.ResponseWriter, r *http.Request) {
	h.writeMutation(w, r, "deletion request failed", h.profiles.RequestDeletion)
}

func (h *MeHandler) handleCancelDeletion(w http.ResponseWriter, r *http.Request) {
	h.writeMutation(w, r, "deletion cancel failed", h.profiles.CancelDeletion)
}

func (h *MeHandler) writeMutation(
	w http.ResponseWriter,
	r *http.Request,
	failure string,
	mutate func(context.Context) (*profilemodels.VerificationProfile, error),
) {
	ctx := r.Context()
	p, err := mutate(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, failure,
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.view(p))
}

func (h *MeHandler) view(p *profilemodels.VerificationProfile) profileResponse {
	return profileResponse{
		VerificationProfile: p,
		ErasureScheduledAt:  p.ErasureScheduledAt(h.profiles.GracePeriod()),
	}
}
