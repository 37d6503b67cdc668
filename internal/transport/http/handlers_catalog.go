package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"viewergate/internal/catalog/service"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/httputil"
	"viewergate/pkg/platform/middleware/request"
)

// CatalogService is the viewer-adaptive catalog query surface.
type CatalogService interface {
	ListModels(ctx context.Context, req service.Request) (*service.Listing, error)
	ListCollabs(ctx context.Context, req service.Request) (*service.Listing, error)
	GetModel(ctx context.Context, key string) (*service.Detail, error)
}

// CatalogHandler serves catalog listings. Anonymous viewers are allowed and
// get the most restrictive tier.
type CatalogHandler struct {
	catalog CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) Register(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/catalog", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/models", h.handleListModels)
		r.Get("/models/{key}", h.handleGetModel)
		r.Get("/collabs", h.handleListCollabs)
	})
}

func (h *CatalogHandler) handleListModels(w http.ResponseWriter, r *http.Request) {
	h.writeListing(w, r, h.catalog.ListModels)
}

func (h *CatalogHandler) handleListCollabs(w http.ResponseWriter, r *http.Request) {
	h.writeListing(w, r, h.catalog.ListCollabs)
}

func (h *CatalogHandler) handleGetModel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	detail, err := h.catalog.GetModel(ctx, chi.URLParam(r, "key"))
	if err != nil {
		h.logFailure(ctx, "model lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

func (h *CatalogHandler) writeListing(
	w http.ResponseWriter,
	r *http.Request,
	list func(context.Context, service.Request) (*service.Listing, error),
) {
	ctx := r.Context()
	req, err := listingRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	listing, err := list(ctx, req)
	if err != nil {
		h.logFailure(ctx, "catalog listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *CatalogHandler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
}

func listingRequest(r *http.Request) (service.Request, error) {
	q := r.URL.Query()
	req := service.Request{
		Query:    q.Get("q"),
		QuerySet: q.Has("q"),
		Cursor:   q.Get("cursor"),
	}
	var err error
	if req.Page, err = intParam(q.Get("page"), "page"); err != nil {
		return service.Request{}, err
	}
	if req.PageSize, err = intParam(q.Get("page_size"), "page_size"); err != nil {
		return service.Request{}, err
	}
	return req, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a positive integer")
	}
	return n, nil
}
