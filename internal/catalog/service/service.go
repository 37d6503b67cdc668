// Package service is the catalog query surface. Every listing runs the same
// pipeline: competitor exclusion, then the free-text query, then pagination.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"viewergate/internal/catalog/models"
	"viewergate/internal/platform/metrics"
	profilemodels "viewergate/internal/profile/models"
	"viewergate/internal/visibility"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/sentinel"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// Store is the catalog data source.
type Store interface {
	ListEntities(ctx context.Context) ([]models.Entity, error)
	FindEntity(ctx context.Context, key string) (*models.Entity, error)
	ListCollabs(ctx context.Context) ([]models.Collab, error)
}

// ProfileReader yields the signed-in viewer's profile, or nil.
type ProfileReader interface {
	Current(ctx context.Context) *profilemodels.VerificationProfile
}

// Resolver decides visibility and exclusion per subject.
type Resolver interface {
	Resolve(p *profilemodels.VerificationProfile, subject visibility.Subject, surface visibility.Surface) visibility.Decision
	Excludes(p *profilemodels.VerificationProfile, subject visibility.Subject) bool
}

type Service struct {
	store           Store
	profiles        ProfileReader
	resolver        Resolver
	logger          *slog.Logger
	metrics         *metrics.Metrics
	defaultPageSize int
	maxPageSize     int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPageSizes sets the page size used when none is requested and the
// largest one accepted. Non-positive values keep the defaults.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *Service) {
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
		if defaultSize > 0 {
			s.defaultPageSize = min(defaultSize, s.maxPageSize)
		}
	}
}

func New(store Store, profiles ProfileReader, resolver Resolver, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("catalog store is required")
	}
	if profiles == nil {
		return nil, errors.New("profile reader is required")
	}
	if resolver == nil {
		return nil, errors.New("visibility resolver is required")
	}
	svc := &Service{
		store:           store,
		profiles:        profiles,
		resolver:        resolver,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ListModels returns one page of model cards for the current viewer.
func (s *Service) ListModels(ctx context.Context, req Request) (*Listing, error) {
	cursor, err := s.cursorFor(req)
	if err != nil {
		return nil, err
	}
	entities, err := s.store.ListEntities(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog")
	}

	viewer := s.profiles.Current(ctx)
	kept := make([]models.Entity, 0, len(entities))
	for _, e := range entities {
		if !s.resolver.Excludes(viewer, entitySubject(e)) {
			kept = append(kept, e)
		}
	}
	matched := models.Filter(kept, cursor.Query)
	page, more := models.Paginate(matched, cursor.Page, cursor.PageSize)
	s.metrics.ObserveCatalogResults("models", len(matched))

	cards := make([]Card, 0, len(page))
	for _, e := range page {
		cards = append(cards, s.entityCard(viewer, e, visibility.SurfaceGrid))
	}
	return newListing(cards, cursor, len(matched), len(kept), more), nil
}

// ListCollabs returns one page of collab cards. Collabs with the same member
// set are collapsed before anything else happens.
func (s *Service) ListCollabs(ctx context.Context, req Request) (*Listing, error) {
	cursor, err := s.cursorFor(req)
	if err != nil {
		return nil, err
	}
	collabs, byKey, err := s.loadCollabs(ctx)
	if err != nil {
		return nil, err
	}

	viewer := s.profiles.Current(ctx)
	kept := s.visibleCollabs(viewer, collabs, byKey)
	matched := models.Filter(kept, cursor.Query)
	page, more := models.Paginate(matched, cursor.Page, cursor.PageSize)
	s.metrics.ObserveCatalogResults("collabs", len(matched))

	cards := make([]Card, 0, len(page))
	for _, c := range page {
		cards = append(cards, s.collabCard(viewer, c, byKey))
	}
	return newListing(cards, cursor, len(matched), len(kept), more), nil
}

// GetModel returns the detail view of one model with the collabs it appears
// in. A model excluded for this viewer is reported as not found.
func (s *Service) GetModel(ctx context.Context, key string) (*Detail, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "model key is required")
	}

	var (
		entity  *models.Entity
		collabs []models.Collab
		byKey   map[string]models.Entity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.store.FindEntity(gctx, key)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "model not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load model")
		}
		entity = e
		return nil
	})
	g.Go(func() error {
		var err error
		collabs, byKey, err = s.loadCollabs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	viewer := s.profiles.Current(ctx)
	if s.resolver.Excludes(viewer, entitySubject(*entity)) {
		return nil, dErrors.New(dErrors.CodeNotFound, "model not found")
	}

	detail := &Detail{Model: s.entityCard(viewer, *entity, visibility.SurfaceDetail)}
	for _, c := range s.visibleCollabs(viewer, collabs, byKey) {
		if c.HasMember(entity.Key) {
			detail.Collabs = append(detail.Collabs, s.collabCard(viewer, c, byKey))
		}
	}
	return detail, nil
}

// loadCollabs fetches collabs and entities concurrently. Entities supply the
// member covers and names shown on collab cards.
func (s *Service) loadCollabs(ctx context.Context) ([]models.Collab, map[string]models.Entity, error) {
	var (
		collabs  []models.Collab
		entities []models.Entity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		collabs, err = s.store.ListCollabs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entities, err = s.store.ListEntities(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog")
	}

	byKey := make(map[string]models.Entity, len(entities))
	for _, e := range entities {
		byKey[strings.ToLower(e.Key)] = e
	}
	return models.DedupeCollabs(collabs), byKey, nil
}

func (s *Service) visibleCollabs(viewer *profilemodels.VerificationProfile, collabs []models.Collab, byKey map[string]models.Entity) []models.Collab {
	kept := make([]models.Collab, 0, len(collabs))
	for _, c := range collabs {
		if !s.resolver.Excludes(viewer, collabSubject(c, byKey)) {
			kept = append(kept, c)
		}
	}
	return kept
}

func (s *Service) cursorFor(req Request) (models.Cursor, error) {
	if req.PageSize < 0 || req.Page < 0 {
		return models.Cursor{}, dErrors.New(dErrors.CodeBadRequest, "page and page_size must be positive")
	}
	size := req.PageSize
	if size > s.maxPageSize {
		size = s.maxPageSize
	}

	if req.Cursor != "" {
		c, err := models.DecodeCursor(req.Cursor)
		if err != nil {
			return models.Cursor{}, err
		}
		if req.QuerySet || req.Query != "" {
			c = c.WithQuery(req.Query)
		}
		if size != 0 {
			c = c.WithPageSize(size)
		}
		if c.PageSize > s.maxPageSize {
			c = c.WithPageSize(s.maxPageSize)
		}
		return c, nil
	}

	if size == 0 {
		size = s.defaultPageSize
	}
	c := models.NewCursor(req.Query, size)
	if req.Page > 1 {
		c.Page = req.Page
	}
	return c, nil
}
