package offerings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atelier-web/atelier/internal/platform/cache"
)

// Store is the persistence port used by the service.
type Store interface {
	List(ctx context.Context, activeOnly bool) ([]Offering, error)
	GetByID(ctx context.Context, id int64) (Offering, error)
	Create(ctx context.Context, o Offering) (Offering, error)
	Update(ctx context.Context, o Offering) (Offering, error)
	Delete(ctx context.Context, id int64) error
}

// Input carries the editable fields of an offering.
type Input struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"required"`
	PriceNote   string `json:"price_note" validate:"max=120"`
	Active      bool   `json:"active"`
	SortOrder   int    `json:"sort_order"`
}

// Service owns offering workflows.
type Service struct {
	store  Store
	cache  *cache.Content
	logger *slog.Logger
}

func NewService(store Store, contentCache *cache.Content, logger *slog.Logger) *Service {
	return &Service{store: store, cache: contentCache, logger: logger}
}

// ListActive serves the public services page, cached.
func (s *Service) ListActive(ctx context.Context) ([]Offering, error) {
	var out []Offering
	err := s.cache.FetchJSON(ctx, "offerings:active", &out, func(ctx context.Context) (any, error) {
		return s.store.List(ctx, true)
	})
	if err != nil {
		return nil, fmt.Errorf("list active offerings: %w", err)
	}
	return out, nil
}

func (s *Service) ListAdmin(ctx context.Context) ([]Offering, error) {
	return s.store.List(ctx, false)
}

func (s *Service) Get(ctx context.Context, id int64) (Offering, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Offering, error) {
	created, err := s.store.Create(ctx, apply(Offering{}, in))
	if err != nil {
		return Offering{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Offering, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Offering{}, err
	}
	updated, err := s.store.Update(ctx, apply(current, in))
	if err != nil {
		return Offering{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func apply(base Offering, in Input) Offering {
	base.Name = strings.TrimSpace(in.Name)
	base.Description = in.Description
	base.PriceNote = strings.TrimSpace(in.PriceNote)
	base.Active = in.Active
	base.SortOrder = in.SortOrder
	return base
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("content cache invalidation failed", "error", err)
	}
}
