package projects

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/atelier-web/atelier/internal/platform/cache"
)

// Store is the persistence port used by the service.
type Store interface {
	List(ctx context.Context, publishedOnly bool) ([]Project, error)
	GetByID(ctx context.Context, id int64) (Project, error)
	GetPublishedBySlug(ctx context.Context, slug string) (Project, error)
	Create(ctx context.Context, p Project) (Project, error)
	Update(ctx context.Context, p Project) (Project, error)
	Delete(ctx context.Context, id int64) error
	Reorder(ctx context.Context, ids []int64) error
}

// Input carries the editable fields of a project.
type Input struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Slug        string   `json:"slug" validate:"omitempty,max=200"`
	Summary     string   `json:"summary" validate:"max=500"`
	Description string   `json:"description"`
	TechStack   []string `json:"tech_stack" validate:"max=20,dive,max=50"`
	RepoURL     string   `json:"repo_url" validate:"omitempty,url"`
	LiveURL     string   `json:"live_url" validate:"omitempty,url"`
	Featured    bool     `json:"featured"`
	SortOrder   int      `json:"sort_order"`
	Published   bool     `json:"published"`
}

// Service owns project workflows.
type Service struct {
	store  Store
	cache  *cache.Content
	logger *slog.Logger
}

func NewService(store Store, contentCache *cache.Content, logger *slog.Logger) *Service {
	return &Service{store: store, cache: contentCache, logger: logger}
}

// ListPublished serves the public portfolio listing, cached.
func (s *Service) ListPublished(ctx context.Context) ([]Project, error) {
	var out []Project
	err := s.cache.FetchJSON(ctx, "projects:published", &out, func(ctx context.Context) (any, error) {
		return s.store.List(ctx, true)
	})
	if err != nil {
		return nil, fmt.Errorf("list published projects: %w", err)
	}
	return out, nil
}

// GetPublished fetches one published project by slug, cached.
func (s *Service) GetPublished(ctx context.Context, slug string) (Project, error) {
	var out Project
	err := s.cache.FetchJSON(ctx, "projects:slug:"+slug, &out, func(ctx context.Context) (any, error) {
		return s.store.GetPublishedBySlug(ctx, slug)
	})
	return out, err
}

// ListAdmin returns every project for the admin screens.
func (s *Service) ListAdmin(ctx context.Context) ([]Project, error) {
	return s.store.List(ctx, false)
}

func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Project, error) {
	created, err := s.store.Create(ctx, s.fromInput(Project{}, in))
	if err != nil {
		return Project{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Project, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Project{}, err
	}
	updated, err := s.store.Update(ctx, s.fromInput(current, in))
	if err != nil {
		return Project{}, err
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

// Reorder rewrites sort_order to match the submitted id sequence.
func (s *Service) Reorder(ctx context.Context, ids []int64) error {
	if err := s.store.Reorder(ctx, ids); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) fromInput(base Project, in Input) Project {
	base.Title = strings.TrimSpace(in.Title)
	base.Slug = normalizeSlug(in.Slug, in.Title)
	base.Summary = strings.TrimSpace(in.Summary)
	base.Description = in.Description
	base.TechStack = in.TechStack
	base.RepoURL = strings.TrimSpace(in.RepoURL)
	base.LiveURL = strings.TrimSpace(in.LiveURL)
	base.Featured = in.Featured
	base.SortOrder = in.SortOrder
	base.Published = in.Published
	return base
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("content cache invalidation failed", "error", err)
	}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeSlug(slug, title string) string {
	src := slug
	if strings.TrimSpace(src) == "" {
		src = title
	}
	out := slugStrip.ReplaceAllString(strings.ToLower(src), "-")
	return strings.Trim(out, "-")
}
