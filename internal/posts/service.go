package posts

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/atelier-web/atelier/internal/platform/cache"
	"github.com/atelier-web/atelier/internal/shared"
)

// Store is the persistence port used by the service.
type Store interface {
	List(ctx context.Context, status string, limit, offset int) ([]Post, int, error)
	GetByID(ctx context.Context, id int64) (Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (Post, error)
	Create(ctx context.Context, p Post) (Post, error)
	Update(ctx context.Context, p Post) (Post, error)
	Delete(ctx context.Context, id int64) error
}

// Input carries the editable fields of a post.
type Input struct {
	Title   string `json:"title" validate:"required,max=200"`
	Slug    string `json:"slug" validate:"omitempty,max=200"`
	Excerpt string `json:"excerpt" validate:"max=500"`
	Body    string `json:"body" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=draft published"`
}

// ListPage is a paginated listing.
type ListPage struct {
	Posts      []Post            `json:"posts"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service owns post workflows and the published-content cache.
type Service struct {
	store  Store
	cache  *cache.Content
	logger *slog.Logger
}

func NewService(store Store, contentCache *cache.Content, logger *slog.Logger) *Service {
	return &Service{store: store, cache: contentCache, logger: logger}
}

// ListAdmin returns posts in any status for the admin screens.
func (s *Service) ListAdmin(ctx context.Context, status string, page, perPage int) (ListPage, error) {
	items, total, err := s.store.List(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return ListPage{}, fmt.Errorf("list posts: %w", err)
	}
	return ListPage{Posts: items, Pagination: shared.NewPagination(page, perPage, total)}, nil
}

// ListPublished serves the public listing through the content cache.
func (s *Service) ListPublished(ctx context.Context, page, perPage int) (ListPage, error) {
	key := fmt.Sprintf("posts:published:%d:%d", page, perPage)
	var out ListPage
	err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		items, total, err := s.store.List(ctx, StatusPublished, perPage, (page-1)*perPage)
		if err != nil {
			return nil, err
		}
		return ListPage{Posts: items, Pagination: shared.NewPagination(page, perPage, total)}, nil
	})
	if err != nil {
		return ListPage{}, fmt.Errorf("list published posts: %w", err)
	}
	return out, nil
}

// GetPublished fetches one published post by slug, cached.
func (s *Service) GetPublished(ctx context.Context, slug string) (Post, error) {
	var out Post
	err := s.cache.FetchJSON(ctx, "posts:slug:"+slug, &out, func(ctx context.Context) (any, error) {
		return s.store.GetPublishedBySlug(ctx, slug)
	})
	return out, err
}

// Get fetches a post regardless of status.
func (s *Service) Get(ctx context.Context, id int64) (Post, error) {
	return s.store.GetByID(ctx, id)
}

// Create stores a new post. Publishing stamps published_at.
func (s *Service) Create(ctx context.Context, authorID int64, in Input) (Post, error) {
	p := Post{
		Title:    strings.TrimSpace(in.Title),
		Slug:     normalizeSlug(in.Slug, in.Title),
		Excerpt:  strings.TrimSpace(in.Excerpt),
		Body:     in.Body,
		Status:   in.Status,
		AuthorID: authorID,
	}
	if p.Status == StatusPublished {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	created, err := s.store.Create(ctx, p)
	if err != nil {
		return Post{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update rewrites a post. A draft gaining published status is stamped once.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Post, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	current.Title = strings.TrimSpace(in.Title)
	current.Slug = normalizeSlug(in.Slug, in.Title)
	current.Excerpt = strings.TrimSpace(in.Excerpt)
	current.Body = in.Body
	if in.Status == StatusPublished && current.Status != StatusPublished {
		now := time.Now().UTC()
		current.PublishedAt = &now
	}
	current.Status = in.Status
	updated, err := s.store.Update(ctx, current)
	if err != nil {
		return Post{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
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
