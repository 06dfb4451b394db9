package seo

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atelier-web/atelier/internal/platform/cache"
)

const sitemapCacheKey = "seo:sitemap"

// Store is the persistence port used by the service.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	GetByPath(ctx context.Context, path string) (Entry, error)
	GetByID(ctx context.Context, id int64) (Entry, error)
	Upsert(ctx context.Context, e Entry) (Entry, error)
	Delete(ctx context.Context, id int64) error
}

// SlugLister feeds dynamic paths into the sitemap.
type SlugLister interface {
	PublishedSlugs(ctx context.Context) ([]string, error)
}

// Input carries the editable fields of an entry.
type Input struct {
	Path        string `json:"path" validate:"required,max=200,startswith=/"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=300"`
	OGImage     string `json:"og_image" validate:"omitempty,url"`
	NoIndex     bool   `json:"no_index"`
}

// Service owns page metadata and sitemap generation.
type Service struct {
	store    Store
	cache    *cache.Content
	baseURL  string
	posts    SlugLister
	projects SlugLister
	logger   *slog.Logger
}

func NewService(store Store, contentCache *cache.Content, baseURL string, posts, projects SlugLister, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		cache:    contentCache,
		baseURL:  strings.TrimRight(baseURL, "/"),
		posts:    posts,
		projects: projects,
		logger:   logger,
	}
}

// List returns all entries for the admin screen.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.store.List(ctx)
}

// ForPath returns metadata for a public page, cached.
func (s *Service) ForPath(ctx context.Context, path string) (Entry, error) {
	var out Entry
	err := s.cache.FetchJSON(ctx, "seo:path:"+path, &out, func(ctx context.Context) (any, error) {
		return s.store.GetByPath(ctx, path)
	})
	return out, err
}

// Save upserts an entry keyed by path.
func (s *Service) Save(ctx context.Context, in Input) (Entry, error) {
	saved, err := s.store.Upsert(ctx, Entry{
		Path:        in.Path,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		OGImage:     strings.TrimSpace(in.OGImage),
		NoIndex:     in.NoIndex,
	})
	if err != nil {
		return Entry{}, err
	}
	s.invalidate(ctx)
	return saved, nil
}

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

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// RebuildSitemap regenerates sitemap.xml and stores it in Redis. Called
// from the background worker on a schedule.
func (s *Service) RebuildSitemap(ctx context.Context) error {
	body, err := s.buildSitemap(ctx)
	if err != nil {
		return err
	}
	if err := s.cache.SetRaw(ctx, sitemapCacheKey, body, 0); err != nil {
		return fmt.Errorf("store sitemap: %w", err)
	}
	return nil
}

func (s *Service) buildSitemap(ctx context.Context) ([]byte, error) {
	var postSlugs, projectSlugs []string
	eg, egCtx := errgroup.WithContext(ctx)
	if s.posts != nil {
		eg.Go(func() error {
			slugs, err := s.posts.PublishedSlugs(egCtx)
			if err != nil {
				return fmt.Errorf("sitemap post slugs: %w", err)
			}
			postSlugs = slugs
			return nil
		})
	}
	if s.projects != nil {
		eg.Go(func() error {
			slugs, err := s.projects.PublishedSlugs(egCtx)
			if err != nil {
				return fmt.Errorf("sitemap project slugs: %w", err)
			}
			projectSlugs = slugs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	set := sitemapSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	now := time.Now().UTC().Format("2006-01-02")
	for _, p := range []string{"/", "/blog", "/projects", "/services", "/contact"} {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.baseURL + p, LastMod: now})
	}
	for _, slug := range postSlugs {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.baseURL + "/blog/" + slug, LastMod: now})
	}
	for _, slug := range projectSlugs {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.baseURL + "/projects/" + slug, LastMod: now})
	}

	payload, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), payload...), nil
}

// Sitemap returns the stored sitemap, rebuilding on a cold cache.
func (s *Service) Sitemap(ctx context.Context) ([]byte, error) {
	body, err := s.cache.GetRaw(ctx, sitemapCacheKey)
	if err == nil {
		return body, nil
	}
	body, err = s.buildSitemap(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetRaw(ctx, sitemapCacheKey, body, 0); err != nil {
		s.logger.Warn("sitemap cache store failed", "error", err)
	}
	return body, nil
}
