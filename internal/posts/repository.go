package posts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-web/atelier/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const postColumns = `id, title, slug, excerpt, body, status, author_id, published_at, created_at, updated_at`

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Body, &p.Status, &p.AuthorID, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, shared.ErrNotFound
	}
	return p, err
}

// List returns posts filtered by status ("" for all), newest first.
func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]Post, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE ($1 = '' OR status = $1)`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY COALESCE(published_at, created_at) DESC
		 LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetByID fetches a post.
func (r *Repository) GetByID(ctx context.Context, id int64) (Post, error) {
	return scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
}

// GetPublishedBySlug fetches a published post for the public site.
func (r *Repository) GetPublishedBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPost(r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = $1 AND status = $2`, slug, StatusPublished))
}

// Create inserts a post.
func (r *Repository) Create(ctx context.Context, p Post) (Post, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO posts (title, slug, excerpt, body, status, author_id, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING `+postColumns,
		p.Title, p.Slug, p.Excerpt, p.Body, p.Status, p.AuthorID, p.PublishedAt)
	created, err := scanPost(row)
	return created, mapUniqueViolation(err)
}

// Update rewrites mutable fields.
func (r *Repository) Update(ctx context.Context, p Post) (Post, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE posts SET title = $2, slug = $3, excerpt = $4, body = $5, status = $6, published_at = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+postColumns,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Body, p.Status, p.PublishedAt)
	updated, err := scanPost(row)
	return updated, mapUniqueViolation(err)
}

// Delete removes a post.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PublishedSlugs lists slugs of published posts for the sitemap.
func (r *Repository) PublishedSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT slug FROM posts WHERE status = $1 ORDER BY slug`, StatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		out = append(out, slug)
	}
	return out, rows.Err()
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
