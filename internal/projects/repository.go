package projects

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

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, title, slug, summary, description, tech_stack, repo_url, live_url, featured, sort_order, published, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Summary, &p.Description, &p.TechStack,
		&p.RepoURL, &p.LiveURL, &p.Featured, &p.SortOrder, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, shared.ErrNotFound
	}
	return p, err
}

// List returns projects ordered by sort_order then recency. publishedOnly
// restricts the set for the public site.
func (r *Repository) List(ctx context.Context, publishedOnly bool) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE (NOT $1 OR published)
		 ORDER BY sort_order ASC, created_at DESC`, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (r *Repository) GetPublishedBySlug(ctx context.Context, slug string) (Project, error) {
	return scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE slug = $1 AND published`, slug))
}

func (r *Repository) Create(ctx context.Context, p Project) (Project, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO projects (title, slug, summary, description, tech_stack, repo_url, live_url, featured, sort_order, published, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		 RETURNING `+projectColumns,
		p.Title, p.Slug, p.Summary, p.Description, p.TechStack, p.RepoURL, p.LiveURL, p.Featured, p.SortOrder, p.Published)
	created, err := scanProject(row)
	return created, mapUniqueViolation(err)
}

func (r *Repository) Update(ctx context.Context, p Project) (Project, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE projects SET title = $2, slug = $3, summary = $4, description = $5, tech_stack = $6,
		        repo_url = $7, live_url = $8, featured = $9, sort_order = $10, published = $11, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+projectColumns,
		p.ID, p.Title, p.Slug, p.Summary, p.Description, p.TechStack, p.RepoURL, p.LiveURL, p.Featured, p.SortOrder, p.Published)
	updated, err := scanProject(row)
	return updated, mapUniqueViolation(err)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Reorder applies the given id order in a single transaction.
func (r *Repository) Reorder(ctx context.Context, ids []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for i, id := range ids {
		tag, err := tx.Exec(ctx, `UPDATE projects SET sort_order = $2, updated_at = NOW() WHERE id = $1`, id, i)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
	}
	return tx.Commit(ctx)
}

// PublishedSlugs lists slugs of published projects for the sitemap.
func (r *Repository) PublishedSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT slug FROM projects WHERE published ORDER BY slug`)
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
