package media

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
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

const objectColumns = `id, key, file_name, content_type, size_bytes, uploaded, uploaded_by, created_at`

func scanObject(row pgx.Row) (Object, error) {
	var o Object
	err := row.Scan(&o.ID, &o.Key, &o.FileName, &o.ContentType, &o.SizeBytes, &o.Uploaded, &o.UploadedBy, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Object{}, shared.ErrNotFound
	}
	return o, err
}

// List returns uploaded objects, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Object, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media_objects WHERE uploaded`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+objectColumns+` FROM media_objects
		 WHERE uploaded
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Object
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Object, error) {
	return scanObject(r.pool.QueryRow(ctx, `SELECT `+objectColumns+` FROM media_objects WHERE id = $1`, id))
}

// Create records a pending upload.
func (r *Repository) Create(ctx context.Context, o Object) (Object, error) {
	return scanObject(r.pool.QueryRow(ctx,
		`INSERT INTO media_objects (key, file_name, content_type, size_bytes, uploaded, uploaded_by, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5, NOW())
		 RETURNING `+objectColumns,
		o.Key, o.FileName, o.ContentType, o.SizeBytes, o.UploadedBy))
}

// MarkUploaded confirms the client finished the presigned PUT.
func (r *Repository) MarkUploaded(ctx context.Context, id int64) (Object, error) {
	return scanObject(r.pool.QueryRow(ctx,
		`UPDATE media_objects SET uploaded = TRUE WHERE id = $1 RETURNING `+objectColumns, id))
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media_objects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// StaleUnconfirmed lists pending uploads older than the cutoff, for the
// prune job.
func (r *Repository) StaleUnconfirmed(ctx context.Context, olderThan time.Duration) ([]Object, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+objectColumns+` FROM media_objects
		 WHERE NOT uploaded AND created_at < $1`, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Object
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
