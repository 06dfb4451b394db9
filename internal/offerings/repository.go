package offerings

import (
	"context"
	"errors"

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

const offeringColumns = `id, name, description, price_note, active, sort_order, created_at, updated_at`

func scanOffering(row pgx.Row) (Offering, error) {
	var o Offering
	err := row.Scan(&o.ID, &o.Name, &o.Description, &o.PriceNote, &o.Active, &o.SortOrder, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Offering{}, shared.ErrNotFound
	}
	return o, err
}

// List returns offerings in display order. activeOnly restricts the set
// for the public site.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Offering, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+offeringColumns+` FROM offerings
		 WHERE (NOT $1 OR active)
		 ORDER BY sort_order ASC, name ASC`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Offering
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Offering, error) {
	return scanOffering(r.pool.QueryRow(ctx, `SELECT `+offeringColumns+` FROM offerings WHERE id = $1`, id))
}

func (r *Repository) Create(ctx context.Context, o Offering) (Offering, error) {
	return scanOffering(r.pool.QueryRow(ctx,
		`INSERT INTO offerings (name, description, price_note, active, sort_order, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+offeringColumns,
		o.Name, o.Description, o.PriceNote, o.Active, o.SortOrder))
}

func (r *Repository) Update(ctx context.Context, o Offering) (Offering, error) {
	return scanOffering(r.pool.QueryRow(ctx,
		`UPDATE offerings SET name = $2, description = $3, price_note = $4, active = $5, sort_order = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+offeringColumns,
		o.ID, o.Name, o.Description, o.PriceNote, o.Active, o.SortOrder))
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offerings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
