package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Collect gathers every dashboard figure in one round of queries.
func (r *Repository) Collect(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM posts WHERE status = 'published'),
			(SELECT COUNT(*) FROM projects),
			(SELECT COUNT(*) FROM projects WHERE published),
			(SELECT COUNT(*) FROM offerings),
			(SELECT COUNT(*) FROM offerings WHERE active),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM media_objects WHERE uploaded)`).
		Scan(&stats.Posts.Total, &stats.Posts.Published,
			&stats.Projects.Total, &stats.Projects.Published,
			&stats.Offerings.Total, &stats.Offerings.Active,
			&stats.Users, &stats.Media)
	if err != nil {
		return DashboardStats{}, err
	}
	stats.Posts.Drafts = stats.Posts.Total - stats.Posts.Published

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM contact_messages GROUP BY status`)
	if err != nil {
		return DashboardStats{}, err
	}
	defer rows.Close()
	stats.Inbox = map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return DashboardStats{}, err
		}
		stats.Inbox[status] = n
	}
	return stats, rows.Err()
}
