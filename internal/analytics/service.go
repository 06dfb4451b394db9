package analytics

import (
	"context"
	"fmt"

	"github.com/atelier-web/atelier/internal/platform/cache"
)

// Collector is the query port behind the dashboard.
type Collector interface {
	Collect(ctx context.Context) (DashboardStats, error)
}

// Service serves dashboard figures through the content cache so a busy
// admin screen does not hammer Postgres.
type Service struct {
	collector Collector
	cache     *cache.Content
}

func NewService(collector Collector, contentCache *cache.Content) *Service {
	return &Service{collector: collector, cache: contentCache}
}

// Dashboard returns the cached aggregate figures.
func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats
	err := s.cache.FetchJSON(ctx, "analytics:dashboard", &out, func(ctx context.Context) (any, error) {
		return s.collector.Collect(ctx)
	})
	if err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return out, nil
}
