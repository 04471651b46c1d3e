package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rohan-b84/stackroom/internal/models"
)

type StatsStore struct {
	pool *pgxpool.Pool
}

func NewStatsStore(pool *pgxpool.Pool) *StatsStore {
	return &StatsStore{pool: pool}
}

// DashboardStats computes the dashboard aggregates in one round trip.
// Savings only counts recommendations that carry both a current and a
// potential cost and haven't been dismissed.
func (s *StatsStore) DashboardStats(ctx context.Context, orgID uuid.UUID) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT count(*) FROM applications WHERE org_id = $1),
			(SELECT coalesce(sum(total_licenses), 0) FROM licenses WHERE org_id = $1),
			(SELECT coalesce(sum(active_users), 0) FROM licenses WHERE org_id = $1),
			(SELECT coalesce(sum(monthly_cost), 0)::float8 FROM applications WHERE org_id = $1),
			(SELECT coalesce(sum(current_cost - potential_cost), 0)::float8
				FROM recommendations
				WHERE org_id = $1 AND NOT dismissed
					AND current_cost IS NOT NULL AND potential_cost IS NOT NULL)`

	var stats models.DashboardStats
	err := s.pool.QueryRow(ctx, query, orgID).Scan(
		&stats.TotalApplications,
		&stats.TotalLicenses,
		&stats.TotalActiveLicenses,
		&stats.MonthlySpend,
		&stats.PotentialSavings,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}
