package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rohan-b84/stackroom/internal/models"
)

type SpendingStore struct {
	pool *pgxpool.Pool
}

func NewSpendingStore(pool *pgxpool.Pool) *SpendingStore {
	return &SpendingStore{pool: pool}
}

func (s *SpendingStore) Create(ctx context.Context, e *models.SpendingEntry) (*models.SpendingEntry, error) {
	query := `
		INSERT INTO spending_history (org_id, month, year, total_spend, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, org_id, month, year, total_spend, created_at`

	var out models.SpendingEntry
	err := s.pool.QueryRow(ctx, query, e.OrgID, e.Month, e.Year, e.TotalSpend).Scan(
		&out.ID,
		&out.OrgID,
		&out.Month,
		&out.Year,
		&out.TotalSpend,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert spending entry: %w", err)
	}
	return &out, nil
}

// ListByOrg returns entries in chart order. Month is stored as a short
// name ("Jan".."Dec"), so the ordering has to map names back to positions.
func (s *SpendingStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.SpendingEntry, error) {
	query := `
		SELECT id, org_id, month, year, total_spend, created_at
		FROM spending_history
		WHERE org_id = $1
		ORDER BY year,
			array_position(ARRAY['Jan','Feb','Mar','Apr','May','Jun','Jul','Aug','Sep','Oct','Nov','Dec']::text[], month)`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list spending history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.SpendingEntry, 0)
	for rows.Next() {
		var e models.SpendingEntry
		if err := rows.Scan(
			&e.ID,
			&e.OrgID,
			&e.Month,
			&e.Year,
			&e.TotalSpend,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan spending entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spending history: %w", err)
	}

	return entries, nil
}
