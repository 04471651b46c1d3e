package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rohan-b84/stackroom/internal/models"
)

type OrganizationStore struct {
	pool *pgxpool.Pool
}

func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{pool: pool}
}

func (s *OrganizationStore) Create(ctx context.Context, name string) (*models.Organization, error) {
	query := `
		INSERT INTO organizations (name, created_at)
		VALUES ($1, now())
		RETURNING id, name, created_at`

	var org models.Organization
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&org.ID,
		&org.Name,
		&org.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert organization: %w", err)
	}
	return &org, nil
}
