package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rohan-b84/stackroom/internal/models"
)

type ApplicationStore struct {
	pool *pgxpool.Pool
}

func NewApplicationStore(pool *pgxpool.Pool) *ApplicationStore {
	return &ApplicationStore{pool: pool}
}

const applicationColumns = `id, org_id, name, category, vendor, status, monthly_cost, description, logo_url, created_at`

func (s *ApplicationStore) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (id, org_id, name, category, vendor, status, monthly_cost, description, logo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING ` + applicationColumns

	var out models.Application
	err := s.pool.QueryRow(ctx, query,
		app.ID, app.OrgID, app.Name, app.Category, app.Vendor, app.Status, app.MonthlyCost, app.Description, app.LogoURL,
	).Scan(
		&out.ID,
		&out.OrgID,
		&out.Name,
		&out.Category,
		&out.Vendor,
		&out.Status,
		&out.MonthlyCost,
		&out.Description,
		&out.LogoURL,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return &out, nil
}

func (s *ApplicationStore) GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE id = $1 AND org_id = $2`

	var app models.Application
	err := s.pool.QueryRow(ctx, query, id, orgID).Scan(
		&app.ID,
		&app.OrgID,
		&app.Name,
		&app.Category,
		&app.Vendor,
		&app.Status,
		&app.MonthlyCost,
		&app.Description,
		&app.LogoURL,
		&app.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &app, nil
}

func (s *ApplicationStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE org_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		var app models.Application
		if err := rows.Scan(
			&app.ID,
			&app.OrgID,
			&app.Name,
			&app.Category,
			&app.Vendor,
			&app.Status,
			&app.MonthlyCost,
			&app.Description,
			&app.LogoURL,
			&app.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}

	return apps, nil
}

func (s *ApplicationStore) Update(ctx context.Context, app *models.Application) (bool, error) {
	query := `
		UPDATE applications
		SET name = $1, category = $2, vendor = $3, status = $4, monthly_cost = $5, description = $6, logo_url = $7
		WHERE id = $8 AND org_id = $9`

	tag, err := s.pool.Exec(ctx, query,
		app.Name, app.Category, app.Vendor, app.Status, app.MonthlyCost, app.Description, app.LogoURL,
		app.ID, app.OrgID,
	)
	if err != nil {
		return false, fmt.Errorf("update application: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ApplicationStore) Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	query := `DELETE FROM applications WHERE id = $1 AND org_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return false, fmt.Errorf("delete application: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
