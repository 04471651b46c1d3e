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

type LicenseStore struct {
	pool *pgxpool.Pool
}

func NewLicenseStore(pool *pgxpool.Pool) *LicenseStore {
	return &LicenseStore{pool: pool}
}

const licenseColumns = `id, org_id, application_id, total_licenses, active_users, cost_per_license, created_at, updated_at`

func (s *LicenseStore) Create(ctx context.Context, lic *models.License) (*models.License, error) {
	query := `
		INSERT INTO licenses (org_id, application_id, total_licenses, active_users, cost_per_license, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING ` + licenseColumns

	var out models.License
	err := s.pool.QueryRow(ctx, query,
		lic.OrgID, lic.ApplicationID, lic.TotalLicenses, lic.ActiveUsers, lic.CostPerLicense,
	).Scan(
		&out.ID,
		&out.OrgID,
		&out.ApplicationID,
		&out.TotalLicenses,
		&out.ActiveUsers,
		&out.CostPerLicense,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert license: %w", err)
	}
	return &out, nil
}

func (s *LicenseStore) GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.License, error) {
	query := `
		SELECT ` + licenseColumns + `
		FROM licenses
		WHERE id = $1 AND org_id = $2`

	return s.scanOne(ctx, query, id, orgID)
}

func (s *LicenseStore) GetByApplication(ctx context.Context, orgID uuid.UUID, applicationID uuid.UUID) (*models.License, error) {
	query := `
		SELECT ` + licenseColumns + `
		FROM licenses
		WHERE application_id = $1 AND org_id = $2`

	return s.scanOne(ctx, query, applicationID, orgID)
}

func (s *LicenseStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.License, error) {
	query := `
		SELECT ` + licenseColumns + `
		FROM licenses
		WHERE org_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	defer rows.Close()

	licenses := make([]models.License, 0)
	for rows.Next() {
		var lic models.License
		if err := rows.Scan(
			&lic.ID,
			&lic.OrgID,
			&lic.ApplicationID,
			&lic.TotalLicenses,
			&lic.ActiveUsers,
			&lic.CostPerLicense,
			&lic.CreatedAt,
			&lic.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		licenses = append(licenses, lic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate licenses: %w", err)
	}

	return licenses, nil
}

func (s *LicenseStore) Update(ctx context.Context, lic *models.License) (bool, error) {
	query := `
		UPDATE licenses
		SET total_licenses = $1, active_users = $2, cost_per_license = $3, updated_at = now()
		WHERE id = $4 AND org_id = $5`

	tag, err := s.pool.Exec(ctx, query,
		lic.TotalLicenses, lic.ActiveUsers, lic.CostPerLicense, lic.ID, lic.OrgID,
	)
	if err != nil {
		return false, fmt.Errorf("update license: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *LicenseStore) Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	query := `DELETE FROM licenses WHERE id = $1 AND org_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return false, fmt.Errorf("delete license: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *LicenseStore) scanOne(ctx context.Context, query string, args ...any) (*models.License, error) {
	var lic models.License
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&lic.ID,
		&lic.OrgID,
		&lic.ApplicationID,
		&lic.TotalLicenses,
		&lic.ActiveUsers,
		&lic.CostPerLicense,
		&lic.CreatedAt,
		&lic.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get license: %w", err)
	}
	return &lic, nil
}
