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

type RenewalStore struct {
	pool *pgxpool.Pool
}

func NewRenewalStore(pool *pgxpool.Pool) *RenewalStore {
	return &RenewalStore{pool: pool}
}

const renewalColumns = `id, org_id, application_id, renewal_date, annual_cost, contract_value, auto_renew, notified, created_at`

func (s *RenewalStore) Create(ctx context.Context, r *models.Renewal) (*models.Renewal, error) {
	query := `
		INSERT INTO renewals (org_id, application_id, renewal_date, annual_cost, contract_value, auto_renew, notified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + renewalColumns

	var out models.Renewal
	err := s.pool.QueryRow(ctx, query,
		r.OrgID, r.ApplicationID, r.RenewalDate, r.AnnualCost, r.ContractValue, r.AutoRenew, r.Notified,
	).Scan(
		&out.ID,
		&out.OrgID,
		&out.ApplicationID,
		&out.RenewalDate,
		&out.AnnualCost,
		&out.ContractValue,
		&out.AutoRenew,
		&out.Notified,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert renewal: %w", err)
	}
	return &out, nil
}

func (s *RenewalStore) GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Renewal, error) {
	query := `
		SELECT ` + renewalColumns + `
		FROM renewals
		WHERE id = $1 AND org_id = $2`

	var r models.Renewal
	err := s.pool.QueryRow(ctx, query, id, orgID).Scan(
		&r.ID,
		&r.OrgID,
		&r.ApplicationID,
		&r.RenewalDate,
		&r.AnnualCost,
		&r.ContractValue,
		&r.AutoRenew,
		&r.Notified,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get renewal: %w", err)
	}
	return &r, nil
}

func (s *RenewalStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Renewal, error) {
	query := `
		SELECT ` + renewalColumns + `
		FROM renewals
		WHERE org_id = $1
		ORDER BY renewal_date ASC`

	return s.list(ctx, query, orgID)
}

func (s *RenewalStore) ListByApplication(ctx context.Context, orgID uuid.UUID, applicationID uuid.UUID) ([]models.Renewal, error) {
	query := `
		SELECT ` + renewalColumns + `
		FROM renewals
		WHERE org_id = $1 AND application_id = $2
		ORDER BY renewal_date ASC`

	return s.list(ctx, query, orgID, applicationID)
}

func (s *RenewalStore) Update(ctx context.Context, r *models.Renewal) (bool, error) {
	query := `
		UPDATE renewals
		SET renewal_date = $1, annual_cost = $2, contract_value = $3, auto_renew = $4, notified = $5
		WHERE id = $6 AND org_id = $7`

	tag, err := s.pool.Exec(ctx, query,
		r.RenewalDate, r.AnnualCost, r.ContractValue, r.AutoRenew, r.Notified, r.ID, r.OrgID,
	)
	if err != nil {
		return false, fmt.Errorf("update renewal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *RenewalStore) Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	query := `DELETE FROM renewals WHERE id = $1 AND org_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return false, fmt.Errorf("delete renewal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *RenewalStore) list(ctx context.Context, query string, args ...any) ([]models.Renewal, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list renewals: %w", err)
	}
	defer rows.Close()

	renewals := make([]models.Renewal, 0)
	for rows.Next() {
		var r models.Renewal
		if err := rows.Scan(
			&r.ID,
			&r.OrgID,
			&r.ApplicationID,
			&r.RenewalDate,
			&r.AnnualCost,
			&r.ContractValue,
			&r.AutoRenew,
			&r.Notified,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan renewal: %w", err)
		}
		renewals = append(renewals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renewals: %w", err)
	}

	return renewals, nil
}
