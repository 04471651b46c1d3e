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

type RecommendationStore struct {
	pool *pgxpool.Pool
}

func NewRecommendationStore(pool *pgxpool.Pool) *RecommendationStore {
	return &RecommendationStore{pool: pool}
}

const recommendationColumns = `id, org_id, application_id, type, title, description, priority, action_label,
		current_cost, potential_cost, current_users, active_users, contract_value, renewal_date, dismissed, created_at`

func (s *RecommendationStore) Create(ctx context.Context, rec *models.Recommendation) (*models.Recommendation, error) {
	query := `
		INSERT INTO recommendations (org_id, application_id, type, title, description, priority, action_label,
			current_cost, potential_cost, current_users, active_users, contract_value, renewal_date, dismissed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
		RETURNING ` + recommendationColumns

	row := s.pool.QueryRow(ctx, query,
		rec.OrgID, rec.ApplicationID, rec.Type, rec.Title, rec.Description, rec.Priority, rec.ActionLabel,
		rec.CurrentCost, rec.PotentialCost, rec.CurrentUsers, rec.ActiveUsers, rec.ContractValue, rec.RenewalDate, rec.Dismissed,
	)
	out, err := scanRecommendation(row)
	if err != nil {
		return nil, fmt.Errorf("insert recommendation: %w", err)
	}
	return out, nil
}

func (s *RecommendationStore) GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM recommendations
		WHERE id = $1 AND org_id = $2`

	rec, err := scanRecommendation(s.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return rec, nil
}

// ListByOrg hides dismissed recommendations; they stay in the table so a
// dismissal can be undone by a patch.
func (s *RecommendationStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM recommendations
		WHERE org_id = $1 AND NOT dismissed
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]models.Recommendation, 0)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}

	return recs, nil
}

func (s *RecommendationStore) Update(ctx context.Context, rec *models.Recommendation) (bool, error) {
	query := `
		UPDATE recommendations
		SET type = $1, title = $2, description = $3, priority = $4, action_label = $5,
			current_cost = $6, potential_cost = $7, current_users = $8, active_users = $9,
			contract_value = $10, renewal_date = $11, dismissed = $12
		WHERE id = $13 AND org_id = $14`

	tag, err := s.pool.Exec(ctx, query,
		rec.Type, rec.Title, rec.Description, rec.Priority, rec.ActionLabel,
		rec.CurrentCost, rec.PotentialCost, rec.CurrentUsers, rec.ActiveUsers,
		rec.ContractValue, rec.RenewalDate, rec.Dismissed,
		rec.ID, rec.OrgID,
	)
	if err != nil {
		return false, fmt.Errorf("update recommendation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *RecommendationStore) Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	query := `DELETE FROM recommendations WHERE id = $1 AND org_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return false, fmt.Errorf("delete recommendation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanRecommendation(row pgx.Row) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := row.Scan(
		&rec.ID,
		&rec.OrgID,
		&rec.ApplicationID,
		&rec.Type,
		&rec.Title,
		&rec.Description,
		&rec.Priority,
		&rec.ActionLabel,
		&rec.CurrentCost,
		&rec.PotentialCost,
		&rec.CurrentUsers,
		&rec.ActiveUsers,
		&rec.ContractValue,
		&rec.RenewalDate,
		&rec.Dismissed,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
