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

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Create(ctx context.Context, orgID uuid.UUID, email, displayName, role, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (org_id, email, display_name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, org_id, email, display_name, role, password_hash, created_at`

	var u models.User
	err := s.pool.QueryRow(ctx, query, orgID, email, displayName, role, passwordHash).Scan(
		&u.ID,
		&u.OrgID,
		&u.Email,
		&u.DisplayName,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, orgID uuid.UUID, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, org_id, email, display_name, role, password_hash, created_at
		FROM users
		WHERE id = $1 AND org_id = $2`

	var u models.User
	err := s.pool.QueryRow(ctx, query, userID, orgID).Scan(
		&u.ID,
		&u.OrgID,
		&u.Email,
		&u.DisplayName,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByEmail is the login lookup — global by design, since the caller's
// organization isn't known until the user row is found.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, org_id, email, display_name, role, password_hash, created_at
		FROM users
		WHERE email = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.OrgID,
		&u.Email,
		&u.DisplayName,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}
