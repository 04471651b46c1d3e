package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rohan-b84/stackroom/internal/models"
)

type ConversationStore struct {
	pool *pgxpool.Pool
}

func NewConversationStore(pool *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{pool: pool}
}

const conversationColumns = `id, org_id, type, routing_key, title, vendor_name, status, last_message_at, created_at`

// Create inserts a conversation. The service layer assigns the UUID before
// calling (a vendor conversation's routing key is its own id, so the id has
// to exist before the insert).
func (s *ConversationStore) Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (id, org_id, type, routing_key, title, vendor_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + conversationColumns

	var out models.Conversation
	err := s.pool.QueryRow(ctx, query,
		conv.ID, conv.OrgID, conv.Type, conv.RoutingKey, conv.Title, conv.VendorName, conv.Status,
	).Scan(
		&out.ID,
		&out.OrgID,
		&out.Type,
		&out.RoutingKey,
		&out.Title,
		&out.VendorName,
		&out.Status,
		&out.LastMessageAt,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return &out, nil
}

func (s *ConversationStore) GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE id = $1 AND org_id = $2`

	return s.scanOne(ctx, query, id, orgID)
}

func (s *ConversationStore) GetByRoutingKey(ctx context.Context, orgID uuid.UUID, routingKey string) (*models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE routing_key = $1 AND org_id = $2`

	return s.scanOne(ctx, query, routingKey, orgID)
}

// ListByOrg returns conversations ordered by most recent activity; threads
// that never received a message sort by creation time.
func (s *ConversationStore) ListByOrg(ctx context.Context, orgID uuid.UUID, convType string) ([]models.Conversation, error) {
	var query string
	var args []any

	if convType != "" {
		query = `
			SELECT ` + conversationColumns + `
			FROM conversations
			WHERE org_id = $1 AND type = $2
			ORDER BY COALESCE(last_message_at, created_at) DESC`
		args = []any{orgID, convType}
	} else {
		query = `
			SELECT ` + conversationColumns + `
			FROM conversations
			WHERE org_id = $1
			ORDER BY COALESCE(last_message_at, created_at) DESC`
		args = []any{orgID}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.OrgID,
			&conv.Type,
			&conv.RoutingKey,
			&conv.Title,
			&conv.VendorName,
			&conv.Status,
			&conv.LastMessageAt,
			&conv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return conversations, nil
}

func (s *ConversationStore) TouchLastMessage(ctx context.Context, orgID uuid.UUID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE conversations
		SET last_message_at = $1
		WHERE id = $2 AND org_id = $3`

	if _, err := s.pool.Exec(ctx, query, at, id, orgID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) SetStatus(ctx context.Context, orgID uuid.UUID, id uuid.UUID, status string) (bool, error) {
	query := `
		UPDATE conversations
		SET status = $1
		WHERE id = $2 AND org_id = $3`

	tag, err := s.pool.Exec(ctx, query, status, id, orgID)
	if err != nil {
		return false, fmt.Errorf("set conversation status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the conversation row; the messages FK is ON DELETE CASCADE,
// so the thread's history goes with it.
func (s *ConversationStore) Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	query := `DELETE FROM conversations WHERE id = $1 AND org_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return false, fmt.Errorf("delete conversation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ConversationStore) scanOne(ctx context.Context, query string, args ...any) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&conv.ID,
		&conv.OrgID,
		&conv.Type,
		&conv.RoutingKey,
		&conv.Title,
		&conv.VendorName,
		&conv.Status,
		&conv.LastMessageAt,
		&conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}
