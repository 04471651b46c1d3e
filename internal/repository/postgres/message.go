package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rohan-b84/stackroom/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Create persists one message. Messages use bigserial, so Postgres assigns
// the ID; RETURNING hands it back along with the server-side timestamp.
// The returned timestamp is what the conversation's last_message_at gets
// bumped to, so both always come from the same clock.
func (s *MessageStore) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (org_id, conversation_id, routing_key, sender_name, sender_role, content, message_type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, org_id, conversation_id, routing_key, sender_name, sender_role, content, message_type, metadata, created_at`

	var out models.Message
	err := s.pool.QueryRow(ctx, query,
		msg.OrgID, msg.ConversationID, msg.RoutingKey, msg.SenderName, msg.SenderRole, msg.Content, msg.MessageType, msg.Metadata,
	).Scan(
		&out.ID,
		&out.OrgID,
		&out.ConversationID,
		&out.RoutingKey,
		&out.SenderName,
		&out.SenderRole,
		&out.Content,
		&out.MessageType,
		&out.Metadata,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &out, nil
}

// ListByRoutingKey returns history oldest-first, which is the order a chat
// pane renders it. Cursor pagination works forward: after=0 starts at the
// beginning, otherwise only messages newer than that ID come back. Ordering
// by id rather than created_at is safe because bigserial assignment order
// matches insert order.
func (s *MessageStore) ListByRoutingKey(ctx context.Context, orgID uuid.UUID, routingKey string, after int64, limit int) ([]models.Message, error) {
	var query string
	var args []any

	if after > 0 {
		query = `
			SELECT id, org_id, conversation_id, routing_key, sender_name, sender_role, content, message_type, metadata, created_at
			FROM messages
			WHERE org_id = $1 AND routing_key = $2 AND id > $3
			ORDER BY id ASC
			LIMIT $4`
		args = []any{orgID, routingKey, after, limit}
	} else {
		query = `
			SELECT id, org_id, conversation_id, routing_key, sender_name, sender_role, content, message_type, metadata, created_at
			FROM messages
			WHERE org_id = $1 AND routing_key = $2
			ORDER BY id ASC
			LIMIT $3`
		args = []any{orgID, routingKey, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.OrgID,
			&msg.ConversationID,
			&msg.RoutingKey,
			&msg.SenderName,
			&msg.SenderRole,
			&msg.Content,
			&msg.MessageType,
			&msg.Metadata,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
