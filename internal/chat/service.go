package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rohan-b84/stackroom/internal/models"
	"github.com/rohan-b84/stackroom/internal/repository"
	"go.uber.org/zap"
)

// Publisher fans a room event out to live subscribers. Satisfied by
// realtime.Dispatcher; tests substitute a recorder.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any)
}

// NewMessageEvent is the frame pushed to every room member when a message
// lands. Type is always "new_message".
type NewMessageEvent struct {
	Type       string          `json:"type"`
	RoutingKey string          `json:"routingKey"`
	Message    *models.Message `json:"message"`
}

// Service is the single entry point for every conversation operation,
// regardless of whether it arrived over HTTP or a live frame. Both write
// paths funnel into postResolved, so persistence and broadcast can't
// drift apart.
type Service struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	publisher     Publisher
	logger        *zap.Logger
}

func NewService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	publisher Publisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		publisher:     publisher,
		logger:        logger,
	}
}

// PostMessage persists a message into the conversation identified by
// conversationID within orgID, then broadcasts it to the conversation's
// room. The organization id must come from the authenticated caller, not
// from anything client-supplied; the conversation lookup is scoped by it,
// which is the isolation guarantee.
func (s *Service) PostMessage(ctx context.Context, orgID uuid.UUID, conversationID uuid.UUID, senderName, senderRole, content, messageType string, metadata *string) (*models.Message, error) {
	conv, err := s.conversations.GetByID(ctx, orgID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	return s.postResolved(ctx, conv, senderName, senderRole, content, messageType, metadata)
}

// PostMessageByKey is the HTTP-path variant: the conversation is addressed
// by its routing key instead of its id. Same contract otherwise.
func (s *Service) PostMessageByKey(ctx context.Context, orgID uuid.UUID, routingKey, senderName, senderRole, content, messageType string, metadata *string) (*models.Message, error) {
	conv, err := s.conversations.GetByRoutingKey(ctx, orgID, routingKey)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	return s.postResolved(ctx, conv, senderName, senderRole, content, messageType, metadata)
}

// postResolved validates, persists, bumps the thread, and broadcasts —
// strictly in that order. Nothing is published unless the insert
// succeeded, and a store failure leaves room membership untouched.
func (s *Service) postResolved(ctx context.Context, conv *models.Conversation, senderName, senderRole, content, messageType string, metadata *string) (*models.Message, error) {
	if messageType == "" {
		messageType = models.MessageText
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content must not be empty", ErrInvalidInput)
	}
	if !models.ValidSenderRole(senderRole) {
		return nil, fmt.Errorf("%w: unknown sender role %q", ErrInvalidInput, senderRole)
	}
	if !models.ValidMessageType(messageType) {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidInput, messageType)
	}
	if strings.TrimSpace(senderName) == "" {
		return nil, fmt.Errorf("%w: sender name must not be empty", ErrInvalidInput)
	}

	msg, err := s.messages.Create(ctx, &models.Message{
		OrgID:          conv.OrgID,
		ConversationID: conv.ID,
		RoutingKey:     conv.RoutingKey,
		SenderName:     senderName,
		SenderRole:     senderRole,
		Content:        content,
		MessageType:    messageType,
		Metadata:       metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	// The message row is the source of truth; last_message_at is derived
	// display state. If the bump fails we log and still broadcast.
	if err := s.conversations.TouchLastMessage(ctx, conv.OrgID, conv.ID, msg.CreatedAt); err != nil {
		s.logger.Warn("bump last_message_at failed",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err),
		)
	}

	s.publisher.Publish(ctx, conv.RoutingKey, NewMessageEvent{
		Type:       "new_message",
		RoutingKey: conv.RoutingKey,
		Message:    msg,
	})

	return msg, nil
}

// CreateConversationInput carries the client-controllable fields of a new
// thread. ID, status, and timestamps are always server-assigned.
type CreateConversationInput struct {
	Type       string
	RoutingKey string
	Title      string
	VendorName *string
}

// CreateConversation opens a thread. Internal threads hang off an
// integration and are unique per (org, routing key) — the lookup before
// create enforces that; racing creates are rare enough that the existing
// thread simply wins. Vendor threads route under their own id.
func (s *Service) CreateConversation(ctx context.Context, orgID uuid.UUID, in CreateConversationInput) (*models.Conversation, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}

	conv := &models.Conversation{
		ID:         uuid.New(),
		OrgID:      orgID,
		Title:      in.Title,
		VendorName: in.VendorName,
		Status:     models.ConversationActive,
	}

	switch in.Type {
	case models.ConversationInternal:
		if strings.TrimSpace(in.RoutingKey) == "" {
			return nil, fmt.Errorf("%w: internal conversations require a routing key", ErrInvalidInput)
		}
		existing, err := s.conversations.GetByRoutingKey(ctx, orgID, in.RoutingKey)
		if err != nil {
			return nil, fmt.Errorf("check existing conversation: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
		conv.Type = models.ConversationInternal
		conv.RoutingKey = in.RoutingKey
	case models.ConversationVendor:
		conv.Type = models.ConversationVendor
		conv.RoutingKey = conv.ID.String()
	default:
		return nil, fmt.Errorf("%w: unknown conversation type %q", ErrInvalidInput, in.Type)
	}

	out, err := s.conversations.Create(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return out, nil
}

// EnsureInternalConversation opens the team thread for an integration if
// it doesn't exist yet. Called when an application is added to the org.
func (s *Service) EnsureInternalConversation(ctx context.Context, orgID uuid.UUID, routingKey, title string) (*models.Conversation, error) {
	return s.CreateConversation(ctx, orgID, CreateConversationInput{
		Type:       models.ConversationInternal,
		RoutingKey: routingKey,
		Title:      title,
	})
}

// ListConversations returns the org's threads, newest activity first.
// convType filters by kind; empty means all.
func (s *Service) ListConversations(ctx context.Context, orgID uuid.UUID, convType string) ([]models.Conversation, error) {
	if convType != "" && convType != models.ConversationInternal && convType != models.ConversationVendor {
		return nil, fmt.Errorf("%w: unknown conversation type %q", ErrInvalidInput, convType)
	}
	return s.conversations.ListByOrg(ctx, orgID, convType)
}

// GetConversation resolves one thread within the caller's org.
func (s *Service) GetConversation(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	return conv, nil
}

// ArchiveConversation flips the thread to archived.
func (s *Service) ArchiveConversation(ctx context.Context, orgID uuid.UUID, id uuid.UUID) error {
	ok, err := s.conversations.SetStatus(ctx, orgID, id, models.ConversationArchived)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation removes the thread and, through the cascade, its
// messages.
func (s *Service) DeleteConversation(ctx context.Context, orgID uuid.UUID, id uuid.UUID) error {
	ok, err := s.conversations.Delete(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// History returns the thread's messages in chronological order. The
// conversation is resolved first so a cross-tenant routing key comes back
// as ErrNotFound, never as another org's history.
func (s *Service) History(ctx context.Context, orgID uuid.UUID, routingKey string, after int64, limit int) ([]models.Message, error) {
	conv, err := s.conversations.GetByRoutingKey(ctx, orgID, routingKey)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	return s.messages.ListByRoutingKey(ctx, orgID, routingKey, after, limit)
}
