package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rohan-b84/stackroom/internal/models"
)

// mockConversationRepo keeps conversations in a slice and scopes every
// lookup by org, the same way the SQL store does.
type mockConversationRepo struct {
	convs       []*models.Conversation
	createErr   error
	touchErr    error
	touchCalls  int
	statusCalls []string
	deleted     []uuid.UUID
}

func (m *mockConversationRepo) Create(_ context.Context, conv *models.Conversation) (*models.Conversation, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	conv.CreatedAt = time.Now()
	m.convs = append(m.convs, conv)
	return conv, nil
}

func (m *mockConversationRepo) GetByID(_ context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Conversation, error) {
	for _, c := range m.convs {
		if c.OrgID == orgID && c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockConversationRepo) GetByRoutingKey(_ context.Context, orgID uuid.UUID, key string) (*models.Conversation, error) {
	for _, c := range m.convs {
		if c.OrgID == orgID && c.RoutingKey == key {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockConversationRepo) ListByOrg(_ context.Context, orgID uuid.UUID, convType string) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range m.convs {
		if c.OrgID != orgID {
			continue
		}
		if convType != "" && c.Type != convType {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockConversationRepo) TouchLastMessage(_ context.Context, orgID uuid.UUID, id uuid.UUID, at time.Time) error {
	m.touchCalls++
	if m.touchErr != nil {
		return m.touchErr
	}
	for _, c := range m.convs {
		if c.OrgID == orgID && c.ID == id {
			t := at
			c.LastMessageAt = &t
		}
	}
	return nil
}

func (m *mockConversationRepo) SetStatus(_ context.Context, orgID uuid.UUID, id uuid.UUID, status string) (bool, error) {
	m.statusCalls = append(m.statusCalls, status)
	for _, c := range m.convs {
		if c.OrgID == orgID && c.ID == id {
			c.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *mockConversationRepo) Delete(_ context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	for i, c := range m.convs {
		if c.OrgID == orgID && c.ID == id {
			m.convs = append(m.convs[:i], m.convs[i+1:]...)
			m.deleted = append(m.deleted, id)
			return true, nil
		}
	}
	return false, nil
}

// mockMessageRepo assigns sequential int64 ids, mirroring the bigserial
// column that backs ordering in production.
type mockMessageRepo struct {
	msgs      []*models.Message
	nextID    int64
	createErr error
}

func (m *mockMessageRepo) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	msg.ID = m.nextID
	msg.CreatedAt = time.Now()
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

func (m *mockMessageRepo) ListByRoutingKey(_ context.Context, orgID uuid.UUID, key string, after int64, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.msgs {
		if msg.OrgID != orgID || msg.RoutingKey != key || msg.ID <= after {
			continue
		}
		out = append(out, *msg)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// recordingPublisher captures every broadcast so tests can assert on what
// was (or wasn't) fanned out.
type recordingPublisher struct {
	keys   []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, event any) {
	p.keys = append(p.keys, routingKey)
	p.events = append(p.events, event)
}

type serviceFixture struct {
	convs *mockConversationRepo
	msgs  *mockMessageRepo
	pub   *recordingPublisher
	svc   *Service
}

func newServiceFixture() *serviceFixture {
	convs := &mockConversationRepo{}
	msgs := &mockMessageRepo{}
	pub := &recordingPublisher{}
	return &serviceFixture{
		convs: convs,
		msgs:  msgs,
		pub:   pub,
		svc:   NewService(convs, msgs, pub, zap.NewNop()),
	}
}

func (f *serviceFixture) seedConversation(orgID uuid.UUID, routingKey string) *models.Conversation {
	conv := &models.Conversation{
		ID:         uuid.New(),
		OrgID:      orgID,
		Type:       models.ConversationInternal,
		RoutingKey: routingKey,
		Title:      "Figma discussion",
		Status:     models.ConversationActive,
	}
	f.convs.convs = append(f.convs.convs, conv)
	return conv
}

func TestPostMessage_PersistsThenBroadcasts(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()
	conv := f.seedConversation(orgID, "app-figma")

	msg, err := f.svc.PostMessage(context.Background(), orgID, conv.ID, "Alice", models.RoleAdmin, "hello team", "", nil)
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, int64(1), msg.ID)
	assert.Equal(t, models.MessageText, msg.MessageType, "empty message type defaults to text")
	assert.Equal(t, conv.RoutingKey, msg.RoutingKey)
	assert.Equal(t, 1, f.convs.touchCalls)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, "app-figma", f.pub.keys[0])
	event, ok := f.pub.events[0].(NewMessageEvent)
	require.True(t, ok)
	assert.Equal(t, "new_message", event.Type)
	assert.Equal(t, msg, event.Message)
}

func TestPostMessage_OtherOrgConversationIsNotFound(t *testing.T) {
	f := newServiceFixture()
	conv := f.seedConversation(uuid.New(), "app-figma")

	// Same conversation id, different tenant: must look nonexistent.
	_, err := f.svc.PostMessage(context.Background(), uuid.New(), conv.ID, "Mallory", models.RoleAdmin, "hi", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.pub.events)
	assert.Empty(t, f.msgs.msgs)
}

func TestPostMessage_StoreFailureSuppressesBroadcast(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()
	conv := f.seedConversation(orgID, "app-figma")
	f.msgs.createErr = errors.New("connection reset")

	_, err := f.svc.PostMessage(context.Background(), orgID, conv.ID, "Alice", models.RoleAdmin, "hello", "", nil)
	require.Error(t, err)
	assert.Empty(t, f.pub.events, "nothing may be broadcast when the insert fails")
	assert.Zero(t, f.convs.touchCalls)
}

func TestPostMessage_TouchFailureStillBroadcasts(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()
	conv := f.seedConversation(orgID, "app-figma")
	f.convs.touchErr = errors.New("deadlock detected")

	msg, err := f.svc.PostMessage(context.Background(), orgID, conv.ID, "Alice", models.RoleAdmin, "hello", "", nil)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Len(t, f.pub.events, 1)
}

func TestPostMessage_Validation(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()
	conv := f.seedConversation(orgID, "app-figma")

	cases := []struct {
		name        string
		senderName  string
		senderRole  string
		content     string
		messageType string
	}{
		{"empty content", "Alice", models.RoleAdmin, "   ", ""},
		{"blank sender name", "  ", models.RoleAdmin, "hi", ""},
		{"bogus role", "Alice", "superuser", "hi", ""},
		{"bogus message type", "Alice", models.RoleAdmin, "hi", "gif"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.PostMessage(context.Background(), orgID, conv.ID, tc.senderName, tc.senderRole, tc.content, tc.messageType, nil)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, f.pub.events)
}

func TestPostMessageByKey_SameContractAsByID(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()
	f.seedConversation(orgID, "app-slack")

	msg, err := f.svc.PostMessageByKey(context.Background(), orgID, "app-slack", "Bob", models.RoleUser, "renewal is due", models.MessageText, nil)
	require.NoError(t, err)
	assert.Equal(t, "app-slack", msg.RoutingKey)
	require.Len(t, f.pub.keys, 1)
	assert.Equal(t, "app-slack", f.pub.keys[0])

	_, err = f.svc.PostMessageByKey(context.Background(), uuid.New(), "app-slack", "Bob", models.RoleUser, "hi", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostMessage_AssignsAscendingIDs(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()
	conv := f.seedConversation(orgID, "app-figma")

	for _, body := range []string{"one", "two", "three"} {
		_, err := f.svc.PostMessage(context.Background(), orgID, conv.ID, "Alice", models.RoleAdmin, body, "", nil)
		require.NoError(t, err)
	}

	history, err := f.svc.History(context.Background(), orgID, "app-figma", 0, 100)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "three", history[2].Content)
	assert.Less(t, history[0].ID, history[1].ID)
	assert.Less(t, history[1].ID, history[2].ID)

	// Cursor resumes strictly after the given id.
	tail, err := f.svc.History(context.Background(), orgID, "app-figma", history[0].ID, 100)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "two", tail[0].Content)
}

func TestHistory_CrossTenantKeyIsNotFound(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()
	conv := f.seedConversation(orgID, "app-figma")

	_, err := f.svc.PostMessage(context.Background(), orgID, conv.ID, "Alice", models.RoleAdmin, "secret", "", nil)
	require.NoError(t, err)

	_, err = f.svc.History(context.Background(), uuid.New(), "app-figma", 0, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateConversation_InternalDedupesOnRoutingKey(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()

	first, err := f.svc.CreateConversation(context.Background(), orgID, CreateConversationInput{
		Type:       models.ConversationInternal,
		RoutingKey: "app-notion",
		Title:      "Notion discussion",
	})
	require.NoError(t, err)

	second, err := f.svc.CreateConversation(context.Background(), orgID, CreateConversationInput{
		Type:       models.ConversationInternal,
		RoutingKey: "app-notion",
		Title:      "a different title",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same routing key returns the existing thread")
	assert.Len(t, f.convs.convs, 1)

	// Another org can use the same key without colliding.
	other, err := f.svc.CreateConversation(context.Background(), uuid.New(), CreateConversationInput{
		Type:       models.ConversationInternal,
		RoutingKey: "app-notion",
		Title:      "Notion discussion",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateConversation_VendorRoutesUnderOwnID(t *testing.T) {
	f := newServiceFixture()
	vendor := "Figma Inc"

	conv, err := f.svc.CreateConversation(context.Background(), uuid.New(), CreateConversationInput{
		Type:       models.ConversationVendor,
		Title:      "Contract negotiation",
		VendorName: &vendor,
	})
	require.NoError(t, err)
	assert.Equal(t, conv.ID.String(), conv.RoutingKey)
	assert.Equal(t, models.ConversationActive, conv.Status)
}

func TestCreateConversation_Validation(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()

	_, err := f.svc.CreateConversation(context.Background(), orgID, CreateConversationInput{
		Type: models.ConversationInternal, RoutingKey: "k", Title: " ",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateConversation(context.Background(), orgID, CreateConversationInput{
		Type: models.ConversationInternal, Title: "no key",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateConversation(context.Background(), orgID, CreateConversationInput{
		Type: "group", Title: "bad type",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListConversations_RejectsUnknownType(t *testing.T) {
	f := newServiceFixture()
	_, err := f.svc.ListConversations(context.Background(), uuid.New(), "group")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestArchiveAndDeleteConversation(t *testing.T) {
	f := newServiceFixture()
	orgID := uuid.New()
	conv := f.seedConversation(orgID, "app-figma")

	require.NoError(t, f.svc.ArchiveConversation(context.Background(), orgID, conv.ID))
	assert.Equal(t, models.ConversationArchived, conv.Status)

	// Wrong org looks like a missing row for both mutations.
	assert.ErrorIs(t, f.svc.ArchiveConversation(context.Background(), uuid.New(), conv.ID), ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteConversation(context.Background(), uuid.New(), conv.ID), ErrNotFound)

	require.NoError(t, f.svc.DeleteConversation(context.Background(), orgID, conv.ID))
	assert.ErrorIs(t, f.svc.DeleteConversation(context.Background(), orgID, conv.ID), ErrNotFound)
}
