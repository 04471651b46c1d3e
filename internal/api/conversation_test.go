package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rohan-b84/stackroom/internal/chat"
	"github.com/rohan-b84/stackroom/internal/middleware"
	"github.com/rohan-b84/stackroom/internal/models"
)

// In-memory stores with the same org-scoping behavior as the SQL ones.

type memConversationRepo struct {
	convs []*models.Conversation
}

func (m *memConversationRepo) Create(_ context.Context, conv *models.Conversation) (*models.Conversation, error) {
	conv.CreatedAt = time.Now()
	m.convs = append(m.convs, conv)
	return conv, nil
}

func (m *memConversationRepo) GetByID(_ context.Context, orgID uuid.UUID, id uuid.UUID) (*models.Conversation, error) {
	for _, c := range m.convs {
		if c.OrgID == orgID && c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memConversationRepo) GetByRoutingKey(_ context.Context, orgID uuid.UUID, key string) (*models.Conversation, error) {
	for _, c := range m.convs {
		if c.OrgID == orgID && c.RoutingKey == key {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memConversationRepo) ListByOrg(_ context.Context, orgID uuid.UUID, convType string) ([]models.Conversation, error) {
	out := []models.Conversation{}
	for _, c := range m.convs {
		if c.OrgID == orgID && (convType == "" || c.Type == convType) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memConversationRepo) TouchLastMessage(_ context.Context, orgID uuid.UUID, id uuid.UUID, at time.Time) error {
	for _, c := range m.convs {
		if c.OrgID == orgID && c.ID == id {
			t := at
			c.LastMessageAt = &t
		}
	}
	return nil
}

func (m *memConversationRepo) SetStatus(_ context.Context, orgID uuid.UUID, id uuid.UUID, status string) (bool, error) {
	for _, c := range m.convs {
		if c.OrgID == orgID && c.ID == id {
			c.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *memConversationRepo) Delete(_ context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	for i, c := range m.convs {
		if c.OrgID == orgID && c.ID == id {
			m.convs = append(m.convs[:i], m.convs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memMessageRepo struct {
	msgs   []*models.Message
	nextID int64
}

func (m *memMessageRepo) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	m.nextID++
	msg.ID = m.nextID
	msg.CreatedAt = time.Now()
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

func (m *memMessageRepo) ListByRoutingKey(_ context.Context, orgID uuid.UUID, key string, after int64, limit int) ([]models.Message, error) {
	out := []models.Message{}
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

type noopPublisher struct {
	published int
}

func (p *noopPublisher) Publish(context.Context, string, any) { p.published++ }

type handlerFixture struct {
	router *gin.Engine
	convs  *memConversationRepo
	msgs   *memMessageRepo
	pub    *noopPublisher
	orgID  uuid.UUID
}

// newHandlerFixture wires the conversation routes the way main does, with
// a stub middleware injecting claims instead of a real token.
func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		convs: &memConversationRepo{},
		msgs:  &memMessageRepo{},
		pub:   &noopPublisher{},
		orgID: uuid.New(),
	}

	service := chat.NewService(f.convs, f.msgs, f.pub, zap.NewNop())
	handler := NewConversationHandler(service, zap.NewNop())

	f.router = gin.New()
	v1 := f.router.Group("/v1")
	v1.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyOrgID, f.orgID)
		c.Set(middleware.ContextKeyDisplayName, "Alice")
		c.Set(middleware.ContextKeyRole, models.RoleAdmin)
		c.Next()
	})
	v1.GET("/conversations", handler.List)
	v1.POST("/conversations", handler.Create)
	v1.GET("/conversations/:id", handler.GetByID)
	v1.POST("/conversations/:id/archive", handler.Archive)
	v1.DELETE("/conversations/:id", handler.Delete)
	v1.GET("/conversations/:id/messages", handler.ListMessages)
	v1.POST("/conversations/:id/messages", handler.PostMessage)

	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestConversationHandler_CreateAndGet(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/v1/conversations", gin.H{
		"type":        "internal",
		"routing_key": "app-figma",
		"title":       "Figma discussion",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "app-figma", created.RoutingKey)
	assert.Equal(t, f.orgID, created.OrgID)
	assert.Equal(t, models.ConversationActive, created.Status)

	w = f.do(t, http.MethodGet, "/v1/conversations/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestConversationHandler_CreateRejectsBadInput(t *testing.T) {
	f := newHandlerFixture(t)

	// binding:"required" catches the missing title before the service runs.
	w := f.do(t, http.MethodPost, "/v1/conversations", gin.H{"type": "internal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/v1/conversations", gin.H{"type": "group", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_GetUnknownIDIs404(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/v1/conversations/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/v1/conversations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_PostAndListMessages(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/v1/conversations", gin.H{
		"type":        "internal",
		"routing_key": "app-figma",
		"title":       "Figma discussion",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Sender fields omitted: the authenticated identity fills them in.
	w = f.do(t, http.MethodPost, "/v1/conversations/app-figma/messages", gin.H{
		"content": "who owns this renewal?",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var msg models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "Alice", msg.SenderName)
	assert.Equal(t, models.RoleAdmin, msg.SenderRole)
	assert.Equal(t, 1, f.pub.published)

	w = f.do(t, http.MethodGet, "/v1/conversations/app-figma/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history []models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "who owns this renewal?", history[0].Content)
}

func TestConversationHandler_MessagesForUnknownKeyIs404(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/v1/conversations/no-such-key/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/v1/conversations/no-such-key/messages", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, f.pub.published)
}

func TestConversationHandler_ListMessagesParamValidation(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/v1/conversations/app-figma/messages?after=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/v1/conversations/app-figma/messages?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_ArchiveAndDelete(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/v1/conversations", gin.H{
		"type":  "vendor",
		"title": "Contract talk",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var conv models.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))

	w = f.do(t, http.MethodPost, "/v1/conversations/"+conv.ID.String()+"/archive", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodDelete, "/v1/conversations/"+conv.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodDelete, "/v1/conversations/"+conv.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationHandler_ListFiltersByType(t *testing.T) {
	f := newHandlerFixture(t)

	for _, body := range []gin.H{
		{"type": "internal", "routing_key": "app-figma", "title": "Figma"},
		{"type": "vendor", "title": "Vendor thread"},
	} {
		w := f.do(t, http.MethodPost, "/v1/conversations", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(t, http.MethodGet, "/v1/conversations?type=internal", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []models.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, models.ConversationInternal, listed[0].Type)

	w = f.do(t, http.MethodGet, "/v1/conversations?type=group", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
