package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame_Subscribe(t *testing.T) {
	raw := []byte(`{"type":"subscribe","routingKey":"app-figma"}`)

	got, err := parseFrame(raw)
	require.NoError(t, err)

	f, ok := got.(subscribeFrame)
	require.True(t, ok)
	assert.Equal(t, "app-figma", f.RoutingKey)
}

func TestParseFrame_Unsubscribe(t *testing.T) {
	raw := []byte(`{"type":"unsubscribe","routingKey":"app-figma"}`)

	got, err := parseFrame(raw)
	require.NoError(t, err)

	f, ok := got.(unsubscribeFrame)
	require.True(t, ok)
	assert.Equal(t, "app-figma", f.RoutingKey)
}

func TestParseFrame_SendMessage(t *testing.T) {
	raw := []byte(`{
		"type": "send_message",
		"conversationId": "11f7a2a5-5f9f-4f63-9c5e-2a46d4f9f001",
		"organizationId": "spoofed-org",
		"senderName": "Alice",
		"senderRole": "admin",
		"content": "hello",
		"messageType": "text"
	}`)

	got, err := parseFrame(raw)
	require.NoError(t, err)

	f, ok := got.(sendMessageFrame)
	require.True(t, ok)
	assert.Equal(t, "11f7a2a5-5f9f-4f63-9c5e-2a46d4f9f001", f.ConversationID)
	assert.Equal(t, "Alice", f.SenderName)
	assert.Equal(t, "admin", f.SenderRole)
	assert.Equal(t, "hello", f.Content)
	assert.Equal(t, "text", f.MessageType)
}

func TestParseFrame_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown type", `{"type":"shutdown_server"}`},
		{"missing type", `{"routingKey":"app-figma"}`},
		{"empty object", `{}`},
		{"not json", `subscribe app-figma`},
		{"truncated", `{"type":"subscribe","routingKey":`},
		{"type wrong kind", `{"type":42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseFrame([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}
