package api

import (
	"encoding/json"
	"fmt"
)

// Inbound frame variants. The wire format tags every frame with a "type"
// field; parseFrame decodes that exactly once into one of these, so the
// read loop's switch is exhaustive and anything outside the closed set is
// rejected at the boundary.

type subscribeFrame struct {
	RoutingKey string `json:"routingKey"`
}

type unsubscribeFrame struct {
	RoutingKey string `json:"routingKey"`
}

// sendMessageFrame carries a message send over the live connection.
// OrganizationID is accepted for wire compatibility but never read: the
// organization comes from the connection's verified token. Trusting the
// frame here would let any client write into any tenant.
type sendMessageFrame struct {
	ConversationID string `json:"conversationId"`
	OrganizationID string `json:"organizationId"`
	SenderName     string `json:"senderName"`
	SenderRole     string `json:"senderRole"`
	Content        string `json:"content"`
	MessageType    string `json:"messageType"`
}

// Outbound frames.

type connectedFrame struct {
	Type string `json:"type"`
}

type subscribedFrame struct {
	Type       string `json:"type"`
	RoutingKey string `json:"routingKey"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// parseFrame decodes raw into one of the inbound variants. Unknown or
// missing type tags are an error; the caller answers with a protocol
// error frame rather than dropping the frame silently.
func parseFrame(raw []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch envelope.Type {
	case "subscribe":
		var f subscribeFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("malformed subscribe frame: %w", err)
		}
		return f, nil
	case "unsubscribe":
		var f unsubscribeFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("malformed unsubscribe frame: %w", err)
		}
		return f, nil
	case "send_message":
		var f sendMessageFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("malformed send_message frame: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", envelope.Type)
	}
}
