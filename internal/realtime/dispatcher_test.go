package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	Type       string `json:"type"`
	RoutingKey string `json:"routingKey"`
	Body       string `json:"body"`
}

func TestDispatcher_PublishDeliversToRoomMembers(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub, nil, zap.NewNop())

	member := newFakeSender("member")
	outsider := newFakeSender("outsider")
	hub.Join("key-1", member)
	hub.Join("key-2", outsider)

	d.Publish(context.Background(), "key-1", testEvent{Type: "new_message", RoutingKey: "key-1", Body: "hello"})

	got := member.received()
	require.Len(t, got, 1)

	var event testEvent
	require.NoError(t, json.Unmarshal(got[0], &event))
	assert.Equal(t, "new_message", event.Type)
	assert.Equal(t, "hello", event.Body)

	assert.Empty(t, outsider.received(), "members of other rooms must not receive the event")
}

func TestDispatcher_PublishToEmptyRoom(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub, nil, zap.NewNop())

	// Must not panic or error; an empty room is a normal state.
	d.Publish(context.Background(), "nobody-home", testEvent{Type: "new_message"})
}

func TestDispatcher_DeadMemberIsPruned(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub, nil, zap.NewNop())

	alive := newFakeSender("alive")
	dead := newFakeSender("dead")
	dead.dead = true

	hub.Join("key-1", alive)
	hub.Join("key-1", dead)
	hub.Join("key-2", dead)

	d.Publish(context.Background(), "key-1", testEvent{Type: "new_message", Body: "ping"})

	require.Len(t, alive.received(), 1)

	// The failed send evicts the dead session from every room, not just
	// the one being published to.
	members := hub.MembersOf("key-1")
	require.Len(t, members, 1)
	assert.Equal(t, "alive", members[0].SessionID())
	assert.Empty(t, hub.MembersOf("key-2"))
}

func TestDispatcher_DeliveryAfterPrune(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub, nil, zap.NewNop())

	alive := newFakeSender("alive")
	dead := newFakeSender("dead")
	dead.dead = true

	hub.Join("key-1", alive)
	hub.Join("key-1", dead)

	d.Publish(context.Background(), "key-1", testEvent{Body: "first"})
	d.Publish(context.Background(), "key-1", testEvent{Body: "second"})

	// The live member got both, in order, despite the dead peer.
	got := alive.received()
	require.Len(t, got, 2)

	var first, second testEvent
	require.NoError(t, json.Unmarshal(got[0], &first))
	require.NoError(t, json.Unmarshal(got[1], &second))
	assert.Equal(t, "first", first.Body)
	assert.Equal(t, "second", second.Body)
}
