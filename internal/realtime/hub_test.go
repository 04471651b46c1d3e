package realtime

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender stands in for a live connection: it records everything sent
// to it and can be flipped to fail, which is how a dead peer looks to the
// dispatcher.
type fakeSender struct {
	id   string
	mu   sync.Mutex
	sent [][]byte
	dead bool
}

func newFakeSender(id string) *fakeSender {
	return &fakeSender{id: id}
}

func (f *fakeSender) SessionID() string { return f.id }

func (f *fakeSender) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dead {
		return errors.New("connection closed")
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeSender) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

func TestHub_JoinAndMembersOf(t *testing.T) {
	hub := NewHub()
	conn := newFakeSender("s1")

	hub.Join("slack-integration-1", conn)

	members := hub.MembersOf("slack-integration-1")
	require.Len(t, members, 1)
	assert.Equal(t, "s1", members[0].SessionID())
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	conn := newFakeSender("s1")

	hub.Join("room-a", conn)
	hub.Join("room-a", conn)

	assert.Len(t, hub.MembersOf("room-a"), 1)

	// One leave fully removes the member regardless of join count.
	hub.Leave("room-a", conn)
	assert.Empty(t, hub.MembersOf("room-a"))
}

func TestHub_LeaveUnknownRoomIsNoop(t *testing.T) {
	hub := NewHub()
	conn := newFakeSender("s1")

	hub.Leave("never-joined", conn)

	assert.Empty(t, hub.MembersOf("never-joined"))
	assert.Empty(t, hub.Rooms())
}

func TestHub_EmptyRoomIsReclaimed(t *testing.T) {
	hub := NewHub()
	a := newFakeSender("a")
	b := newFakeSender("b")

	hub.Join("room-x", a)
	hub.Join("room-x", b)

	hub.Leave("room-x", a)
	assert.Contains(t, hub.Rooms(), "room-x")

	hub.Leave("room-x", b)
	assert.Empty(t, hub.Rooms(), "last member out should remove the key entirely")
}

func TestHub_DetachRemovesFromEveryRoom(t *testing.T) {
	hub := NewHub()
	conn := newFakeSender("s1")
	other := newFakeSender("s2")

	hub.Join("room-a", conn)
	hub.Join("room-b", conn)
	hub.Join("room-c", conn)
	hub.Join("room-b", other)

	hub.Detach(conn)

	assert.Empty(t, hub.MembersOf("room-a"))
	assert.Empty(t, hub.MembersOf("room-c"))

	members := hub.MembersOf("room-b")
	require.Len(t, members, 1)
	assert.Equal(t, "s2", members[0].SessionID())
}

func TestHub_DetachIsIdempotent(t *testing.T) {
	hub := NewHub()
	conn := newFakeSender("s1")

	hub.Join("room-a", conn)
	hub.Detach(conn)
	hub.Detach(conn)

	assert.Empty(t, hub.Rooms())
}

func TestHub_MembersOfIsASnapshot(t *testing.T) {
	hub := NewHub()
	conn := newFakeSender("s1")

	hub.Join("room-a", conn)
	snapshot := hub.MembersOf("room-a")

	hub.Leave("room-a", conn)

	// The snapshot taken before the leave is unaffected.
	assert.Len(t, snapshot, 1)
	assert.Empty(t, hub.MembersOf("room-a"))
}

func TestHub_ConcurrentJoinLeave(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conn := newFakeSender("s" + strconv.Itoa(n))
			hub.Join("shared", conn)
			hub.MembersOf("shared")
			hub.Detach(conn)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, hub.Rooms())
}
