package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// relayChannel is the Redis pub/sub channel every node publishes room
// events to and subscribes on.
const relayChannel = "stackroom:chat:events"

// relayEnvelope wraps a room event for the cross-node relay. NodeID lets
// the publishing node skip its own echo; local members already got the
// event synchronously.
type relayEnvelope struct {
	NodeID     string          `json:"node_id"`
	RoutingKey string          `json:"routing_key"`
	Payload    json.RawMessage `json:"payload"`
}

// Dispatcher fans one logical event out to every current member of a room.
// Delivery is best-effort per connection: membership is snapshotted at
// dispatch time, sends to dead peers prune them from the hub, and there is
// no replay — a client offline at publish time catches up via the message
// history endpoint.
//
// With a Redis client configured, every publish is also relayed so members
// connected to peer nodes receive it; without one, the dispatcher is
// single-node and purely in-process.
type Dispatcher struct {
	hub    *Hub
	rdb    *redis.Client
	nodeID string
	logger *zap.Logger
}

func NewDispatcher(hub *Hub, rdb *redis.Client, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		hub:    hub,
		rdb:    rdb,
		nodeID: uuid.NewString(),
		logger: logger,
	}
}

// Publish marshals event once and delivers it to every member currently
// under routingKey, then hands it to the relay. Encoding failures are a
// programming error on the event type; they are logged and dropped rather
// than propagated, since by the time we're here the message is already
// durable.
func (d *Dispatcher) Publish(ctx context.Context, routingKey string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("encode room event", zap.String("routing_key", routingKey), zap.Error(err))
		return
	}

	delivered := d.deliverLocal(routingKey, payload)
	d.logger.Debug("room event published",
		zap.String("routing_key", routingKey),
		zap.Int("delivered", delivered),
	)

	if d.rdb == nil {
		return
	}
	env, err := json.Marshal(relayEnvelope{
		NodeID:     d.nodeID,
		RoutingKey: routingKey,
		Payload:    payload,
	})
	if err != nil {
		d.logger.Error("encode relay envelope", zap.Error(err))
		return
	}
	if err := d.rdb.Publish(ctx, relayChannel, env).Err(); err != nil {
		// Relay failure only affects peers on other nodes; local
		// delivery already happened.
		d.logger.Warn("relay publish failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

// Run consumes relayed events from peer nodes until ctx is cancelled.
// No-op without a Redis client.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.rdb == nil {
		return
	}

	sub := d.rdb.Subscribe(ctx, relayChannel)
	defer sub.Close()

	d.logger.Info("broadcast relay subscribed", zap.String("channel", relayChannel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				d.logger.Warn("bad relay envelope", zap.Error(err))
				continue
			}
			if env.NodeID == d.nodeID {
				continue
			}
			d.deliverLocal(env.RoutingKey, env.Payload)
		}
	}
}

// deliverLocal pushes payload at every member in the room's snapshot.
// A failed send means the peer is gone; it gets pruned from the hub in
// addition to the disconnect-triggered detach, so half-closed sockets
// don't linger in rooms between pings.
func (d *Dispatcher) deliverLocal(routingKey string, payload []byte) int {
	delivered := 0
	for _, member := range d.hub.MembersOf(routingKey) {
		if err := member.Send(payload); err != nil {
			d.hub.Prune(member.SessionID())
			continue
		}
		delivered++
	}
	return delivered
}
