package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PubSub is the broker surface the relay needs. *redisstore.PubSub
// satisfies it.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// relayMessage carries one fan-out between instances: the target rooms
// (or the all-connections flag) plus the already-marshaled wire frame.
type relayMessage struct {
	Origin string          `json:"origin"`
	All    bool            `json:"all,omitempty"`
	Rooms  []string        `json:"rooms,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// Relay mirrors local fan-outs to peer instances over a pub/sub channel
// and applies remote fan-outs to the local hub. Each instance tags its
// messages with a random origin id and skips its own echoes, so local
// delivery stays synchronous and exactly-once.
type Relay struct {
	pubsub  PubSub
	hub     Broadcaster
	channel string
	origin  string
}

func NewRelay(pubsub PubSub, b Broadcaster, channel string) *Relay {
	return &Relay{
		pubsub:  pubsub,
		hub:     b,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// PublishRooms mirrors a room-targeted fan-out to peers. Best-effort.
func (r *Relay) PublishRooms(ctx context.Context, rooms []string, frame []byte) {
	r.publish(ctx, relayMessage{Origin: r.origin, Rooms: rooms, Frame: frame})
}

// PublishAll mirrors an all-connections fan-out to peers. Best-effort.
func (r *Relay) PublishAll(ctx context.Context, frame []byte) {
	r.publish(ctx, relayMessage{Origin: r.origin, All: true, Frame: frame})
}

func (r *Relay) publish(ctx context.Context, msg relayMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("relay: marshal")
		return
	}
	if err := r.pubsub.Publish(ctx, r.channel, payload); err != nil {
		log.Warn().Err(err).Str("channel", r.channel).Msg("relay: publish failed")
	}
}

// Run subscribes to the relay channel and applies remote fan-outs to the
// local hub until ctx is canceled or the subscription closes.
func (r *Relay) Run(ctx context.Context) error {
	messages, cleanup, err := r.pubsub.Subscribe(ctx, r.channel)
	if err != nil {
		return fmt.Errorf("relay.Run: subscribe: %w", err)
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			r.apply(payload)
		}
	}
}

func (r *Relay) apply(payload []byte) {
	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Warn().Err(err).Msg("relay: bad message")
		return
	}
	if msg.Origin == r.origin {
		return
	}

	if msg.All {
		r.hub.BroadcastAll(msg.Frame)
		return
	}
	r.hub.Broadcast(msg.Rooms, msg.Frame)
}
