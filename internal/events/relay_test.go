package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwire/taskwire/internal/events"
)

// fakePubSub is an in-process broker: Publish loops the payload back to
// every subscriber of the channel.
type fakePubSub struct {
	mu        sync.Mutex
	published [][]byte
	subs      map[string][]chan []byte

	publishErr   error
	subscribeErr error
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{subs: make(map[string][]chan []byte)}
}

func (p *fakePubSub) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, payload)
	for _, ch := range p.subs[channel] {
		ch <- payload
	}
	return nil
}

func (p *fakePubSub) Subscribe(_ context.Context, channel string) (<-chan []byte, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.subscribeErr != nil {
		return nil, nil, p.subscribeErr
	}
	ch := make(chan []byte, 16)
	p.subs[channel] = append(p.subs[channel], ch)
	return ch, func() {}, nil
}

// inject delivers a raw payload to subscribers as if a peer published it.
func (p *fakePubSub) inject(channel string, payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs[channel] {
		ch <- payload
	}
}

// recordingBroadcaster is shared with coordinator tests via fakeBroadcaster,
// but the relay needs thread-safe access because Run applies messages from
// its own goroutine.
type recordingBroadcaster struct {
	mu      sync.Mutex
	fanouts []fanout
}

func (b *recordingBroadcaster) Broadcast(rooms []string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fanouts = append(b.fanouts, fanout{rooms: rooms, frame: payload})
}

func (b *recordingBroadcaster) BroadcastAll(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fanouts = append(b.fanouts, fanout{all: true, frame: payload})
}

func (b *recordingBroadcaster) snapshot() []fanout {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]fanout(nil), b.fanouts...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestRelay_SkipsOwnEchoes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := newFakePubSub()
	local := &recordingBroadcaster{}
	relay := events.NewRelay(pubsub, local, "tasks:events")

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	// Wait until the subscription is live before publishing.
	waitFor(t, func() bool {
		pubsub.mu.Lock()
		defer pubsub.mu.Unlock()
		return len(pubsub.subs["tasks:events"]) == 1
	})

	relay.PublishRooms(ctx, []string{"admin"}, []byte(`{"event":"taskUpdated"}`))

	// The loopback delivers our own message; the relay must not re-apply
	// it to the local hub.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, local.snapshot())

	cancel()
	require.NoError(t, <-done)
}

func TestRelay_AppliesRemoteRoomFanout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := newFakePubSub()
	local := &recordingBroadcaster{}
	relay := events.NewRelay(pubsub, local, "tasks:events")

	go func() { _ = relay.Run(ctx) }()
	waitFor(t, func() bool {
		pubsub.mu.Lock()
		defer pubsub.mu.Unlock()
		return len(pubsub.subs["tasks:events"]) == 1
	})

	remote, err := json.Marshal(map[string]any{
		"origin": "peer-instance",
		"rooms":  []string{"admin", "task-123"},
		"frame":  json.RawMessage(`{"event":"taskAssigned"}`),
	})
	require.NoError(t, err)
	pubsub.inject("tasks:events", remote)

	waitFor(t, func() bool { return len(local.snapshot()) == 1 })

	got := local.snapshot()[0]
	assert.False(t, got.all)
	assert.Equal(t, []string{"admin", "task-123"}, got.rooms)
	assert.JSONEq(t, `{"event":"taskAssigned"}`, string(got.frame))
}

func TestRelay_AppliesRemoteGlobalFanout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := newFakePubSub()
	local := &recordingBroadcaster{}
	relay := events.NewRelay(pubsub, local, "tasks:events")

	go func() { _ = relay.Run(ctx) }()
	waitFor(t, func() bool {
		pubsub.mu.Lock()
		defer pubsub.mu.Unlock()
		return len(pubsub.subs["tasks:events"]) == 1
	})

	remote, err := json.Marshal(map[string]any{
		"origin": "peer-instance",
		"all":    true,
		"frame":  json.RawMessage(`{"event":"taskStatusUpdated"}`),
	})
	require.NoError(t, err)
	pubsub.inject("tasks:events", remote)

	waitFor(t, func() bool { return len(local.snapshot()) == 1 })
	assert.True(t, local.snapshot()[0].all)
}

func TestRelay_IgnoresMalformedMessages(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := newFakePubSub()
	local := &recordingBroadcaster{}
	relay := events.NewRelay(pubsub, local, "tasks:events")

	go func() { _ = relay.Run(ctx) }()
	waitFor(t, func() bool {
		pubsub.mu.Lock()
		defer pubsub.mu.Unlock()
		return len(pubsub.subs["tasks:events"]) == 1
	})

	pubsub.inject("tasks:events", []byte("not json"))

	remote, err := json.Marshal(map[string]any{
		"origin": "peer-instance",
		"all":    true,
		"frame":  json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	pubsub.inject("tasks:events", remote)

	// The valid message after the garbage one still lands.
	waitFor(t, func() bool { return len(local.snapshot()) == 1 })
}

func TestRelay_PublishFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	pubsub := newFakePubSub()
	pubsub.publishErr = errors.New("broker unavailable")
	local := &recordingBroadcaster{}
	relay := events.NewRelay(pubsub, local, "tasks:events")

	// Must not panic or propagate.
	relay.PublishRooms(context.Background(), []string{"admin"}, []byte("x"))
	relay.PublishAll(context.Background(), []byte("x"))
}

func TestRelay_RunSubscribeError(t *testing.T) {
	t.Parallel()

	pubsub := newFakePubSub()
	pubsub.subscribeErr = errors.New("broker unavailable")
	relay := events.NewRelay(pubsub, &recordingBroadcaster{}, "tasks:events")

	err := relay.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscribe")
}
