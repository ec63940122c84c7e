package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastReachesOnlyOwnFamily(t *testing.T) {
	hub := NewHub()

	a := &client{send: make(chan []byte, 1)}
	b := &client{send: make(chan []byte, 1)}
	other := &client{send: make(chan []byte, 1)}

	hub.register(1, a)
	hub.register(1, b)
	hub.register(2, other)

	hub.Broadcast(1, NewEvent("task_completed", map[string]any{"task_id": 7}))

	for _, c := range []*client{a, b} {
		select {
		case frame := <-c.send:
			var evt Event
			require.NoError(t, json.Unmarshal(frame, &evt))
			assert.Equal(t, "task_completed", evt.Type)
			assert.NotEmpty(t, evt.ID)
			assert.False(t, evt.SentAt.IsZero())
		default:
			t.Fatal("family 1 client did not receive the event")
		}
	}

	select {
	case <-other.send:
		t.Fatal("family 2 client must not receive family 1 events")
	default:
	}
}

func TestHubBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()

	slow := &client{send: make(chan []byte, 1)}
	hub.register(3, slow)

	hub.Broadcast(3, NewEvent("first", nil))
	// Buffer is full now; the second broadcast must not block.
	hub.Broadcast(3, NewEvent("second", nil))

	frame := <-slow.send
	var evt Event
	require.NoError(t, json.Unmarshal(frame, &evt))
	assert.Equal(t, "first", evt.Type)

	select {
	case <-slow.send:
		t.Fatal("second event should have been dropped")
	default:
	}
}

func TestHubUnregisterCleansUpFamily(t *testing.T) {
	hub := NewHub()

	c := &client{send: make(chan []byte, 1)}
	hub.register(5, c)
	assert.Equal(t, 1, hub.ClientCount(5))

	hub.unregister(5, c)
	assert.Equal(t, 0, hub.ClientCount(5))

	// Broadcasting to an empty family is a no-op.
	hub.Broadcast(5, NewEvent("noop", nil))
}
