package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	ps := NewPubSub()
	_, deliver := ps.Subscribe("network", nil)

	ps.Publish("network", map[string]any{"event": "online"})

	select {
	case payload := <-deliver:
		require.Equal(t, map[string]any{"event": "online"}, payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestPublishFanOutToDuplicateSubscribers(t *testing.T) {
	ps := NewPubSub()
	_, deliverA := ps.Subscribe("device-1", nil)
	_, deliverB := ps.Subscribe("device-1", nil)

	ps.Publish("device-1", "payload")

	require.Equal(t, "payload", <-deliverA)
	require.Equal(t, "payload", <-deliverB)
}

func TestPublishRespectsFilter(t *testing.T) {
	ps := NewPubSub()
	_, accepted := ps.Subscribe("network", func(payload any) bool {
		return payload == "keep"
	})

	ps.Publish("network", "drop")
	ps.Publish("network", "keep")

	select {
	case payload := <-accepted:
		require.Equal(t, "keep", payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for filtered delivery")
	}
}

func TestPublishNonBlockingDropsOldestWhenFull(t *testing.T) {
	ps := NewPubSub()
	_, deliver := ps.Subscribe("device-1", nil)

	for i := 0; i < subscriberBufferSize+5; i++ {
		ps.Publish("device-1", i)
	}

	last := -1
	for {
		select {
		case v := <-deliver:
			last = v.(int)
		default:
			require.Equal(t, subscriberBufferSize+4, last)
			return
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ps := NewPubSub()
	id, deliver := ps.Subscribe("device-1", nil)
	ps.Unsubscribe("device-1", id)

	require.Equal(t, 0, ps.SubscriberCount("device-1"))

	_, ok := <-deliver
	require.False(t, ok)
}

func TestUnsubscribeAllAcrossTopics(t *testing.T) {
	ps := NewPubSub()
	ps.SubscribeWithID("agent-1", "network", nil)
	ps.SubscribeWithID("agent-1", "device-1", nil)

	ps.UnsubscribeAll("agent-1")

	require.Equal(t, 0, ps.SubscriberCount("network"))
	require.Equal(t, 0, ps.SubscriberCount("device-1"))
}
