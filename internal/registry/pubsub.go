package registry

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize bounds each subscriber's delivery channel (spec
// §8 design note: "bounded queue per subscriber with drop-oldest or
// drop-newest policy, implementer choice, documented"). This
// implementation drops the oldest queued item to make room for the
// newest, since stale state updates are less useful than the latest
// one once a subscriber falls behind.
const subscriberBufferSize = 32

// Filter optionally restricts which published payloads reach a
// subscription; nil means deliver everything published to the topic.
type Filter func(payload any) bool

type subscription struct {
	id      string
	filter  Filter
	deliver chan any
}

// PubSub is the duplicate index keyed by topic: the same subscriber
// may register multiple times, and delivery is FIFO per publisher
// (spec §4.4/§5).
type PubSub struct {
	mu   sync.RWMutex
	subs map[string][]*subscription
}

// NewPubSub creates an empty PubSub.
func NewPubSub() *PubSub {
	return &PubSub{subs: make(map[string][]*subscription)}
}

// Subscribe registers a new subscription on topic and returns its id
// plus the channel it will receive payloads on. filter may be nil.
func (p *PubSub) Subscribe(topic string, filter Filter) (id string, deliver <-chan any) {
	return p.SubscribeWithID(uuid.NewString(), topic, filter)
}

// SubscribeWithID registers a subscription under a caller-chosen id, so
// one Agent can subscribe to several topics (e.g. "network" plus its
// own device_id topic) under a single identity for UnsubscribeAll.
func (p *PubSub) SubscribeWithID(id, topic string, filter Filter) (string, <-chan any) {
	sub := &subscription{
		id:      id,
		filter:  filter,
		deliver: make(chan any, subscriberBufferSize),
	}

	p.mu.Lock()
	p.subs[topic] = append(p.subs[topic], sub)
	p.mu.Unlock()

	return sub.id, sub.deliver
}

// Unsubscribe removes the subscription id from topic, closing its
// delivery channel.
func (p *PubSub) Unsubscribe(topic, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.subs[topic]
	for i, sub := range subs {
		if sub.id == id {
			close(sub.deliver)
			p.subs[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(p.subs[topic]) == 0 {
		delete(p.subs, topic)
	}
}

// UnsubscribeAll removes every subscription with the given id across
// every topic, called from an Agent's cleanup when its run loop exits
// to drop that Agent's PubSub entries.
func (p *PubSub) UnsubscribeAll(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for topic, subs := range p.subs {
		for i, sub := range subs {
			if sub.id == id {
				close(sub.deliver)
				p.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(p.subs[topic]) == 0 {
			delete(p.subs, topic)
		}
	}
}

// Publish delivers payload to every subscription on topic whose filter
// (if any) accepts it. Delivery never blocks the publisher: a full
// subscriber channel has its oldest queued item dropped to make room.
func (p *PubSub) Publish(topic string, payload any) {
	p.mu.RLock()
	subs := make([]*subscription, len(p.subs[topic]))
	copy(subs, p.subs[topic])
	p.mu.RUnlock()

	for _, sub := range subs {
		if sub.filter != nil && !sub.filter(payload) {
			continue
		}
		deliver(sub.deliver, payload)
	}
}

func deliver(ch chan any, payload any) {
	select {
	case ch <- payload:
		return
	default:
	}

	// Channel full: drop the oldest queued item, then retry once.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- payload:
	default:
	}
}

// SubscriberCount returns the number of live subscriptions on topic.
func (p *PubSub) SubscriberCount(topic string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[topic])
}
