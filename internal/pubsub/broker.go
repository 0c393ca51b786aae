// Package pubsub is the in-memory, non-persistent topic broker behind the
// entity-lifecycle subscription streams.
package pubsub

import (
	"sync"
)

const (
	TopicUserCreated = "userCreated"
	TopicUserUpdated = "userUpdated"
	TopicUserDeleted = "userDeleted"
	TopicUserLogout  = "userLogout"
	TopicLogCreated  = "logCreated"
)

// subscriberBuffer bounds each subscriber channel. A publish to a full
// channel is dropped for that subscriber: one stalled consumer must not
// block delivery to the rest or pin memory.
const subscriberBuffer = 16

// ValidTopic reports whether the name is a known subscription topic.
func ValidTopic(topic string) bool {
	switch topic {
	case TopicUserCreated, TopicUserUpdated, TopicUserDeleted, TopicUserLogout, TopicLogCreated:
		return true
	}
	return false
}

// Broker fans each publish out to every currently-attached subscriber of the
// topic. No replay: subscribers only see publishes made after they attach.
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[uint64]chan interface{}
	nextID uint64
}

func NewBroker() *Broker {
	return &Broker{topics: make(map[string]map[uint64]chan interface{})}
}

// Subscribe attaches a consumer to the topic. The returned channel yields
// each subsequent publish in order; cancel detaches and closes it.
func (b *Broker) Subscribe(topic string) (<-chan interface{}, func()) {
	ch := make(chan interface{}, subscriberBuffer)

	b.mu.Lock()
	subscribers, ok := b.topics[topic]
	if !ok {
		subscribers = make(map[uint64]chan interface{})
		b.topics[topic] = subscribers
	}
	id := b.nextID
	b.nextID++
	subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.topics[topic], id)
			// Closed under the lock so an in-flight Publish never sends on a
			// closed channel.
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers the payload to every active subscriber of the topic.
// With no subscribers it is a no-op; nothing is queued for later.
func (b *Broker) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.topics[topic] {
		select {
		case ch <- payload:
		default: // subscriber buffer full, drop for this subscriber
		}
	}
}
