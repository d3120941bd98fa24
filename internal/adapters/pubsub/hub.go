// Package pubsub is the in-process fan-out behind display streams. Each
// (event, channel) pair is a topic; publishing never blocks on a slow
// subscriber, the message is dropped for that subscriber instead.
package pubsub

import (
	"sync"

	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/metrics"
)

const defaultBuffer = 16

type topic struct {
	eventID string
	channel model.Channel
}

// Hub routes envelopes to subscribers of their topic.
type Hub struct {
	mu     sync.RWMutex
	buffer int
	topics map[topic]map[*Subscription]struct{}
	owners map[string]map[*Subscription]struct{}
	total  int
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// NewHub returns an empty Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		buffer: defaultBuffer,
		topics: make(map[topic]map[*Subscription]struct{}),
		owners: make(map[string]map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscription is one subscriber's view of a topic. Its channel is closed
// when the subscription is closed or evicted.
type Subscription struct {
	hub   *Hub
	key   topic
	owner string
	ch    chan model.Envelope
	once  sync.Once
}

// C returns the channel envelopes arrive on.
func (s *Subscription) C() <-chan model.Envelope { return s.ch }

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	s.hub.remove(s)
	s.hub.mu.Unlock()
}

// Subscribe registers owner (a display session id) on the event's channel.
func (h *Hub) Subscribe(eventID string, channel model.Channel, owner string) *Subscription {
	s := &Subscription{
		hub:   h,
		key:   topic{eventID: eventID, channel: channel},
		owner: owner,
		ch:    make(chan model.Envelope, h.buffer),
	}

	h.mu.Lock()
	subs := h.topics[s.key]
	if subs == nil {
		subs = make(map[*Subscription]struct{})
		h.topics[s.key] = subs
	}
	subs[s] = struct{}{}
	if owner != "" {
		if h.owners[owner] == nil {
			h.owners[owner] = make(map[*Subscription]struct{})
		}
		h.owners[owner][s] = struct{}{}
	}
	h.total++
	total := h.total
	h.mu.Unlock()

	metrics.UpdateBroadcastSubscribers(total)
	return s
}

// Publish delivers env to every subscriber of its topic without blocking.
func (h *Hub) Publish(env model.Envelope) (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.topics[topic{eventID: env.EventID, channel: env.Channel}] {
		select {
		case s.ch <- env:
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped
}

// Evict closes every subscription held by owner and reports how many.
func (h *Hub) Evict(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.owners[owner]
	n := len(subs)
	for s := range subs {
		h.remove(s)
	}
	return n
}

// Count returns the number of subscribers on a topic.
func (h *Hub) Count(eventID string, channel model.Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic{eventID: eventID, channel: channel}])
}

// Total returns the number of open subscriptions.
func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Close closes every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.topics {
		for s := range subs {
			h.remove(s)
		}
	}
}

// remove must be called with h.mu held for writing.
func (h *Hub) remove(s *Subscription) {
	s.once.Do(func() {
		if subs := h.topics[s.key]; subs != nil {
			delete(subs, s)
			if len(subs) == 0 {
				delete(h.topics, s.key)
			}
		}
		if subs := h.owners[s.owner]; subs != nil {
			delete(subs, s)
			if len(subs) == 0 {
				delete(h.owners, s.owner)
			}
		}
		close(s.ch)
		h.total--
		metrics.UpdateBroadcastSubscribers(h.total)
	})
}
