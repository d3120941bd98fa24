// Package queue is the bounded outbox between broadcasts and the MQTT bridge.
// Enqueue never blocks: when the outbox is full the envelope is rejected and
// the broadcast itself is unaffected.
package queue

import (
	"context"
	"sync"

	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/metrics"
)

const defaultCapacity = 1024

// Outbox is an in-memory bounded FIFO of envelopes.
type Outbox struct {
	envelopes chan model.Envelope
	capacity  int

	mu     sync.RWMutex
	closed bool
}

// NewOutbox creates an outbox.
func NewOutbox(opts ...Option) *Outbox {
	q := &Outbox{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.envelopes = make(chan model.Envelope, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds env or returns ErrFull / ErrClosed.
func (q *Outbox) Enqueue(ctx context.Context, env model.Envelope) error { //nolint:gocritic // hugeParam: passed by value into the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}

	select {
	case q.envelopes <- env:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByType("outbox_full", "low")
		return ErrFull
	}
}

// Relay enqueues env; it lets the outbox mirror broadcasts.
func (q *Outbox) Relay(ctx context.Context, env model.Envelope) error { //nolint:gocritic // hugeParam: see Enqueue
	return q.Enqueue(ctx, env)
}

// Dequeue returns the channel consumers read from. It is closed by Close
// once the remaining envelopes have been read.
func (q *Outbox) Dequeue() <-chan model.Envelope {
	return q.envelopes
}

// Acknowledge records that a consumer took one envelope.
func (q *Outbox) Acknowledge() {
	metrics.RecordQueueDequeue()
	q.updateGauges()
}

// Len returns the number of waiting envelopes.
func (q *Outbox) Len() int {
	return len(q.envelopes)
}

// Close stops accepting envelopes. Already queued envelopes stay readable.
func (q *Outbox) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.envelopes)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *Outbox) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *Outbox) updateGauges() {
	size := len(q.envelopes)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
