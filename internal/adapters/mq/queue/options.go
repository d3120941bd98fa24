package queue

// Option applies a configuration option to the Outbox.
type Option func(*Outbox)

// WithCapacity sets how many envelopes may wait before Enqueue rejects.
func WithCapacity(capacity int) Option {
	return func(q *Outbox) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
