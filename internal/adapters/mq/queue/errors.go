package queue

import "errors"

// Enqueue failures.
var (
	ErrClosed = errors.New("outbox closed")
	ErrFull   = errors.New("outbox full")
)
