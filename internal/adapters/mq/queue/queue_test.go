package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/venuedraw/internal/domain/model"
)

func env(id string) model.Envelope {
	return model.Envelope{EventID: id, Channel: model.ChannelState}
}

func TestOutbox_BasicOperations(t *testing.T) {
	q := NewOutbox(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, env("e1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue()
	q.Acknowledge()
	if got.EventID != "e1" {
		t.Errorf("expected e1, got %v", got.EventID)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestOutbox_Capacity(t *testing.T) {
	q := NewOutbox(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"e1", "e2"} {
		if err := q.Enqueue(ctx, env(id)); err != nil {
			t.Fatalf("expected enqueue of %s to succeed, got %v", id, err)
		}
	}
	if err := q.Enqueue(ctx, env("e3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull when full, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestOutbox_CloseDrains(t *testing.T) {
	q := NewOutbox(WithCapacity(4))
	ctx := context.Background()
	_ = q.Enqueue(ctx, env("e1"))
	_ = q.Enqueue(ctx, env("e2"))

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Enqueue(ctx, env("e3")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}

	var drained []string
	for e := range q.Dequeue() {
		drained = append(drained, e.EventID)
	}
	if len(drained) != 2 || drained[0] != "e1" || drained[1] != "e2" {
		t.Errorf("expected [e1 e2] drained in order, got %v", drained)
	}
}

func TestOutbox_CancelledContext(t *testing.T) {
	q := NewOutbox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Enqueue(ctx, env("e1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOutbox_ConcurrentAccess(t *testing.T) {
	const producers, perProducer = 10, 50
	q := NewOutbox(WithCapacity(producers * perProducer))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if err := q.Enqueue(ctx, env(fmt.Sprintf("e%d_%d", id, j))); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	_ = q.Close()

	n := 0
	for range q.Dequeue() {
		n++
	}
	if n != producers*perProducer {
		t.Errorf("expected %d envelopes, got %d", producers*perProducer, n)
	}
}
