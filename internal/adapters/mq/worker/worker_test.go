package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/venuedraw/internal/adapters/mq/queue"
	worker "github.com/okian/venuedraw/internal/adapters/mq/worker"
	model "github.com/okian/venuedraw/internal/domain/model"
	logging "github.com/okian/venuedraw/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockPublisher struct {
	mu        sync.Mutex
	published []model.Envelope
	failFor   map[string]error
	seen      chan string
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{
		failFor: make(map[string]error),
		seen:    make(chan string, 64),
	}
}

func (m *mockPublisher) Publish(_ context.Context, env model.Envelope) error { //nolint:gocritic // test double
	m.mu.Lock()
	err := m.failFor[env.EventID]
	if err == nil {
		m.published = append(m.published, env)
	}
	m.mu.Unlock()
	m.seen <- env.EventID
	return err
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func waitFor(t *testing.T, ch <-chan string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for publish %d of %d", i+1, n)
		}
	}
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker reading from an outbox", t, func() {
		_ = logging.Init()

		outbox := queue.NewOutbox(queue.WithCapacity(8))
		pub := newMockPublisher()
		w := worker.New(outbox, pub, worker.WithName("test-publisher"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When envelopes are enqueued", func() {
			_ = outbox.Enqueue(ctx, model.Envelope{EventID: "e1", Channel: model.ChannelState})
			_ = outbox.Enqueue(ctx, model.Envelope{EventID: "e2", Channel: model.ChannelPhotos})
			waitFor(t, pub.seen, 2)

			convey.Convey("Then each should be published", func() {
				convey.So(pub.count(), convey.ShouldEqual, 2)
				convey.So(outbox.Len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a publish fails", func() {
			pub.failFor["bad"] = errors.New("broker unavailable")
			_ = outbox.Enqueue(ctx, model.Envelope{EventID: "bad", Channel: model.ChannelState})
			_ = outbox.Enqueue(ctx, model.Envelope{EventID: "good", Channel: model.ChannelState})
			waitFor(t, pub.seen, 2)

			convey.Convey("Then the worker should keep going", func() {
				convey.So(pub.count(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the worker is stopped", func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
			defer stopCancel()
			err := w.Stop(stopCtx)

			convey.Convey("Then it should exit cleanly and tolerate a second stop", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Stop(stopCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of publishers", t, func() {
		_ = logging.Init()

		outbox := queue.NewOutbox(queue.WithCapacity(64))
		pub := newMockPublisher()
		pool := worker.NewPool(3, outbox, pub)
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When envelopes are queued and the pool shuts down", func() {
			for i := 0; i < 20; i++ {
				_ = outbox.Enqueue(ctx, model.Envelope{EventID: "e1", Channel: model.ChannelState})
			}
			waitFor(t, pub.seen, 20)
			err := pool.Shutdown(ctx)

			convey.Convey("Then everything should have been published", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pub.count(), convey.ShouldEqual, 20)
				convey.So(outbox.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool created with no explicit size", t, func() {
		pool := worker.NewPool(0, queue.NewOutbox(), newMockPublisher())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
