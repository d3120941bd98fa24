// Package worker drains the outbox and hands envelopes to an external
// publisher. A failed publish is logged and counted, never retried: display
// state is ephemeral and the next broadcast supersedes it.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
	"github.com/okian/venuedraw/pkg/metrics"
)

const (
	defaultWorkerCount    = 2
	defaultPublishTimeout = 5 * time.Second
	poolShutdownTimeout   = 10 * time.Second
)

// Publisher sends one envelope to an external transport.
type Publisher interface {
	Publish(ctx context.Context, env model.Envelope) error
}

// Source is where workers take envelopes from.
type Source interface {
	Dequeue() <-chan model.Envelope
	Acknowledge()
}

// Worker publishes envelopes until its source is closed or it is stopped.
type Worker struct {
	source    Source
	publisher Publisher
	name      string
	timeout   time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a worker.
func New(source Source, publisher Publisher, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		publisher: publisher,
		name:      "worker",
		timeout:   defaultPublishTimeout,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("bridge"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run publishes envelopes until the source closes, ctx ends or Stop is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	envelopes := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			w.source.Acknowledge()
			if err := w.publish(ctx, env); err != nil {
				w.logger.Error(ctx, "bridge publish failed",
					logger.String("event_id", env.EventID),
					logger.String("channel", string(env.Channel)),
					logger.Error(err),
				)
			}
		}
	}
}

// Stop asks the worker to exit and waits until it has, or ctx ends.
func (w *Worker) Stop(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker %s stop: %w", w.name, ctx.Err())
	}
}

// Done is closed when Run has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) publish(ctx context.Context, env model.Envelope) error { //nolint:gocritic // hugeParam: envelope arrives by value
	start := time.Now()
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.publisher.Publish(pctx, env)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordBridgePublish("error", latency)
		metrics.RecordErrorByType("bridge_publish", "medium")
		return fmt.Errorf("publish %s/%s: %w", env.EventID, env.Channel, err)
	}
	metrics.RecordBridgePublish("ok", latency)
	return nil
}

// Pool runs a fixed number of workers over one source.
type Pool struct {
	workers []*Worker
	source  Source
	logger  logger.Logger
}

// NewPool creates count workers. A count below 1 uses the default.
func NewPool(count int, source Source, publisher Publisher, opts ...Option) *Pool {
	if count < 1 {
		count = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*Worker, count),
		source:  source,
		logger:  logger.Get().Named("bridge-pool"),
	}
	for i := 0; i < count; i++ {
		wopts := append([]Option{WithName("publisher-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = New(source, publisher, wopts...)
	}
	metrics.UpdatePublisherCount(count)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the source so workers drain what is queued, then waits for
// them. Workers still busy when ctx or the pool timeout ends are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing outbox", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "publisher did not drain in time", logger.Int("worker_id", i))
			stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
			if err := w.Stop(stopCtx); err != nil && firstErr == nil {
				firstErr = err
			}
			stopCancel()
		}
	}
	metrics.UpdatePublisherCount(0)
	return firstErr
}
