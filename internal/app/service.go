// Package service wires the store, the broadcast hub, the optional MQTT bridge
// and the domain services into one runnable unit.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/venuedraw/internal/adapters/http/api"
	"github.com/okian/venuedraw/internal/adapters/http/auth"
	"github.com/okian/venuedraw/internal/adapters/http/swagger"
	"github.com/okian/venuedraw/internal/adapters/mq/mqtt"
	outbox "github.com/okian/venuedraw/internal/adapters/mq/queue"
	"github.com/okian/venuedraw/internal/adapters/mq/worker"
	"github.com/okian/venuedraw/internal/adapters/pubsub"
	"github.com/okian/venuedraw/internal/adapters/repository"
	"github.com/okian/venuedraw/internal/config"
	"github.com/okian/venuedraw/internal/domain/broadcast"
	"github.com/okian/venuedraw/internal/domain/display"
	"github.com/okian/venuedraw/internal/domain/photo"
	"github.com/okian/venuedraw/internal/domain/types"
	"github.com/okian/venuedraw/internal/domain/winner"
	"github.com/okian/venuedraw/pkg/logger"
	"github.com/okian/venuedraw/pkg/metrics"
)

const bridgeShutdownTimeout = 10 * time.Second

// ErrNotStarted is returned by calls that need a running service.
var ErrNotStarted = errors.New("service not started")

// Service owns every long-lived component.
type Service struct {
	mu sync.RWMutex

	cfg    *config.Config
	logger logger.Logger

	// Injected store; when nil Start opens the configured one.
	store     repository.Store
	ownsStore bool

	hub    *pubsub.Hub
	outbox *outbox.Outbox
	pool   *worker.Pool
	mqtt   *mqtt.Publisher

	winners     *winner.Selector
	pairing     *display.Pairing
	heartbeat   *display.Heartbeat
	broadcaster *broadcast.Broadcaster
	photos      *photo.Service
	verifier    *auth.Verifier
	api         *api.Server

	started bool
	cancel  context.CancelFunc
	loops   sync.WaitGroup
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore uses store instead of opening the configured driver. The caller
// keeps ownership and closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// New constructs a Service from cfg. Nothing is opened until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New(context.Background())
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}
	return s
}

// Start opens the store, builds the domain services and starts background
// loops. Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting venuedraw service...", logger.String("store_driver", s.cfg.StoreDriver))

	verifier, err := auth.NewVerifier(s.cfg.AuthSecret)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	s.verifier = verifier

	if s.store == nil {
		store, err := repository.Open(ctx, s.cfg.StoreDriver, s.cfg.DatabaseURL,
			repository.WithMigrate(s.cfg.AutoMigrate),
			repository.WithLogger(s.logger.Named("store")),
		)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}
	if s.cfg.SeedFile != "" {
		counts, err := repository.SeedFile(ctx, s.store, s.cfg.SeedFile)
		if err != nil {
			s.closeStore(ctx)
			return fmt.Errorf("seed: %w", err)
		}
		s.logger.Info(ctx, "seed fixtures loaded",
			logger.String("file", s.cfg.SeedFile),
			logger.Int("events", counts.Events),
			logger.Int("contacts", counts.Contacts),
			logger.Int("registrations", counts.Registrations),
		)
	}

	s.hub = pubsub.NewHub(pubsub.WithBuffer(s.cfg.SubscriberBuffer))

	broadcastOpts := []broadcast.Option{broadcast.WithLogger(s.logger.Named("broadcast"))}
	if s.cfg.MQTTEnabled() {
		s.startBridge(ctx)
		broadcastOpts = append(broadcastOpts, broadcast.WithRelay(s.outbox))
	}

	s.winners = winner.NewSelector(s.store, winner.WithLogger(s.logger.Named("winner")))
	s.pairing = display.NewPairing(s.store,
		display.WithCodeTTL(s.cfg.DeviceCodeTTL()),
		display.WithHeartbeatInterval(time.Duration(s.cfg.HeartbeatIntervalSeconds)*time.Second),
		display.WithEvictor(s.hub),
	)
	s.heartbeat = display.NewHeartbeat(s.store)
	s.broadcaster = broadcast.New(s.store, s.hub, broadcastOpts...)
	s.photos = photo.NewService(s.store, s.broadcaster, photo.WithLogger(s.logger.Named("photo")))

	s.api = api.NewServer(api.Dependencies{
		Winners:   s.winners,
		Pairing:   s.pairing,
		Heartbeat: s.heartbeat,
		Broadcast: s.broadcaster,
		Photos:    s.photos,
		Streams:   s.hub,
		Store:     s.store,
		Auth:      s.verifier,
	}, api.WithKeepAlive(s.cfg.StreamKeepAlive()))

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.loops.Add(1)
	go func() {
		defer s.loops.Done()
		s.runLivenessLoop(loopCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "venuedraw service started",
		logger.Int("subscriber_buffer", s.cfg.SubscriberBuffer),
		logger.Bool("mqtt_bridge", s.cfg.MQTTEnabled()),
		logger.Duration("device_code_ttl", s.cfg.DeviceCodeTTL()),
	)
	return nil
}

// startBridge builds the outbox, the MQTT publisher and its worker pool. A
// broker that is down at startup is retried in the background.
func (s *Service) startBridge(ctx context.Context) {
	s.outbox = outbox.NewOutbox(outbox.WithCapacity(s.cfg.OutboxSize))
	s.mqtt = mqtt.NewPublisher(mqtt.Config{
		Broker:      s.cfg.MQTTBroker,
		ClientID:    s.cfg.MQTTClientID,
		TopicPrefix: s.cfg.MQTTTopicPrefix,
		QoS:         byte(s.cfg.MQTTQoS),
	}, mqtt.WithLogger(s.logger.Named("mqtt")))
	if err := s.mqtt.Connect(ctx); err != nil {
		s.logger.Warn(ctx, "mqtt broker unavailable, bridge will keep retrying", logger.Error(err))
	}
	s.pool = worker.NewPool(s.cfg.PublisherCount, s.outbox, s.mqtt, worker.WithLogger(s.logger.Named("bridge")))
	s.pool.Start(context.WithoutCancel(ctx))
}

// Stop shuts components down in reverse order of Start.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping venuedraw service...")

	s.cancel()
	s.loops.Wait()

	// Streams end before the bridge drains so nothing new is enqueued.
	s.hub.Close()
	if s.pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, bridgeShutdownTimeout)
		if err := s.pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "bridge shutdown incomplete", logger.Error(err))
		}
		cancel()
	}
	if s.mqtt != nil {
		published, failed := s.mqtt.Stats()
		_ = s.mqtt.Close()
		s.logger.Info(ctx, "mqtt bridge closed",
			logger.Int("published", int(published)),
			logger.Int("failed", int(failed)),
		)
	}
	s.closeStore(ctx)

	s.started = false
	s.logger.Info(ctx, "venuedraw service stopped")
}

func (s *Service) closeStore(ctx context.Context) {
	if !s.ownsStore || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.store = nil
	s.ownsStore = false
}

// Register attaches the API and documentation routes to mux.
func (s *Service) Register(ctx context.Context, mux *http.ServeMux) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	s.api.Register(ctx, mux)
	swagger.Register(ctx, mux)
	return nil
}

// Verifier returns the admin token verifier, or nil before Start.
func (s *Service) Verifier() *auth.Verifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifier
}

// Stats is a point-in-time view used by the metrics updater and tests.
type Stats struct {
	Started     bool
	Subscribers int
	OutboxLen   int
	MQTTBridge  bool
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Started: s.started, MQTTBridge: s.outbox != nil}
	if !s.started {
		return st
	}
	st.Subscribers = s.hub.Total()
	if s.outbox != nil {
		st.OutboxLen = s.outbox.Len()
	}
	return st
}

func (s *Service) runLivenessLoop(ctx context.Context) {
	interval := s.cfg.LivenessRefresh()
	if interval <= 0 {
		interval = metrics.RefreshInterval()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.RefreshLiveness(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshLiveness(ctx)
		}
	}
}

// RefreshLiveness recomputes the displays-by-liveness gauges.
func (s *Service) RefreshLiveness(ctx context.Context) map[types.Liveness]int {
	sessions, err := s.store.ListLiveSessions(ctx)
	if err != nil {
		s.logger.Warn(ctx, "liveness refresh failed", logger.Error(err))
		return nil
	}
	counts := display.CountByLiveness(sessions, time.Now().UTC())
	for _, l := range []types.Liveness{types.LivenessOnline, types.LivenessWarning, types.LivenessOffline} {
		metrics.UpdateDisplaysByLiveness(string(l), counts[l])
	}
	return counts
}
