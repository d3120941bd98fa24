// Package mqtt mirrors broadcast envelopes to an MQTT broker so display
// hardware that speaks MQTT can follow an event without holding an HTTP
// stream open.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
)

const (
	connectTimeout       = 5 * time.Second
	disconnectQuiesceMs  = 250
	defaultTopicPrefix   = "venuedraw"
	reconnectMaxInterval = 30 * time.Second
)

// ErrNotConnected is returned while the broker connection is down.
var ErrNotConnected = errors.New("mqtt not connected")

// client is the subset of paho.Client the publisher uses.
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Config describes the broker connection.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// Publisher publishes envelopes to <prefix>/events/<event_id>/<channel>.
type Publisher struct {
	cfg    Config
	client client
	logger logger.Logger

	mu        sync.RWMutex
	published uint64
	errors    uint64
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

func withClient(c client) Option {
	return func(p *Publisher) { p.client = c }
}

// NewPublisher builds a publisher; Connect must be called before Publish.
func NewPublisher(cfg Config, opts ...Option) *Publisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaultTopicPrefix
	}
	cfg.TopicPrefix = strings.TrimRight(cfg.TopicPrefix, "/")
	p := &Publisher{cfg: cfg, logger: logger.Get().Named("mqtt")}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = paho.NewClient(p.clientOptions())
	}
	return p
}

func (p *Publisher) clientOptions() *paho.ClientOptions {
	broker := p.cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	opts := paho.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(p.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(reconnectMaxInterval)
	opts.OnConnect = func(paho.Client) {
		p.logger.Info(context.Background(), "mqtt connection established",
			logger.String("broker", broker),
			logger.String("client_id", p.cfg.ClientID),
		)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		p.logger.Warn(context.Background(), "mqtt connection lost, reconnecting",
			logger.String("broker", broker),
			logger.Error(err),
		)
	}
	return opts
}

// Topic returns the topic an envelope is published on.
func (p *Publisher) Topic(env model.Envelope) string { //nolint:gocritic // hugeParam: envelope is passed by value everywhere
	return fmt.Sprintf("%s/events/%s/%s", p.cfg.TopicPrefix, env.EventID, env.Channel)
}

// Connect dials the broker.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	if err := wait(ctx, token, connectTimeout); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", p.cfg.Broker, err)
	}
	return nil
}

// Publish sends env as JSON.
func (p *Publisher) Publish(ctx context.Context, env model.Envelope) error { //nolint:gocritic // hugeParam: see Topic
	if !p.client.IsConnected() {
		p.countError()
		return ErrNotConnected
	}
	payload, err := json.Marshal(env)
	if err != nil {
		p.countError()
		return fmt.Errorf("encode envelope: %w", err)
	}
	topic := p.Topic(env)
	if err := wait(ctx, p.client.Publish(topic, p.cfg.QoS, false, payload), 0); err != nil {
		p.countError()
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	p.logger.Debug(ctx, "envelope published",
		logger.String("topic", topic),
		logger.Int("size", len(payload)),
	)
	return nil
}

// Stats returns published and failed counts.
func (p *Publisher) Stats() (published, failed uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.published, p.errors
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesceMs)
		p.logger.Info(context.Background(), "mqtt disconnected")
	}
	return nil
}

func (p *Publisher) countError() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}

// wait blocks until token completes, ctx ends or the optional timeout passes.
func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
