package display

import (
	"time"

	"github.com/okian/venuedraw/pkg/logger"
)

const (
	defaultCodeTTL           = 10 * time.Minute
	defaultHeartbeatInterval = 30 * time.Second
)

// Option applies a configuration option to Pairing or Heartbeat.
type Option func(*config)

type config struct {
	codeTTL           time.Duration
	heartbeatInterval time.Duration
	now               func() time.Time
	newID             func() string
	evictor           Evictor
	logger            logger.Logger
}

// WithCodeTTL sets how long a pairing code stays valid.
func WithCodeTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.codeTTL = ttl
		}
	}
}

// WithHeartbeatInterval sets the interval advertised to paired displays.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *config) {
		if d >= time.Second {
			c.heartbeatInterval = d
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator sets how session ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(c *config) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithEvictor closes live streams of revoked sessions.
func WithEvictor(e Evictor) Option {
	return func(c *config) {
		if e != nil {
			c.evictor = e
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
