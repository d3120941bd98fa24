// Package displaysim is a reference display client. It pairs with a device
// code, keeps its session alive with heartbeats, follows the state and photo
// streams and goes back to pairing when the session is lost.
package displaysim

import (
	"time"
)

// Defaults used when the corresponding Config field is zero.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultMaxFailures       = 3
	DefaultTimeout           = 10 * time.Second
	DefaultRetryDelay        = 3 * time.Second
)

// Config holds simulator settings.
type Config struct {
	BaseURL   string // Base URL of the service
	EventCode string // Public code of the event to join
	Timeout   time.Duration

	// HeartbeatInterval overrides the interval the server advertises.
	HeartbeatInterval time.Duration
	// MaxFailures is how many heartbeats in a row may fail before re-pairing.
	MaxFailures int
	// RetryDelay is the wait before re-reading a code after a failed pairing.
	RetryDelay time.Duration
	// Photos also follows the photo channel.
	Photos  bool
	Verbose bool
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.MaxFailures <= 0 {
		out.MaxFailures = DefaultMaxFailures
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = DefaultRetryDelay
	}
	return out
}

// Message is one event received on a stream.
type Message struct {
	Channel string
	Data    string
}

// Stats holds simulator counters.
type Stats struct {
	Pairings          int
	PairingFailures   int
	Heartbeats        int
	HeartbeatFailures int
	Messages          int
	StartTime         time.Time
	EndTime           time.Time
}
