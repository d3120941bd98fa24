// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store drivers accepted by store_driver.
const (
	DriverMemory   = "memory"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the persistence backend.
	StoreDriver string `koanf:"store_driver"`
	DatabaseURL string `koanf:"database_url"`
	// AutoMigrate creates missing tables on startup.
	AutoMigrate bool `koanf:"auto_migrate"`
	// SeedFile is an optional YAML fixture file loaded on startup.
	SeedFile string `koanf:"seed_file"`

	// AuthSecret signs admin bearer tokens.
	AuthSecret string `koanf:"auth_secret"`

	DeviceCodeTTLSeconds     int `koanf:"device_code_ttl_seconds"`
	HeartbeatIntervalSeconds int `koanf:"heartbeat_interval_seconds"`

	// SubscriberBuffer is the per-stream queue length before messages drop.
	SubscriberBuffer       int `koanf:"subscriber_buffer"`
	StreamKeepAliveSeconds int `koanf:"stream_keepalive_seconds"`
	LivenessRefreshSeconds int `koanf:"liveness_refresh_seconds"`

	// MQTTBroker enables the MQTT bridge when set, e.g. "tcp://broker:1883".
	MQTTBroker      string `koanf:"mqtt_broker"`
	MQTTClientID    string `koanf:"mqtt_client_id"`
	MQTTTopicPrefix string `koanf:"mqtt_topic_prefix"`
	MQTTQoS         int    `koanf:"mqtt_qos"`
	OutboxSize      int    `koanf:"outbox_size"`
	PublisherCount  int    `koanf:"publisher_count"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		Addr:                     ":9080",
		StoreDriver:              DriverMemory,
		AutoMigrate:              true,
		DeviceCodeTTLSeconds:     600,
		HeartbeatIntervalSeconds: 30,
		SubscriberBuffer:         16,
		StreamKeepAliveSeconds:   15,
		LivenessRefreshSeconds:   15,
		MQTTClientID:             "venuedraw",
		MQTTTopicPrefix:          "venuedraw",
		MQTTQoS:                  0,
		OutboxSize:               1024,
		PublisherCount:           2,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.AuthSecret) == "":
		return fmt.Errorf("%w: auth_secret must not be empty", ErrInvalidConfig)
	case c.DeviceCodeTTLSeconds <= 0:
		return fmt.Errorf("%w: device_code_ttl_seconds must be positive", ErrInvalidConfig)
	case c.MQTTQoS < 0 || c.MQTTQoS > 2:
		return fmt.Errorf("%w: mqtt_qos must be 0, 1 or 2", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPgx, DriverPostgres, DriverSQLite:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("%w: database_url is required for store_driver %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}

// DeviceCodeTTL returns the pairing code lifetime.
func (c *Config) DeviceCodeTTL() time.Duration {
	return time.Duration(c.DeviceCodeTTLSeconds) * time.Second
}

// StreamKeepAlive returns the SSE keep-alive interval.
func (c *Config) StreamKeepAlive() time.Duration {
	return time.Duration(c.StreamKeepAliveSeconds) * time.Second
}

// LivenessRefresh returns how often liveness gauges are recomputed.
func (c *Config) LivenessRefresh() time.Duration {
	return time.Duration(c.LivenessRefreshSeconds) * time.Second
}

// MQTTEnabled reports whether the MQTT bridge should run.
func (c *Config) MQTTEnabled() bool {
	return strings.TrimSpace(c.MQTTBroker) != ""
}
