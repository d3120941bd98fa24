package repository

import (
	"time"

	"github.com/okian/venuedraw/pkg/logger"
)

type options struct {
	maxOpenConns    int
	connMaxLifetime time.Duration
	migrate         bool
	logger          logger.Logger
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithMaxOpenConns bounds the SQL connection pool. SQLite always uses one.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithConnMaxLifetime recycles pooled connections after d.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connMaxLifetime = d
		}
	}
}

// WithMigrate creates missing tables and indexes on open.
func WithMigrate(enabled bool) Option {
	return func(o *options) {
		o.migrate = enabled
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
