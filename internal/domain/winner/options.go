package winner

import (
	"time"

	"github.com/okian/venuedraw/pkg/logger"
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithPicker replaces the random source.
func WithPicker(p Picker) Option {
	return func(s *Selector) {
		if p != nil {
			s.picker = p
		}
	}
}

// WithClock sets the time source used for selected_at.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets how winner ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Selector) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the selector.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}
