package displaysim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/venuedraw/pkg/logger"
)

// Simulator runs the display client loop.
type Simulator struct {
	cfg       Config
	client    *Client
	codes     CodeSource
	logger    logger.Logger
	onMessage func(Message)

	mu    sync.Mutex
	stats Stats
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMessageHandler is called for every stream message.
func WithMessageHandler(fn func(Message)) Option {
	return func(s *Simulator) {
		s.onMessage = fn
	}
}

// WithClient replaces the HTTP client built from the config.
func WithClient(c *Client) Option {
	return func(s *Simulator) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a simulator that pairs with codes from codes.
func New(cfg Config, codes CodeSource, opts ...Option) *Simulator {
	cfg = cfg.withDefaults()
	s := &Simulator{
		cfg:    cfg,
		codes:  codes,
		logger: logger.Get().Named("display-sim"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = NewClient(cfg.BaseURL, cfg.Timeout)
	}
	return s
}

// Run pairs, keeps the session alive and re-pairs whenever it is lost. It
// returns nil when ctx ends and ErrNoMoreCodes when the code source runs dry.
func (s *Simulator) Run(ctx context.Context) error {
	s.mu.Lock()
	s.stats.StartTime = time.Now()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.stats.EndTime = time.Now()
		s.mu.Unlock()
	}()

	for {
		authz, err := s.pair(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrNoMoreCodes):
			return err
		case err != nil:
			s.logger.Warn(ctx, "pairing failed", logger.Error(err))
			if !sleep(ctx, s.cfg.RetryDelay) {
				return nil
			}
			continue
		}

		s.session(ctx, authz)
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn(ctx, "display session lost, returning to pairing")
	}
}

func (s *Simulator) pair(ctx context.Context) (Authorization, error) {
	code, err := s.codes.NextCode(ctx)
	if err != nil {
		return Authorization{}, err
	}
	authz, err := s.client.Authorize(ctx, code, s.cfg.EventCode)
	s.mu.Lock()
	if err != nil {
		s.stats.PairingFailures++
	} else {
		s.stats.Pairings++
	}
	s.mu.Unlock()
	if err != nil {
		return Authorization{}, fmt.Errorf("authorize %s: %w", code, err)
	}
	s.logger.Info(ctx, "display paired",
		logger.String("event", authz.Event.Name),
		logger.String("event_code", s.cfg.EventCode),
		logger.Int("heartbeat_interval_seconds", authz.HeartbeatIntervalSeconds),
	)
	return authz, nil
}

// session heartbeats until MaxFailures consecutive heartbeats fail or ctx ends.
func (s *Simulator) session(ctx context.Context, authz Authorization) {
	sctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	channels := []string{"state"}
	if s.cfg.Photos {
		channels = append(channels, "photos")
		if photos, err := s.client.Photos(sctx, authz.SessionToken); err != nil {
			s.logger.Warn(sctx, "failed to fetch approved photos", logger.Error(err))
		} else {
			s.logger.Info(sctx, "approved photos loaded", logger.Int("count", len(photos)))
		}
	}
	for _, ch := range channels {
		wg.Add(1)
		go func(channel string) {
			defer wg.Done()
			s.follow(sctx, channel, authz.SessionToken)
		}(ch)
	}

	interval := s.cfg.HeartbeatInterval
	if interval <= 0 && authz.HeartbeatIntervalSeconds > 0 {
		interval = time.Duration(authz.HeartbeatIntervalSeconds) * time.Second
	}
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	for {
		if err := s.client.Heartbeat(sctx, authz.SessionToken); err != nil {
			if sctx.Err() != nil {
				return
			}
			failures++
			s.mu.Lock()
			s.stats.HeartbeatFailures++
			s.mu.Unlock()
			s.logger.Warn(sctx, "heartbeat failed",
				logger.Int("consecutive_failures", failures),
				logger.Bool("session_lost", errors.Is(err, ErrSessionLost)),
				logger.Error(err),
			)
			if failures >= s.cfg.MaxFailures {
				return
			}
		} else {
			failures = 0
			s.mu.Lock()
			s.stats.Heartbeats++
			s.mu.Unlock()
		}

		select {
		case <-sctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// follow keeps one stream open, reconnecting after the server closes it.
func (s *Simulator) follow(ctx context.Context, channel, token string) {
	for {
		err := s.client.Stream(ctx, channel, token, func(m Message) {
			s.mu.Lock()
			s.stats.Messages++
			s.mu.Unlock()
			if s.cfg.Verbose {
				s.logger.Info(ctx, "stream message", logger.String("channel", m.Channel), logger.String("data", m.Data))
			}
			if s.onMessage != nil {
				s.onMessage(m)
			}
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Debug(ctx, "stream ended", logger.String("channel", channel), logger.Error(err))
		}
		if !sleep(ctx, s.cfg.RetryDelay) {
			return
		}
	}
}

// Stats returns a copy of the counters.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Summary renders the counters for the final log line.
func (st Stats) Summary() string {
	return fmt.Sprintf("ran %s: %s pairings (%s failed), %s heartbeats (%s failed), %s messages",
		strings.TrimSpace(humanize.RelTime(st.StartTime, st.EndTime, "", "")),
		humanize.Comma(int64(st.Pairings)), humanize.Comma(int64(st.PairingFailures)),
		humanize.Comma(int64(st.Heartbeats)), humanize.Comma(int64(st.HeartbeatFailures)),
		humanize.Comma(int64(st.Messages)),
	)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
