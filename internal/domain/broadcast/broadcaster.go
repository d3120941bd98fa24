// Package broadcast pushes display state and photo changes to every display
// subscribed to an event. Delivery is best effort: nothing is persisted and
// late subscribers only see later messages.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/okian/venuedraw/internal/domain/access"
	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
	"github.com/okian/venuedraw/pkg/metrics"
)

// Store is the persistence the broadcaster reads.
type Store interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	GetWinner(ctx context.Context, eventID, winnerID string) (model.WinnerRecord, error)
}

// Publisher fans an envelope out to local subscribers.
type Publisher interface {
	Publish(env model.Envelope) (delivered, dropped int)
}

// Relay forwards envelopes to an external transport.
type Relay interface {
	Relay(ctx context.Context, env model.Envelope) error
}

// StateRequest is an admin's request to change what displays show.
type StateRequest struct {
	Mode     model.DisplayMode `json:"mode"`
	PhotoID  string            `json:"photo_id,omitempty"`
	WinnerID string            `json:"winner_id,omitempty"`
}

// Broadcaster publishes on the per-event state and photo channels.
type Broadcaster struct {
	store  Store
	pub    Publisher
	relay  Relay
	now    func() time.Time
	logger logger.Logger
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithRelay mirrors every envelope to r.
func WithRelay(r Relay) Option {
	return func(b *Broadcaster) {
		if r != nil {
			b.relay = r
		}
	}
}

// WithClock sets the time source for sent_at.
func WithClock(now func() time.Time) Option {
	return func(b *Broadcaster) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Broadcaster) {
		if l != nil {
			b.logger = l
		}
	}
}

// New builds a Broadcaster.
func New(store Store, pub Publisher, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		store:  store,
		pub:    pub,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Get().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BroadcastState sends a new display state to every display of eventID and
// returns how many subscribers received it. A WINNER state carries only the
// winner's name and number.
func (b *Broadcaster) BroadcastState(ctx context.Context, caller model.Caller, eventID string, req StateRequest) (int, error) {
	const op = "broadcast.state"
	if strings.TrimSpace(eventID) == "" {
		return 0, apperr.Newf(op, apperr.ErrValidation, "event_id is required")
	}
	if !req.Mode.Valid() {
		return 0, apperr.Newf(op, apperr.ErrValidation, "unknown display mode %q", req.Mode)
	}
	if req.Mode == model.ModeWinner && strings.TrimSpace(req.WinnerID) == "" {
		return 0, apperr.Newf(op, apperr.ErrValidation, "winner_id is required for WINNER mode")
	}
	event, err := access.AdminEvent(ctx, op, b.store, caller, eventID)
	if err != nil {
		return 0, err
	}

	state := model.DisplayState{Mode: req.Mode, SentAt: b.now()}
	switch req.Mode {
	case model.ModeWinner:
		rec, err := b.store.GetWinner(ctx, event.ID, req.WinnerID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			return 0, apperr.Newf(op, apperr.ErrNotFound, "winner not found for this event")
		case err != nil:
			return 0, apperr.Internal(op, err)
		}
		state.Winner = rec.Announcement()
	case model.ModePhotos:
		state.PhotoID = strings.TrimSpace(req.PhotoID)
	}

	delivered, err := b.publish(ctx, event.ID, model.ChannelState, state, state.SentAt)
	if err != nil {
		return 0, apperr.Internal(op, err)
	}
	b.logger.Info(ctx, "display state broadcast",
		logger.String("event_id", event.ID),
		logger.String("mode", string(req.Mode)),
		logger.Int("delivered", delivered),
	)
	return delivered, nil
}

// PublishPhotoChange streams a photo change to the photo channel of its event.
func (b *Broadcaster) PublishPhotoChange(ctx context.Context, change model.PhotoChange) (int, error) {
	const op = "broadcast.photo_change"
	metrics.RecordPhotoChange(string(change.Type))
	delivered, err := b.publish(ctx, change.Photo.EventID, model.ChannelPhotos, change, b.now())
	if err != nil {
		return 0, apperr.Internal(op, err)
	}
	return delivered, nil
}

func (b *Broadcaster) publish(ctx context.Context, eventID string, ch model.Channel, payload any, at time.Time) (int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	env := model.Envelope{EventID: eventID, Channel: ch, Payload: raw, SentAt: at}

	delivered, dropped := b.pub.Publish(env)
	metrics.RecordBroadcast(string(ch), delivered, dropped)
	if dropped > 0 {
		b.logger.Warn(ctx, "slow subscribers missed a broadcast",
			logger.String("event_id", eventID),
			logger.String("channel", string(ch)),
			logger.Int("dropped", dropped),
		)
	}

	if b.relay != nil {
		if err := b.relay.Relay(ctx, env); err != nil {
			// The relay is a mirror; local delivery already happened.
			b.logger.Warn(ctx, "relay rejected envelope",
				logger.String("event_id", eventID),
				logger.String("channel", string(ch)),
				logger.Error(err),
			)
		}
	}
	return delivered, nil
}
