// Package display pairs venue displays with events and tracks their health.
//
// An admin generates a short-lived 6-digit code, the display enters it
// together with the event code and receives a session token. The token
// authenticates heartbeats and broadcast subscriptions until the session is
// revoked.
package display

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/venuedraw/internal/domain/access"
	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/internal/domain/types"
	"github.com/okian/venuedraw/pkg/logger"
	"github.com/okian/venuedraw/pkg/metrics"
)

// Store is the persistence pairing and heartbeats need.
type Store interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	GetEventByCode(ctx context.Context, code string) (model.Event, error)

	CreateDisplaySession(ctx context.Context, s model.DisplaySession) error
	// FindPendingSessions returns inactive, never-authorized sessions of an
	// event with the given code, regardless of expiry.
	FindPendingSessions(ctx context.Context, eventID, deviceCode string) ([]model.DisplaySession, error)
	CountActiveSessions(ctx context.Context, eventID string) (int, error)
	// ActivateSession turns a pending session live. It returns
	// model.ErrNotFound if the session is no longer pending.
	ActivateSession(ctx context.Context, id, token string, at time.Time) error
	// TouchHeartbeat stamps an active session. It returns model.ErrNotFound
	// when no active session holds token.
	TouchHeartbeat(ctx context.Context, token string, at time.Time) error
	GetDisplaySession(ctx context.Context, id string) (model.DisplaySession, error)
	GetSessionByToken(ctx context.Context, token string) (model.DisplaySession, error)
	DeactivateSession(ctx context.Context, id string) error
	ListDisplaySessions(ctx context.Context, eventID string) ([]model.DisplaySession, error)
}

// Evictor drops the live subscriptions of a session.
type Evictor interface {
	Evict(sessionID string) int
}

// Pairing issues device codes, authorizes displays and revokes sessions.
type Pairing struct {
	store Store
	cfg   config
}

func newConfig(component string, opts []Option) config {
	c := config{
		codeTTL:           defaultCodeTTL,
		heartbeatInterval: defaultHeartbeatInterval,
		now:               func() time.Time { return time.Now().UTC() },
		newID:             uuid.NewString,
		logger:            logger.Get().Named(component),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewPairing builds a Pairing service over store.
func NewPairing(store Store, opts ...Option) *Pairing {
	return &Pairing{store: store, cfg: newConfig("display.pairing", opts)}
}

// CodeTTL reports how long generated codes stay valid.
func (p *Pairing) CodeTTL() time.Duration { return p.cfg.codeTTL }

// GenerateDeviceCode creates a pending session for eventID and returns its
// code. The code is not unique across events; it is only ever looked up
// together with the event.
func (p *Pairing) GenerateDeviceCode(ctx context.Context, caller model.Caller, eventID string) (types.DeviceCode, error) {
	const op = "display.generate_code"
	if strings.TrimSpace(eventID) == "" {
		return types.DeviceCode{}, apperr.Newf(op, apperr.ErrValidation, "event_id is required")
	}
	event, err := access.AdminEvent(ctx, op, p.store, caller, eventID)
	if err != nil {
		return types.DeviceCode{}, err
	}

	code, err := NewDeviceCode()
	if err != nil {
		return types.DeviceCode{}, apperr.Internal(op, err)
	}
	placeholder, err := NewSessionToken()
	if err != nil {
		return types.DeviceCode{}, apperr.Internal(op, err)
	}

	now := p.cfg.now()
	s := model.DisplaySession{
		ID:           p.cfg.newID(),
		EventID:      event.ID,
		DeviceCode:   code,
		SessionToken: pendingPrefix + placeholder,
		ExpiresAt:    now.Add(p.cfg.codeTTL),
		CreatedAt:    now,
	}
	if err := p.store.CreateDisplaySession(ctx, s); err != nil {
		return types.DeviceCode{}, apperr.Internal(op, err)
	}

	metrics.RecordDeviceCodeIssued()
	p.cfg.logger.Info(ctx, "device code issued",
		logger.String("event_id", event.ID),
		logger.String("session_id", s.ID),
		logger.Time("expires_at", s.ExpiresAt),
	)
	return types.DeviceCode{SessionID: s.ID, DeviceCode: code, ExpiresAt: s.ExpiresAt}, nil
}

// AuthorizeDisplay exchanges a device code and event code for a session
// token. Unknown, used and expired codes all fail the same way.
func (p *Pairing) AuthorizeDisplay(ctx context.Context, deviceCode, eventCode string) (types.Authorization, error) {
	const op = "display.authorize"
	deviceCode = strings.TrimSpace(deviceCode)
	eventCode = strings.TrimSpace(eventCode)
	if !ValidDeviceCode(deviceCode) {
		metrics.RecordDisplayAuthorization("invalid")
		return types.Authorization{}, apperr.Newf(op, apperr.ErrValidation, "device_code must be 6 digits")
	}
	if eventCode == "" {
		metrics.RecordDisplayAuthorization("invalid")
		return types.Authorization{}, apperr.Newf(op, apperr.ErrValidation, "event_code is required")
	}

	event, err := p.store.GetEventByCode(ctx, eventCode)
	switch {
	case errors.Is(err, model.ErrNotFound):
		metrics.RecordDisplayAuthorization("not_found")
		return types.Authorization{}, apperr.Newf(op, apperr.ErrNotFound, "event not found or not active")
	case err != nil:
		return types.Authorization{}, apperr.Internal(op, err)
	case event.Status != model.EventActive:
		metrics.RecordDisplayAuthorization("not_found")
		return types.Authorization{}, apperr.Newf(op, apperr.ErrNotFound, "event not found or not active")
	}

	now := p.cfg.now()
	candidates, err := p.store.FindPendingSessions(ctx, event.ID, deviceCode)
	if err != nil {
		return types.Authorization{}, apperr.Internal(op, err)
	}
	var session *model.DisplaySession
	for i := range candidates {
		if candidates[i].Pending(now) {
			session = &candidates[i]
			break
		}
	}
	if session == nil {
		metrics.RecordDisplayAuthorization("not_found")
		return types.Authorization{}, apperr.Newf(op, apperr.ErrNotFound, "invalid or expired device code")
	}

	live, err := p.store.CountActiveSessions(ctx, event.ID)
	if err != nil {
		return types.Authorization{}, apperr.Internal(op, err)
	}
	if live >= event.MaxDisplaySessions {
		metrics.RecordDisplayAuthorization("capacity")
		return types.Authorization{}, apperr.Newf(op, apperr.ErrCapacityExceeded,
			"maximum of %d displays already connected", event.MaxDisplaySessions)
	}

	token, err := NewSessionToken()
	if err != nil {
		return types.Authorization{}, apperr.Internal(op, err)
	}
	err = p.store.ActivateSession(ctx, session.ID, token, now)
	switch {
	case errors.Is(err, model.ErrNotFound):
		// Someone else redeemed the code first.
		metrics.RecordDisplayAuthorization("not_found")
		return types.Authorization{}, apperr.Newf(op, apperr.ErrNotFound, "invalid or expired device code")
	case err != nil:
		return types.Authorization{}, apperr.Internal(op, err)
	}

	metrics.RecordDisplayAuthorization("ok")
	p.cfg.logger.Info(ctx, "display authorized",
		logger.String("event_id", event.ID),
		logger.String("session_id", session.ID),
		logger.Int("live_sessions", live+1),
	)
	return types.Authorization{
		SessionToken:             token,
		Event:                    event.Summary(),
		HeartbeatIntervalSeconds: int(p.cfg.heartbeatInterval / time.Second),
	}, nil
}

// RevokeSession deactivates a session for good and closes its streams.
// Revoking an already revoked session succeeds.
func (p *Pairing) RevokeSession(ctx context.Context, caller model.Caller, sessionID string) error {
	const op = "display.revoke"
	if strings.TrimSpace(sessionID) == "" {
		return apperr.Newf(op, apperr.ErrValidation, "session_id is required")
	}
	if err := access.RequireAdmin(op, caller); err != nil {
		return err
	}
	s, err := p.store.GetDisplaySession(ctx, sessionID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return apperr.Newf(op, apperr.ErrNotFound, "display session not found")
	case err != nil:
		return apperr.Internal(op, err)
	}
	event, err := access.LoadEvent(ctx, op, p.store, s.EventID)
	if err != nil {
		return err
	}
	if err := access.RequireTenant(op, caller, event); err != nil {
		return err
	}

	if err := p.store.DeactivateSession(ctx, s.ID); err != nil {
		return apperr.Internal(op, err)
	}
	evicted := 0
	if p.cfg.evictor != nil {
		evicted = p.cfg.evictor.Evict(s.ID)
	}

	metrics.RecordDisplayRevocation()
	p.cfg.logger.Info(ctx, "display session revoked",
		logger.String("event_id", s.EventID),
		logger.String("session_id", s.ID),
		logger.String("revoked_by", caller.UserID),
		logger.Int("streams_closed", evicted),
	)
	return nil
}

// ListSessions returns every session of an event with its derived state and
// liveness, oldest first.
func (p *Pairing) ListSessions(ctx context.Context, caller model.Caller, eventID string) ([]types.DisplayStatus, error) {
	const op = "display.list"
	event, err := access.AdminEvent(ctx, op, p.store, caller, eventID)
	if err != nil {
		return nil, err
	}
	sessions, err := p.store.ListDisplaySessions(ctx, event.ID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	now := p.cfg.now()
	out := make([]types.DisplayStatus, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, Describe(s, now))
	}
	return out, nil
}
