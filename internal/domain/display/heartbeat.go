package display

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
	"github.com/okian/venuedraw/pkg/metrics"
)

// Heartbeat records display heartbeats and resolves session tokens.
type Heartbeat struct {
	store Store
	cfg   config
}

// NewHeartbeat builds a Heartbeat monitor over store.
func NewHeartbeat(store Store, opts ...Option) *Heartbeat {
	return &Heartbeat{store: store, cfg: newConfig("display.heartbeat", opts)}
}

// RecordHeartbeat stamps the session holding token. Revoked and unknown
// tokens fail with Unauthorized.
func (h *Heartbeat) RecordHeartbeat(ctx context.Context, token string) error {
	const op = "display.heartbeat"
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.RecordDisplayHeartbeat("unauthorized")
		return apperr.Newf(op, apperr.ErrUnauthorized, "session token required")
	}
	err := h.store.TouchHeartbeat(ctx, token, h.cfg.now())
	switch {
	case errors.Is(err, model.ErrNotFound):
		metrics.RecordDisplayHeartbeat("unauthorized")
		return apperr.Newf(op, apperr.ErrUnauthorized, "invalid or revoked session")
	case err != nil:
		metrics.RecordDisplayHeartbeat("error")
		return apperr.Internal(op, err)
	}
	metrics.RecordDisplayHeartbeat("ok")
	return nil
}

// Authenticate returns the active session holding token.
func (h *Heartbeat) Authenticate(ctx context.Context, token string) (model.DisplaySession, error) {
	const op = "display.authenticate"
	token = strings.TrimSpace(token)
	if token == "" {
		return model.DisplaySession{}, apperr.Newf(op, apperr.ErrUnauthorized, "session token required")
	}
	s, err := h.store.GetSessionByToken(ctx, token)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.DisplaySession{}, apperr.Newf(op, apperr.ErrUnauthorized, "invalid or revoked session")
	case err != nil:
		return model.DisplaySession{}, apperr.Internal(op, err)
	case !s.IsActive:
		h.cfg.logger.Debug(ctx, "rejected token of inactive session", logger.String("session_id", s.ID))
		return model.DisplaySession{}, apperr.Newf(op, apperr.ErrUnauthorized, "invalid or revoked session")
	}
	return s, nil
}
