package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
)

// SessionTokenHeader carries a display's session token.
const SessionTokenHeader = "X-Session-Token"

// displayToken reads the session token from the header, falling back to the
// token query parameter for EventSource clients that cannot set headers.
func displayToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(SessionTokenHeader)); t != "" {
		return t
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// StreamHandler serves the per-event broadcast channels as Server-Sent Events.
type StreamHandler struct {
	srv *Server
}

// HandleState handles GET /api/displays/stream/state.
func (h *StreamHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, model.ChannelState)
}

// HandlePhotos handles GET /api/displays/stream/photos.
func (h *StreamHandler) HandlePhotos(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, model.ChannelPhotos)
}

// serve streams until the client goes away or the session is revoked, which
// closes the subscription.
func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request, channel model.Channel) {
	const op = "api.stream"
	ctx := r.Context()

	token := displayToken(r)
	session, err := h.srv.deps.Heartbeat.Authenticate(ctx, token)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.srv.writeError(ctx, w, apperr.WrapKind(op, apperr.ErrInternal, ErrStreaming))
		return
	}

	sub := h.srv.deps.Streams.Subscribe(session.EventID, channel, session.ID)
	defer sub.Close()

	// A revoke that landed before Subscribe had nothing to evict, so the
	// session is checked again now that the subscription is visible.
	if _, err := h.srv.deps.Heartbeat.Authenticate(ctx, token); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	h.srv.logger.Info(ctx, "display stream opened",
		logger.String("event_id", session.EventID),
		logger.String("session_id", session.ID),
		logger.String("channel", string(channel)),
	)

	keepAlive := time.NewTicker(h.srv.keepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case env, open := <-sub.C():
			if !open {
				h.srv.logger.Info(ctx, "display stream closed by server",
					logger.String("session_id", session.ID),
					logger.String("channel", string(channel)),
				)
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Channel, env.Payload); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
