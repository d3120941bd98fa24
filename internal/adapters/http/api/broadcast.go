package api

import (
	"net/http"

	"github.com/okian/venuedraw/internal/adapters/http/auth"
	"github.com/okian/venuedraw/internal/domain/broadcast"
)

type broadcastRequest struct {
	EventID string                 `json:"event_id"`
	State   broadcast.StateRequest `json:"state"`
}

// BroadcastHandler lets admins change what displays show.
type BroadcastHandler struct {
	srv *Server
}

// HandleBroadcast handles POST /api/displays/broadcast.
func (h *BroadcastHandler) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	const op = "api.broadcast"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	var req broadcastRequest
	if err := decodeJSON(r, op, &req); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	n, err := h.srv.deps.Broadcast.BroadcastState(ctx, caller, req.EventID, req.State)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, delivered(n))
}
