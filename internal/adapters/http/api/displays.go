package api

import (
	"net/http"

	"github.com/okian/venuedraw/internal/adapters/http/auth"
	"github.com/okian/venuedraw/internal/domain/types"
)

type eventRequest struct {
	EventID string `json:"event_id"`
}

type revokeRequest struct {
	SessionID string `json:"session_id"`
}

type authorizeRequest struct {
	DeviceCode string `json:"device_code"`
	EventCode  string `json:"event_code"`
}

type heartbeatRequest struct {
	SessionToken string `json:"session_token"`
}

type sessionsResponse struct {
	Sessions []types.DisplayStatus `json:"sessions"`
}

// DisplaysHandler serves pairing, revocation, listing and heartbeats.
type DisplaysHandler struct {
	srv *Server
}

// HandleGenerateCode handles POST /api/displays/code.
func (h *DisplaysHandler) HandleGenerateCode(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_code"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	var req eventRequest
	if err := decodeJSON(r, op, &req); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	code, err := h.srv.deps.Pairing.GenerateDeviceCode(ctx, caller, req.EventID)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

// HandleRevoke handles POST /api/displays/revoke.
func (h *DisplaysHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	const op = "api.revoke_display"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	var req revokeRequest
	if err := decodeJSON(r, op, &req); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	if err := h.srv.deps.Pairing.RevokeSession(ctx, caller, req.SessionID); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

// HandleList handles GET /api/events/{id}/displays.
func (h *DisplaysHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_displays"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	eventID, err := pathID(r, op)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	sessions, err := h.srv.deps.Pairing.ListSessions(ctx, caller, eventID)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions})
}

// HandleAuthorize handles POST /api/displays/authorize.
func (h *DisplaysHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	const op = "api.authorize_display"
	ctx := r.Context()
	var req authorizeRequest
	if err := decodeJSON(r, op, &req); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	res, err := h.srv.deps.Pairing.AuthorizeDisplay(ctx, req.DeviceCode, req.EventCode)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleHeartbeat handles POST /api/displays/heartbeat.
func (h *DisplaysHandler) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	const op = "api.heartbeat"
	ctx := r.Context()
	var req heartbeatRequest
	if err := decodeJSON(r, op, &req); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	if err := h.srv.deps.Heartbeat.RecordHeartbeat(ctx, req.SessionToken); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}
