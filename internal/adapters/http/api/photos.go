package api

import (
	"net/http"

	"github.com/okian/venuedraw/internal/adapters/http/auth"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/internal/domain/photo"
)

type approvalRequest struct {
	Approved bool `json:"approved"`
}

type photosResponse struct {
	Photos []model.Photo `json:"photos"`
}

// PhotosHandler serves photo moderation and the display photo list.
type PhotosHandler struct {
	srv *Server
}

// HandleSubmit handles POST /api/photos.
func (h *PhotosHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_photo"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	var req photo.Submission
	if err := decodeJSON(r, op, &req); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	p, err := h.srv.deps.Photos.Submit(ctx, caller, req)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleApproval handles POST /api/photos/{id}/approval.
func (h *PhotosHandler) HandleApproval(w http.ResponseWriter, r *http.Request) {
	const op = "api.photo_approval"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	id, err := pathID(r, op)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	var req approvalRequest
	if err := decodeJSON(r, op, &req); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	p, err := h.srv.deps.Photos.SetApproval(ctx, caller, id, req.Approved)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /api/photos/{id}.
func (h *PhotosHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_photo"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	id, err := pathID(r, op)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	if err := h.srv.deps.Photos.Delete(ctx, caller, id); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

// HandleListApproved handles GET /api/displays/photos for an authorized
// display; the event is taken from its session.
func (h *PhotosHandler) HandleListApproved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.srv.deps.Heartbeat.Authenticate(ctx, displayToken(r))
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	photos, err := h.srv.deps.Photos.ListApproved(ctx, session.EventID)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	if photos == nil {
		photos = []model.Photo{}
	}
	writeJSON(w, http.StatusOK, photosResponse{Photos: photos})
}
