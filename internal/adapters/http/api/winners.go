package api

import (
	"net/http"
	"strings"

	"github.com/okian/venuedraw/internal/adapters/http/auth"
	"github.com/okian/venuedraw/internal/domain/access"
	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/broadcast"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
)

type selectRequest struct {
	EventID        string `json:"event_id"`
	Method         string `json:"method"`
	RegistrationID string `json:"registration_id,omitempty"`
	Announce       bool   `json:"announce,omitempty"`
}

func (req selectRequest) mode(op string) (model.SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(req.Method)) {
	case "":
		return nil, nil
	case "random":
		return model.RandomDraw{}, nil
	case "manual":
		return model.ManualPick{RegistrationID: req.RegistrationID}, nil
	default:
		return nil, apperr.Newf(op, apperr.ErrValidation, "method must be random or manual")
	}
}

type selectResponse struct {
	Winner       model.WinnerRecord `json:"winner"`
	WinnerNumber int                `json:"winner_number"`
	Announced    bool               `json:"announced,omitempty"`
}

type winnersResponse struct {
	Winners []model.WinnerRecord `json:"winners"`
}

// WinnersHandler serves winner selection and the audit trail.
type WinnersHandler struct {
	srv *Server
}

// HandleSelect handles POST /api/winners/select.
func (h *WinnersHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	const op = "api.select_winner"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	if err := access.RequireAdmin(op, caller); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}

	var req selectRequest
	if err := decodeJSON(r, op, &req); err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	mode, err := req.mode(op)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	rec, err := h.srv.deps.Winners.Select(ctx, caller, req.EventID, mode)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}

	resp := selectResponse{Winner: rec, WinnerNumber: rec.Number}
	if req.Announce && h.srv.deps.Broadcast != nil {
		_, err := h.srv.deps.Broadcast.BroadcastState(ctx, caller, rec.EventID,
			broadcast.StateRequest{Mode: model.ModeWinner, WinnerID: rec.ID})
		if err != nil {
			// The winner is recorded either way; the admin can re-announce.
			h.srv.logger.Warn(ctx, "winner announcement failed",
				logger.String("winner_id", rec.ID),
				logger.Error(err),
			)
		} else {
			resp.Announced = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleList handles GET /api/events/{id}/winners.
func (h *WinnersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_winners"
	ctx := r.Context()
	caller, _ := auth.CallerFrom(ctx)
	eventID, err := pathID(r, op)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	winners, err := h.srv.deps.Winners.List(ctx, caller, eventID)
	if err != nil {
		h.srv.writeError(ctx, w, err)
		return
	}
	if winners == nil {
		winners = []model.WinnerRecord{}
	}
	writeJSON(w, http.StatusOK, winnersResponse{Winners: winners})
}
