package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/venuedraw/internal/domain/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the request body. Failures are
// validation errors.
func decodeJSON(r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.Newf(op, apperr.ErrValidation, "invalid JSON body: %v", err)
	}
	return nil
}

type okResponse struct {
	OK        bool `json:"ok"`
	Delivered *int `json:"delivered,omitempty"`
}

func success() okResponse { return okResponse{OK: true} }

func delivered(n int) okResponse { return okResponse{OK: true, Delivered: &n} }

func pathID(r *http.Request, op string) (string, error) {
	id := r.PathValue("id")
	if id == "" {
		return "", apperr.WrapKind(op, apperr.ErrValidation, fmt.Errorf("%w: missing id", ErrBadRequest))
	}
	return id, nil
}
