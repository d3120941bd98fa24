package repository

import (
	"errors"

	"github.com/okian/venuedraw/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound        = model.ErrNotFound
	ErrDuplicateWinner = model.ErrDuplicateWinner
	ErrUnknownDriver   = errors.New("unknown store driver")
	ErrMissingDSN      = errors.New("database url is required")
)
