package model

import "errors"

// Store sentinels. Repositories return these; services map them to apperr kinds.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateWinner = errors.New("contact already a winner for event")
)
