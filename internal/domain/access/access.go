// Package access holds the caller and tenant checks shared by admin operations.
package access

import (
	"context"
	"errors"

	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
)

// EventReader loads events by id.
type EventReader interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
}

// RequireAdmin fails with Unauthorized for anonymous callers and Forbidden
// for callers without an admin role.
func RequireAdmin(op string, c model.Caller) error {
	if !c.Authenticated() {
		return apperr.Newf(op, apperr.ErrUnauthorized, "authentication required")
	}
	if !c.IsAdmin() {
		return apperr.Newf(op, apperr.ErrForbidden, "admin role required")
	}
	return nil
}

// LoadEvent fetches an event, mapping a missing row to NotFound.
func LoadEvent(ctx context.Context, op string, events EventReader, eventID string) (model.Event, error) {
	e, err := events.GetEvent(ctx, eventID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.Event{}, apperr.Newf(op, apperr.ErrNotFound, "event not found")
	case err != nil:
		return model.Event{}, apperr.Internal(op, err)
	}
	return e, nil
}

// RequireTenant fails with Forbidden unless the caller may manage the event.
func RequireTenant(op string, c model.Caller, e model.Event) error {
	if !c.CanManage(e.TenantID) {
		return apperr.Newf(op, apperr.ErrForbidden, "event belongs to another tenant")
	}
	return nil
}

// AdminEvent runs RequireAdmin, LoadEvent and RequireTenant in that order.
func AdminEvent(ctx context.Context, op string, events EventReader, c model.Caller, eventID string) (model.Event, error) {
	if err := RequireAdmin(op, c); err != nil {
		return model.Event{}, err
	}
	e, err := LoadEvent(ctx, op, events, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if err := RequireTenant(op, c, e); err != nil {
		return model.Event{}, err
	}
	return e, nil
}
