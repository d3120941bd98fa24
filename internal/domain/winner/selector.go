// Package winner selects raffle winners. Each contact can win at most once per
// event; the store's uniqueness guarantee is what enforces it, the checks here
// only make the common cases fail fast.
package winner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/venuedraw/internal/domain/access"
	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
	"github.com/okian/venuedraw/pkg/metrics"
)

// Store is the persistence the selector needs.
type Store interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	GetRegistration(ctx context.Context, id string) (model.Registration, error)

	// IsWinner reports whether contactID already won eventID.
	IsWinner(ctx context.Context, eventID, contactID string) (bool, error)

	// EligibleRegistrations lists registrations whose contact has not won.
	EligibleRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)

	// InsertWinner stores w and returns it joined with its contact and ordinal.
	// It returns model.ErrDuplicateWinner when the contact already won.
	InsertWinner(ctx context.Context, w model.Winner) (model.WinnerRecord, error)

	// ListWinners returns winners in selection order.
	ListWinners(ctx context.Context, eventID string) ([]model.WinnerRecord, error)
}

// Selector implements winner selection.
type Selector struct {
	store  Store
	picker Picker
	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// NewSelector builds a Selector over store.
func NewSelector(store Store, opts ...Option) *Selector {
	s := &Selector{
		store:  store,
		picker: CryptoPicker{},
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		logger: logger.Get().Named("winner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select records a winner for eventID using mode.
func (s *Selector) Select(ctx context.Context, caller model.Caller, eventID string, mode model.SelectionMode) (model.WinnerRecord, error) {
	const op = "winner.select"
	start := time.Now()
	defer func() {
		metrics.RecordSelectionLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := access.RequireAdmin(op, caller); err != nil {
		return model.WinnerRecord{}, err
	}
	if strings.TrimSpace(eventID) == "" {
		return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrValidation, "event_id is required")
	}
	if mode == nil {
		return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrValidation, "selection method is required")
	}
	if m, ok := mode.(model.ManualPick); ok && strings.TrimSpace(m.RegistrationID) == "" {
		return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrValidation, "registration_id is required for manual selection")
	}

	event, err := s.authorize(ctx, op, caller, eventID)
	if err != nil {
		return model.WinnerRecord{}, err
	}

	var rec model.WinnerRecord
	switch m := mode.(type) {
	case model.RandomDraw:
		rec, err = s.drawRandom(ctx, op, caller, event)
	case model.ManualPick:
		rec, err = s.pickManual(ctx, op, caller, event, m.RegistrationID)
	default:
		return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrValidation, "unknown selection method")
	}
	if err != nil {
		return model.WinnerRecord{}, err
	}

	metrics.RecordWinnerSelected(mode.Method())
	s.logger.Info(ctx, "winner selected",
		logger.String("event_id", event.ID),
		logger.String("winner_id", rec.ID),
		logger.String("method", mode.Method()),
		logger.Int("winner_number", rec.Number),
		logger.String("selected_by", rec.SelectedBy),
	)
	return rec, nil
}

// List returns the winners of an event in selection order.
func (s *Selector) List(ctx context.Context, caller model.Caller, eventID string) ([]model.WinnerRecord, error) {
	const op = "winner.list"
	event, err := access.AdminEvent(ctx, op, s.store, caller, eventID)
	if err != nil {
		return nil, err
	}
	winners, err := s.store.ListWinners(ctx, event.ID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	return winners, nil
}

// authorize applies the event preconditions in their fixed order: existence,
// status, tenant. The caller's role has already been checked.
func (s *Selector) authorize(ctx context.Context, op string, caller model.Caller, eventID string) (model.Event, error) {
	event, err := access.LoadEvent(ctx, op, s.store, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if !event.Status.AllowsWinnerSelection() {
		return model.Event{}, apperr.Newf(op, apperr.ErrInvalidState,
			"winners can only be selected while the event is active or closed (status %s)", event.Status)
	}
	if err := access.RequireTenant(op, caller, event); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

// drawRandom picks uniformly among eligible registrations. Losing an insert
// race to a concurrent draw means another winner now exists, so the eligible
// set is read again; the number of retries is bounded by the size of the
// first eligible set.
func (s *Selector) drawRandom(ctx context.Context, op string, caller model.Caller, event model.Event) (model.WinnerRecord, error) {
	budget := -1
	for {
		if err := ctx.Err(); err != nil {
			return model.WinnerRecord{}, apperr.Internal(op, err)
		}

		eligible, err := s.store.EligibleRegistrations(ctx, event.ID)
		if err != nil {
			return model.WinnerRecord{}, apperr.Internal(op, err)
		}
		if len(eligible) == 0 {
			metrics.RecordWinnerConflict("no_eligible")
			return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrConflict, "no eligible participants")
		}
		if budget < 0 {
			budget = len(eligible)
		}

		idx, err := s.picker.Pick(len(eligible))
		if err != nil {
			return model.WinnerRecord{}, apperr.Internal(op, err)
		}

		rec, err := s.store.InsertWinner(ctx, s.newWinner(caller, event, eligible[idx]))
		switch {
		case err == nil:
			return rec, nil
		case errors.Is(err, model.ErrDuplicateWinner):
			if budget == 0 {
				metrics.RecordWinnerConflict("race")
				return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrConflict, "selection conflicted with concurrent draws")
			}
			budget--
			metrics.RecordWinnerDrawRetry()
			s.logger.Debug(ctx, "random draw lost a uniqueness race, drawing again",
				logger.String("event_id", event.ID),
				logger.String("contact_id", eligible[idx].ContactID),
			)
		default:
			return model.WinnerRecord{}, apperr.Internal(op, err)
		}
	}
}

func (s *Selector) pickManual(ctx context.Context, op string, caller model.Caller, event model.Event, registrationID string) (model.WinnerRecord, error) {
	reg, err := s.store.GetRegistration(ctx, registrationID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrNotFound, "registration not found")
	case err != nil:
		return model.WinnerRecord{}, apperr.Internal(op, err)
	case reg.EventID != event.ID:
		return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrNotFound, "registration not found")
	}

	won, err := s.store.IsWinner(ctx, event.ID, reg.ContactID)
	if err != nil {
		return model.WinnerRecord{}, apperr.Internal(op, err)
	}
	if won {
		metrics.RecordWinnerConflict("already_winner")
		return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrConflict, "contact has already been selected as a winner")
	}

	rec, err := s.store.InsertWinner(ctx, s.newWinner(caller, event, reg))
	switch {
	case errors.Is(err, model.ErrDuplicateWinner):
		metrics.RecordWinnerConflict("already_winner")
		return model.WinnerRecord{}, apperr.Newf(op, apperr.ErrConflict, "contact has already been selected as a winner")
	case err != nil:
		return model.WinnerRecord{}, apperr.Internal(op, err)
	}
	return rec, nil
}

func (s *Selector) newWinner(caller model.Caller, event model.Event, reg model.Registration) model.Winner {
	return model.Winner{
		ID:             s.newID(),
		EventID:        event.ID,
		RegistrationID: reg.ID,
		ContactID:      reg.ContactID,
		SelectedBy:     caller.UserID,
		SelectedAt:     s.now(),
	}
}
