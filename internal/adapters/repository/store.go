// Package repository persists events, winners, display sessions and photos.
//
// Two implementations exist: MemoryStore for development and tests, and
// SQLStore over database/sql for PostgreSQL (pgx or lib/pq) and SQLite.
// Both enforce at most one winner per (event, contact).
package repository

import (
	"context"
	"time"

	"github.com/okian/venuedraw/internal/domain/broadcast"
	"github.com/okian/venuedraw/internal/domain/display"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/internal/domain/photo"
	"github.com/okian/venuedraw/internal/domain/winner"
)

// Store is the full persistence surface used by the service.
type Store interface {
	// Reference data written by upstream systems (and by seed fixtures).
	SaveEvent(ctx context.Context, e model.Event) error
	SaveContact(ctx context.Context, c model.Contact) error
	SaveRegistration(ctx context.Context, r model.Registration) error

	GetEvent(ctx context.Context, id string) (model.Event, error)
	GetEventByCode(ctx context.Context, code string) (model.Event, error)
	GetRegistration(ctx context.Context, id string) (model.Registration, error)

	// Winners.
	IsWinner(ctx context.Context, eventID, contactID string) (bool, error)
	EligibleRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)
	InsertWinner(ctx context.Context, w model.Winner) (model.WinnerRecord, error)
	ListWinners(ctx context.Context, eventID string) ([]model.WinnerRecord, error)
	GetWinner(ctx context.Context, eventID, winnerID string) (model.WinnerRecord, error)

	// Display sessions.
	CreateDisplaySession(ctx context.Context, s model.DisplaySession) error
	FindPendingSessions(ctx context.Context, eventID, deviceCode string) ([]model.DisplaySession, error)
	CountActiveSessions(ctx context.Context, eventID string) (int, error)
	ActivateSession(ctx context.Context, id, token string, at time.Time) error
	TouchHeartbeat(ctx context.Context, token string, at time.Time) error
	GetDisplaySession(ctx context.Context, id string) (model.DisplaySession, error)
	GetSessionByToken(ctx context.Context, token string) (model.DisplaySession, error)
	DeactivateSession(ctx context.Context, id string) error
	ListDisplaySessions(ctx context.Context, eventID string) ([]model.DisplaySession, error)
	ListLiveSessions(ctx context.Context) ([]model.DisplaySession, error)

	// Photos.
	InsertPhoto(ctx context.Context, p model.Photo) error
	GetPhoto(ctx context.Context, id string) (model.Photo, error)
	SetPhotoApproval(ctx context.Context, id string, approved bool) (model.Photo, error)
	DeletePhoto(ctx context.Context, id string) (model.Photo, error)
	ListApprovedPhotos(ctx context.Context, eventID string) ([]model.Photo, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)

	_ winner.Store    = Store(nil)
	_ display.Store   = Store(nil)
	_ broadcast.Store = Store(nil)
	_ photo.Store     = Store(nil)
)
