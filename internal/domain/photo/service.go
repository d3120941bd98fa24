// Package photo moderates PhotoDrop submissions and streams every change to
// the displays of the event.
package photo

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/venuedraw/internal/domain/access"
	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/pkg/logger"
)

// Store is the persistence photo moderation needs.
type Store interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	InsertPhoto(ctx context.Context, p model.Photo) error
	GetPhoto(ctx context.Context, id string) (model.Photo, error)
	SetPhotoApproval(ctx context.Context, id string, approved bool) (model.Photo, error)
	DeletePhoto(ctx context.Context, id string) (model.Photo, error)
	ListApprovedPhotos(ctx context.Context, eventID string) ([]model.Photo, error)
}

// Notifier receives every photo change.
type Notifier interface {
	PublishPhotoChange(ctx context.Context, change model.PhotoChange) (int, error)
}

// Submission is a new photo for an event.
type Submission struct {
	EventID   string `json:"event_id"`
	ContactID string `json:"contact_id,omitempty"`
	URL       string `json:"url"`
	Approved  bool   `json:"approved,omitempty"`
}

// Service implements photo moderation.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
	newID    func() string
	logger   logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets how photo ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService builds a Service. notifier may be nil.
func NewService(store Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		logger:   logger.Get().Named("photo"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores a new photo.
func (s *Service) Submit(ctx context.Context, caller model.Caller, sub Submission) (model.Photo, error) {
	const op = "photo.submit"
	if strings.TrimSpace(sub.EventID) == "" {
		return model.Photo{}, apperr.Newf(op, apperr.ErrValidation, "event_id is required")
	}
	if u, err := url.Parse(strings.TrimSpace(sub.URL)); err != nil || u.Scheme == "" || u.Host == "" {
		return model.Photo{}, apperr.Newf(op, apperr.ErrValidation, "url must be an absolute URL")
	}
	event, err := access.AdminEvent(ctx, op, s.store, caller, sub.EventID)
	if err != nil {
		return model.Photo{}, err
	}

	p := model.Photo{
		ID:        s.newID(),
		EventID:   event.ID,
		ContactID: strings.TrimSpace(sub.ContactID),
		URL:       strings.TrimSpace(sub.URL),
		Approved:  sub.Approved,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertPhoto(ctx, p); err != nil {
		return model.Photo{}, apperr.Internal(op, err)
	}
	s.notify(ctx, model.PhotoChange{Type: model.PhotoInserted, Photo: p})
	return p, nil
}

// SetApproval approves or rejects a photo.
func (s *Service) SetApproval(ctx context.Context, caller model.Caller, photoID string, approved bool) (model.Photo, error) {
	const op = "photo.approval"
	if _, err := s.authorize(ctx, op, caller, photoID); err != nil {
		return model.Photo{}, err
	}
	p, err := s.store.SetPhotoApproval(ctx, photoID, approved)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.Photo{}, apperr.Newf(op, apperr.ErrNotFound, "photo not found")
	case err != nil:
		return model.Photo{}, apperr.Internal(op, err)
	}
	s.notify(ctx, model.PhotoChange{Type: model.PhotoUpdated, Photo: p})
	return p, nil
}

// Delete removes a photo.
func (s *Service) Delete(ctx context.Context, caller model.Caller, photoID string) error {
	const op = "photo.delete"
	if _, err := s.authorize(ctx, op, caller, photoID); err != nil {
		return err
	}
	p, err := s.store.DeletePhoto(ctx, photoID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return apperr.Newf(op, apperr.ErrNotFound, "photo not found")
	case err != nil:
		return apperr.Internal(op, err)
	}
	s.notify(ctx, model.PhotoChange{Type: model.PhotoDeleted, Photo: p})
	return nil
}

// ListApproved returns the approved photos of an event, oldest first.
func (s *Service) ListApproved(ctx context.Context, eventID string) ([]model.Photo, error) {
	const op = "photo.list_approved"
	photos, err := s.store.ListApprovedPhotos(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	return photos, nil
}

func (s *Service) authorize(ctx context.Context, op string, caller model.Caller, photoID string) (model.Photo, error) {
	if strings.TrimSpace(photoID) == "" {
		return model.Photo{}, apperr.Newf(op, apperr.ErrValidation, "photo id is required")
	}
	if err := access.RequireAdmin(op, caller); err != nil {
		return model.Photo{}, err
	}
	p, err := s.store.GetPhoto(ctx, photoID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.Photo{}, apperr.Newf(op, apperr.ErrNotFound, "photo not found")
	case err != nil:
		return model.Photo{}, apperr.Internal(op, err)
	}
	event, err := access.LoadEvent(ctx, op, s.store, p.EventID)
	if err != nil {
		return model.Photo{}, err
	}
	if err := access.RequireTenant(op, caller, event); err != nil {
		return model.Photo{}, err
	}
	return p, nil
}

func (s *Service) notify(ctx context.Context, change model.PhotoChange) {
	s.logger.Info(ctx, "photo changed",
		logger.String("event_id", change.Photo.EventID),
		logger.String("photo_id", change.Photo.ID),
		logger.String("type", string(change.Type)),
	)
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.PublishPhotoChange(ctx, change); err != nil {
		s.logger.Warn(ctx, "photo change not broadcast",
			logger.String("photo_id", change.Photo.ID),
			logger.Error(err),
		)
	}
}
