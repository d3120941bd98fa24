package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/venuedraw/internal/domain/model"
)

type winnerKey struct {
	eventID   string
	contactID string
}

// MemoryStore keeps everything in process memory behind a single lock.
// Every method is atomic with respect to the others.
type MemoryStore struct {
	mu sync.RWMutex

	events        map[string]model.Event
	eventsByCode  map[string]string
	contacts      map[string]model.Contact
	registrations map[string]model.Registration
	regsByEvent   map[string][]string

	winners    map[string][]model.Winner
	winnerKeys map[winnerKey]struct{}

	sessions        map[string]model.DisplaySession
	sessionsByToken map[string]string
	sessionsByEvent map[string][]string

	photos        map[string]model.Photo
	photosByEvent map[string][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:          make(map[string]model.Event),
		eventsByCode:    make(map[string]string),
		contacts:        make(map[string]model.Contact),
		registrations:   make(map[string]model.Registration),
		regsByEvent:     make(map[string][]string),
		winners:         make(map[string][]model.Winner),
		winnerKeys:      make(map[winnerKey]struct{}),
		sessions:        make(map[string]model.DisplaySession),
		sessionsByToken: make(map[string]string),
		sessionsByEvent: make(map[string][]string),
		photos:          make(map[string]model.Photo),
		photosByEvent:   make(map[string][]string),
	}
}

// SaveEvent inserts or replaces an event.
func (m *MemoryStore) SaveEvent(_ context.Context, e model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.events[e.ID]; ok {
		delete(m.eventsByCode, old.Code)
	}
	m.events[e.ID] = e
	m.eventsByCode[e.Code] = e.ID
	return nil
}

// SaveContact inserts or replaces a contact.
func (m *MemoryStore) SaveContact(_ context.Context, c model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[c.ID] = c
	return nil
}

// SaveRegistration inserts a registration. Existing ids are left untouched.
func (m *MemoryStore) SaveRegistration(_ context.Context, r model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.registrations[r.ID]; ok {
		return nil
	}
	m.registrations[r.ID] = r
	m.regsByEvent[r.EventID] = append(m.regsByEvent[r.EventID], r.ID)
	return nil
}

// GetEvent returns an event by id.
func (m *MemoryStore) GetEvent(_ context.Context, id string) (model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return e, nil
}

// GetEventByCode returns an event by its public code.
func (m *MemoryStore) GetEventByCode(_ context.Context, code string) (model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.eventsByCode[code]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return m.events[id], nil
}

// GetRegistration returns a registration by id.
func (m *MemoryStore) GetRegistration(_ context.Context, id string) (model.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.registrations[id]
	if !ok {
		return model.Registration{}, ErrNotFound
	}
	return r, nil
}

// IsWinner reports whether the contact already won the event.
func (m *MemoryStore) IsWinner(_ context.Context, eventID, contactID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.winnerKeys[winnerKey{eventID, contactID}]
	return ok, nil
}

// EligibleRegistrations lists registrations whose contact has not won, in
// registration order.
func (m *MemoryStore) EligibleRegistrations(_ context.Context, eventID string) ([]model.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Registration, 0, len(m.regsByEvent[eventID]))
	for _, id := range m.regsByEvent[eventID] {
		r := m.registrations[id]
		if _, won := m.winnerKeys[winnerKey{eventID, r.ContactID}]; won {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// InsertWinner stores w unless its contact already won the event.
func (m *MemoryStore) InsertWinner(_ context.Context, w model.Winner) (model.WinnerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := winnerKey{w.EventID, w.ContactID}
	if _, ok := m.winnerKeys[key]; ok {
		return model.WinnerRecord{}, ErrDuplicateWinner
	}
	m.winnerKeys[key] = struct{}{}
	m.winners[w.EventID] = append(m.winners[w.EventID], w)
	return model.WinnerRecord{
		Winner:  w,
		Contact: m.contacts[w.ContactID],
		Number:  len(m.winners[w.EventID]),
	}, nil
}

// ListWinners returns an event's winners in selection order.
func (m *MemoryStore) ListWinners(_ context.Context, eventID string) ([]model.WinnerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws := m.winners[eventID]
	out := make([]model.WinnerRecord, len(ws))
	for i, w := range ws {
		out[i] = model.WinnerRecord{Winner: w, Contact: m.contacts[w.ContactID], Number: i + 1}
	}
	return out, nil
}

// GetWinner returns one winner of an event.
func (m *MemoryStore) GetWinner(_ context.Context, eventID, winnerID string) (model.WinnerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, w := range m.winners[eventID] {
		if w.ID == winnerID {
			return model.WinnerRecord{Winner: w, Contact: m.contacts[w.ContactID], Number: i + 1}, nil
		}
	}
	return model.WinnerRecord{}, ErrNotFound
}

// CreateDisplaySession stores a new pending session.
func (m *MemoryStore) CreateDisplaySession(_ context.Context, s model.DisplaySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	m.sessionsByToken[s.SessionToken] = s.ID
	m.sessionsByEvent[s.EventID] = append(m.sessionsByEvent[s.EventID], s.ID)
	return nil
}

// FindPendingSessions returns never-activated sessions of the event with the
// given code, newest first. Expiry is left to the caller.
func (m *MemoryStore) FindPendingSessions(_ context.Context, eventID, deviceCode string) ([]model.DisplaySession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.DisplaySession
	for _, id := range m.sessionsByEvent[eventID] {
		s := m.sessions[id]
		if s.DeviceCode == deviceCode && !s.IsActive && s.LastHeartbeat == nil {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CountActiveSessions counts live sessions of an event.
func (m *MemoryStore) CountActiveSessions(_ context.Context, eventID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, id := range m.sessionsByEvent[eventID] {
		if m.sessions[id].IsActive {
			n++
		}
	}
	return n, nil
}

// ActivateSession turns a pending session live. It fails with ErrNotFound if
// the session is unknown or no longer pending.
func (m *MemoryStore) ActivateSession(_ context.Context, id, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.IsActive || s.LastHeartbeat != nil {
		return ErrNotFound
	}
	delete(m.sessionsByToken, s.SessionToken)
	s.SessionToken = token
	s.IsActive = true
	s.LastHeartbeat = &at
	m.sessions[id] = s
	m.sessionsByToken[token] = id
	return nil
}

// TouchHeartbeat refreshes a live session's heartbeat.
func (m *MemoryStore) TouchHeartbeat(_ context.Context, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessionsByToken[token]
	if !ok {
		return ErrNotFound
	}
	s := m.sessions[id]
	if !s.IsActive {
		return ErrNotFound
	}
	s.LastHeartbeat = &at
	m.sessions[id] = s
	return nil
}

// GetDisplaySession returns a session by id.
func (m *MemoryStore) GetDisplaySession(_ context.Context, id string) (model.DisplaySession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return model.DisplaySession{}, ErrNotFound
	}
	return s, nil
}

// GetSessionByToken returns the session holding token.
func (m *MemoryStore) GetSessionByToken(_ context.Context, token string) (model.DisplaySession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.sessionsByToken[token]
	if !ok {
		return model.DisplaySession{}, ErrNotFound
	}
	return m.sessions[id], nil
}

// DeactivateSession marks a session inactive. A session that was never
// authorized also has its code expired so it can no longer be redeemed.
func (m *MemoryStore) DeactivateSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.IsActive = false
	if s.LastHeartbeat == nil {
		s.ExpiresAt = s.CreatedAt
	}
	m.sessions[id] = s
	return nil
}

// ListDisplaySessions returns every session of an event, oldest first.
func (m *MemoryStore) ListDisplaySessions(_ context.Context, eventID string) ([]model.DisplaySession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.DisplaySession, 0, len(m.sessionsByEvent[eventID]))
	for _, id := range m.sessionsByEvent[eventID] {
		out = append(out, m.sessions[id])
	}
	return out, nil
}

// ListLiveSessions returns active sessions across all events.
func (m *MemoryStore) ListLiveSessions(_ context.Context) ([]model.DisplaySession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.DisplaySession
	for _, s := range m.sessions {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

// InsertPhoto stores a photo.
func (m *MemoryStore) InsertPhoto(_ context.Context, p model.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos[p.ID] = p
	m.photosByEvent[p.EventID] = append(m.photosByEvent[p.EventID], p.ID)
	return nil
}

// GetPhoto returns a photo by id.
func (m *MemoryStore) GetPhoto(_ context.Context, id string) (model.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.photos[id]
	if !ok {
		return model.Photo{}, ErrNotFound
	}
	return p, nil
}

// SetPhotoApproval updates the moderation flag and returns the new row.
func (m *MemoryStore) SetPhotoApproval(_ context.Context, id string, approved bool) (model.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return model.Photo{}, ErrNotFound
	}
	p.Approved = approved
	m.photos[id] = p
	return p, nil
}

// DeletePhoto removes a photo and returns the removed row.
func (m *MemoryStore) DeletePhoto(_ context.Context, id string) (model.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return model.Photo{}, ErrNotFound
	}
	delete(m.photos, id)
	ids := m.photosByEvent[p.EventID]
	for i, pid := range ids {
		if pid == id {
			m.photosByEvent[p.EventID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return p, nil
}

// ListApprovedPhotos returns approved photos of an event, oldest first.
func (m *MemoryStore) ListApprovedPhotos(_ context.Context, eventID string) ([]model.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Photo
	for _, id := range m.photosByEvent[eventID] {
		if p := m.photos[id]; p.Approved {
			out = append(out, p)
		}
	}
	return out, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
