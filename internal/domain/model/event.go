// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"time"
)

// EventType distinguishes raffles from photo contests.
type EventType string

const (
	EventTypeRaffle    EventType = "raffle"
	EventTypePhotoDrop EventType = "photodrop"
)

// EventStatus follows draft -> active -> closed -> archived.
type EventStatus string

const (
	EventDraft    EventStatus = "draft"
	EventActive   EventStatus = "active"
	EventClosed   EventStatus = "closed"
	EventArchived EventStatus = "archived"
)

// AllowsWinnerSelection reports whether winners may be drawn in this status.
func (s EventStatus) AllowsWinnerSelection() bool {
	return s == EventActive || s == EventClosed
}

// Event is a raffle or photo contest owned by a tenant.
type Event struct {
	ID       string      `json:"id"`
	TenantID string      `json:"tenant_id"`
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Type     EventType   `json:"type"`
	Status   EventStatus `json:"status"`
	// MaxDisplaySessions caps concurrently live displays.
	MaxDisplaySessions int `json:"max_display_sessions"`
	// DisplayPhotoDuration is how long a display shows each photo, in seconds.
	DisplayPhotoDuration int       `json:"display_photo_duration"`
	CreatedAt            time.Time `json:"created_at"`
}

// Summary is the subset of an event handed to an authorized display.
func (e Event) Summary() EventSummary {
	return EventSummary{
		ID:                   e.ID,
		Name:                 e.Name,
		Type:                 e.Type,
		Status:               e.Status,
		DisplayPhotoDuration: e.DisplayPhotoDuration,
	}
}

// EventSummary is what a display learns about its event.
type EventSummary struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Type                 EventType   `json:"type"`
	Status               EventStatus `json:"status"`
	DisplayPhotoDuration int         `json:"display_photo_duration"`
}

// Contact is a person known to a tenant.
type Contact struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Registration is one sign-up of a contact for an event.
type Registration struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	ContactID string          `json:"contact_id"`
	Answers   json.RawMessage `json:"answers,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
