package model

import "time"

// Photo is a PhotoDrop submission. Displays only show approved photos.
type Photo struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	ContactID string    `json:"contact_id,omitempty"`
	URL       string    `json:"url"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// PhotoChangeType mirrors the row-level change that happened.
type PhotoChangeType string

const (
	PhotoInserted PhotoChangeType = "insert"
	PhotoUpdated  PhotoChangeType = "update"
	PhotoDeleted  PhotoChangeType = "delete"
)

// PhotoChange is streamed to displays on the photo channel.
type PhotoChange struct {
	Type  PhotoChangeType `json:"type"`
	Photo Photo           `json:"photo"`
}
