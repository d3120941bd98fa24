package model

import "time"

// DisplaySession is a display's pairing and, once authorized, its live session.
// Sessions are never deleted; revocation sets IsActive to false for good.
type DisplaySession struct {
	ID           string `json:"id"`
	EventID      string `json:"event_id"`
	DeviceCode   string `json:"device_code"`
	SessionToken string `json:"-"`
	IsActive     bool   `json:"is_active"`
	// LastHeartbeat is nil until the session has been authorized.
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Pending reports whether the session still waits for its code to be entered.
func (s DisplaySession) Pending(now time.Time) bool {
	return !s.IsActive && s.LastHeartbeat == nil && now.Before(s.ExpiresAt)
}

// DisplayMode is what a display is currently showing.
type DisplayMode string

const (
	ModePlaceholder DisplayMode = "PLACEHOLDER"
	ModePhotos      DisplayMode = "PHOTOS"
	ModeWinner      DisplayMode = "WINNER"
	ModeIdle        DisplayMode = "IDLE"
)

// Valid reports whether m is a known mode.
func (m DisplayMode) Valid() bool {
	switch m {
	case ModePlaceholder, ModePhotos, ModeWinner, ModeIdle:
		return true
	}
	return false
}

// DisplayState is the ephemeral state pushed to every display of an event.
type DisplayState struct {
	Mode    DisplayMode         `json:"mode"`
	PhotoID string              `json:"photo_id,omitempty"`
	Winner  *WinnerAnnouncement `json:"winner,omitempty"`
	SentAt  time.Time           `json:"sent_at"`
}

// WinnerAnnouncement is the winner payload shown on displays.
type WinnerAnnouncement struct {
	WinnerID     string `json:"winner_id"`
	WinnerNumber int    `json:"winner_number,omitempty"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}
