package model

import "time"

// Winner is an immutable record that a contact won in an event.
// At most one exists per (EventID, ContactID).
type Winner struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	RegistrationID string    `json:"registration_id"`
	ContactID      string    `json:"contact_id"`
	SelectedBy     string    `json:"selected_by"`
	SelectedAt     time.Time `json:"selected_at"`
}

// WinnerRecord is a winner joined with its contact and ordinal.
type WinnerRecord struct {
	Winner
	Contact Contact `json:"contact"`
	// Number is the 1-based ordinal of this winner within its event.
	Number int `json:"winner_number"`
}

// Announcement is the display-safe view of a winner. It never carries
// contact details beyond the name.
func (w WinnerRecord) Announcement() *WinnerAnnouncement {
	return &WinnerAnnouncement{
		WinnerID:     w.ID,
		WinnerNumber: w.Number,
		FirstName:    w.Contact.FirstName,
		LastName:     w.Contact.LastName,
	}
}

// SelectionMode chooses how a winner is picked. The set of modes is closed:
// RandomDraw and ManualPick are the only implementations.
type SelectionMode interface {
	// Method names the mode for logs, metrics and the API.
	Method() string
	selectionMode()
}

// RandomDraw picks uniformly among registrations whose contact has not won yet.
type RandomDraw struct{}

// ManualPick selects a specific registration.
type ManualPick struct {
	RegistrationID string
}

func (RandomDraw) Method() string { return "random" }
func (ManualPick) Method() string { return "manual" }

func (RandomDraw) selectionMode() {}
func (ManualPick) selectionMode() {}
