package model

import (
	"encoding/json"
	"time"
)

// Channel names one of the two per-event broadcast streams.
type Channel string

const (
	ChannelState  Channel = "state"
	ChannelPhotos Channel = "photos"
)

// Envelope is one message on a per-event channel, already encoded.
type Envelope struct {
	EventID string          `json:"event_id"`
	Channel Channel         `json:"channel"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}
