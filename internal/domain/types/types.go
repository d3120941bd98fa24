// Package types contains read shapes returned by services and the HTTP API.
package types

import (
	"time"

	"github.com/okian/venuedraw/internal/domain/model"
)

// Liveness classifies a live display by heartbeat age.
type Liveness string

const (
	LivenessOnline  Liveness = "online"
	LivenessWarning Liveness = "warning"
	LivenessOffline Liveness = "offline"
)

// SessionState is the lifecycle position of a display session.
type SessionState string

const (
	SessionPending SessionState = "pending"
	SessionExpired SessionState = "expired"
	SessionLive    SessionState = "live"
	SessionRevoked SessionState = "revoked"
)

// DeviceCode is returned to the admin after generating a pairing code.
type DeviceCode struct {
	SessionID  string    `json:"id"`
	DeviceCode string    `json:"device_code"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Authorization is returned to a display after it pairs.
type Authorization struct {
	SessionToken string             `json:"session_token"`
	Event        model.EventSummary `json:"event"`
	// HeartbeatIntervalSeconds tells the display how often to check in.
	HeartbeatIntervalSeconds int `json:"heartbeat_interval_seconds"`
}

// DisplayStatus is one row of the admin display list.
type DisplayStatus struct {
	SessionID     string       `json:"id"`
	DeviceCode    string       `json:"device_code"`
	State         SessionState `json:"state"`
	Liveness      Liveness     `json:"liveness,omitempty"`
	LastHeartbeat *time.Time   `json:"last_heartbeat,omitempty"`
	// LastSeen is a human readable age such as "2 minutes ago".
	LastSeen  string    `json:"last_seen,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
