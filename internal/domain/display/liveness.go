package display

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/internal/domain/types"
)

// Heartbeat age thresholds.
const (
	OnlineWithin = 60 * time.Second
	OfflineAfter = 120 * time.Second
)

// Classify maps the age of the last heartbeat to a liveness status. It is
// advisory and never changes a session.
func Classify(lastHeartbeat, now time.Time) types.Liveness {
	age := now.Sub(lastHeartbeat)
	switch {
	case age < OnlineWithin:
		return types.LivenessOnline
	case age <= OfflineAfter:
		return types.LivenessWarning
	default:
		return types.LivenessOffline
	}
}

// Describe builds the admin view of a session at now.
func Describe(s model.DisplaySession, now time.Time) types.DisplayStatus {
	st := types.DisplayStatus{
		SessionID:     s.ID,
		DeviceCode:    s.DeviceCode,
		LastHeartbeat: s.LastHeartbeat,
		ExpiresAt:     s.ExpiresAt,
		CreatedAt:     s.CreatedAt,
	}
	switch {
	case s.IsActive:
		st.State = types.SessionLive
	case s.LastHeartbeat != nil, revokedPending(s):
		st.State = types.SessionRevoked
	case now.Before(s.ExpiresAt):
		st.State = types.SessionPending
	default:
		st.State = types.SessionExpired
	}
	if s.LastHeartbeat != nil {
		st.LastSeen = humanize.RelTime(*s.LastHeartbeat, now, "ago", "from now")
		if s.IsActive {
			st.Liveness = Classify(*s.LastHeartbeat, now)
		}
	}
	return st
}

// revokedPending reports a code revoked before use. Revocation expires it at
// its creation time, which an issued code never has.
func revokedPending(s model.DisplaySession) bool {
	return !s.IsActive && !s.ExpiresAt.After(s.CreatedAt)
}

// CountByLiveness tallies live sessions per classification.
func CountByLiveness(sessions []model.DisplaySession, now time.Time) map[types.Liveness]int {
	counts := map[types.Liveness]int{
		types.LivenessOnline:  0,
		types.LivenessWarning: 0,
		types.LivenessOffline: 0,
	}
	for _, s := range sessions {
		if !s.IsActive || s.LastHeartbeat == nil {
			continue
		}
		counts[Classify(*s.LastHeartbeat, now)]++
	}
	return counts
}
