// Package api serves the admin and display HTTP interface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/venuedraw/internal/adapters/pubsub"
	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/broadcast"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/internal/domain/photo"
	"github.com/okian/venuedraw/internal/domain/types"
	"github.com/okian/venuedraw/pkg/logger"
)

const defaultKeepAlive = 15 * time.Second

// WinnerService selects and lists winners.
type WinnerService interface {
	Select(ctx context.Context, caller model.Caller, eventID string, mode model.SelectionMode) (model.WinnerRecord, error)
	List(ctx context.Context, caller model.Caller, eventID string) ([]model.WinnerRecord, error)
}

// PairingService manages display sessions.
type PairingService interface {
	GenerateDeviceCode(ctx context.Context, caller model.Caller, eventID string) (types.DeviceCode, error)
	AuthorizeDisplay(ctx context.Context, deviceCode, eventCode string) (types.Authorization, error)
	RevokeSession(ctx context.Context, caller model.Caller, sessionID string) error
	ListSessions(ctx context.Context, caller model.Caller, eventID string) ([]types.DisplayStatus, error)
}

// HeartbeatService records heartbeats and resolves display tokens.
type HeartbeatService interface {
	RecordHeartbeat(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (model.DisplaySession, error)
}

// BroadcastService changes what displays show.
type BroadcastService interface {
	BroadcastState(ctx context.Context, caller model.Caller, eventID string, req broadcast.StateRequest) (int, error)
}

// PhotoService moderates photos.
type PhotoService interface {
	Submit(ctx context.Context, caller model.Caller, sub photo.Submission) (model.Photo, error)
	SetApproval(ctx context.Context, caller model.Caller, photoID string, approved bool) (model.Photo, error)
	Delete(ctx context.Context, caller model.Caller, photoID string) error
	ListApproved(ctx context.Context, eventID string) ([]model.Photo, error)
}

// StreamSource hands out broadcast subscriptions.
type StreamSource interface {
	Subscribe(eventID string, channel model.Channel, owner string) *pubsub.Subscription
}

// Pinger reports store readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Authenticator turns a request into a verified admin caller.
type Authenticator interface {
	FromRequest(r *http.Request) (model.Caller, error)
}

// Dependencies bundles everything the handlers call.
type Dependencies struct {
	Winners   WinnerService
	Pairing   PairingService
	Heartbeat HeartbeatService
	Broadcast BroadcastService
	Photos    PhotoService
	Streams   StreamSource
	Store     Pinger
	Auth      Authenticator
}

// Option configures a Server.
type Option func(*Server)

// WithKeepAlive sets the interval of SSE keep-alive comments.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepAlive = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes to the domain services.
type Server struct {
	deps      Dependencies
	keepAlive time.Duration
	logger    logger.Logger

	health    *HealthHandler
	winners   *WinnersHandler
	displays  *DisplaysHandler
	broadcast *BroadcastHandler
	photos    *PhotosHandler
	streams   *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:      deps,
		keepAlive: defaultKeepAlive,
		logger:    logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.health = NewHealthHandler(deps.Store)
	s.winners = &WinnersHandler{srv: s}
	s.displays = &DisplaysHandler{srv: s}
	s.broadcast = &BroadcastHandler{srv: s}
	s.photos = &PhotosHandler{srv: s}
	s.streams = &StreamHandler{srv: s}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(LoggingMiddleware(h, s.logger), endpoint))
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("GET /readyz", MetricsMiddleware(s.health.HandleReady, "readyz"))

	// Admin.
	route("POST /api/winners/select", "winners_select", s.admin(s.winners.HandleSelect))
	route("GET /api/events/{id}/winners", "winners_list", s.admin(s.winners.HandleList))
	route("POST /api/displays/code", "displays_code", s.admin(s.displays.HandleGenerateCode))
	route("POST /api/displays/revoke", "displays_revoke", s.admin(s.displays.HandleRevoke))
	route("GET /api/events/{id}/displays", "displays_list", s.admin(s.displays.HandleList))
	route("POST /api/displays/broadcast", "displays_broadcast", s.admin(s.broadcast.HandleBroadcast))
	route("POST /api/photos", "photos_submit", s.admin(s.photos.HandleSubmit))
	route("POST /api/photos/{id}/approval", "photos_approval", s.admin(s.photos.HandleApproval))
	route("DELETE /api/photos/{id}", "photos_delete", s.admin(s.photos.HandleDelete))

	// Display.
	route("POST /api/displays/authorize", "displays_authorize", s.displays.HandleAuthorize)
	route("POST /api/displays/heartbeat", "displays_heartbeat", s.displays.HandleHeartbeat)
	route("GET /api/displays/photos", "displays_photos", s.photos.HandleListApproved)
	mux.HandleFunc("GET /api/displays/stream/state", MetricsMiddleware(s.streams.HandleState, "stream_state"))
	mux.HandleFunc("GET /api/displays/stream/photos", MetricsMiddleware(s.streams.HandlePhotos, "stream_photos"))
}

// writeError renders err as the JSON error envelope. Internal failures are
// logged with their cause and reported without it.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status, code := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", logger.Error(err))
	} else {
		var ae *apperr.Error
		op := ""
		if errors.As(err, &ae) {
			op = ae.Op
		}
		s.logger.Debug(ctx, "request rejected", logger.String("op", op), logger.String("code", code), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: apperr.Message(err), Code: code})
}
