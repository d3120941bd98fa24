package displaysim

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/venuedraw/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to stdout and, when logFile is set, to
// that file as well.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closer, nil
}

// ShowHelp prints usage information for the display simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Venuedraw Display Simulator
===========================

Behaves like a venue display: pairs with a device code, sends heartbeats,
follows the state stream and returns to pairing after repeated heartbeat
failures.

Usage:
  go run ./cmd/display-sim -event GALA [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -event string
        Event code to join (required)
  -code string
        Comma separated device codes to use before prompting on stdin
  -admin-token string
        Admin bearer token; when set with -event-id, codes are generated automatically
  -event-id string
        Event id used with -admin-token
  -heartbeat duration
        Override the heartbeat interval advertised by the server
  -failures int
        Consecutive heartbeat failures before re-pairing (default 3)
  -photos
        Also follow the photo channel
  -log string
        Also write logs to this file
  -verbose
        Log every stream message
  -help
        Show this help message

Examples:
  # Pair with a code shown in the admin UI
  go run ./cmd/display-sim -event GALA -code 483920

  # Let the simulator mint its own codes
  go run ./cmd/display-sim -event GALA -event-id gala -admin-token $TOKEN -photos
`)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
