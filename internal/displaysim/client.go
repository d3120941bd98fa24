package displaysim

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrSessionLost means the server no longer accepts the session token.
var ErrSessionLost = errors.New("display session lost")

// Authorization is the pairing response.
type Authorization struct {
	SessionToken string `json:"session_token"`
	Event        struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"event"`
	HeartbeatIntervalSeconds int `json:"heartbeat_interval_seconds"`
}

// Photo is an approved photo as served to displays.
type Photo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusError is a non-2xx response.
type StatusError struct {
	Status int
	Code   string
	Msg    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d (%s): %s", e.Status, e.Code, e.Msg)
}

// Client talks to the display endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	// stream has no timeout; streams end with their context.
	stream *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
	}
}

// Authorize redeems a device code for a session token.
func (c *Client) Authorize(ctx context.Context, deviceCode, eventCode string) (Authorization, error) {
	var out Authorization
	err := c.post(ctx, "/api/displays/authorize", "", map[string]string{
		"device_code": deviceCode,
		"event_code":  eventCode,
	}, &out)
	return out, err
}

// Heartbeat reports liveness. A 401 is returned as ErrSessionLost.
func (c *Client) Heartbeat(ctx context.Context, token string) error {
	err := c.post(ctx, "/api/displays/heartbeat", "", map[string]string{"session_token": token}, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrSessionLost, err)
	}
	return err
}

// Photos fetches the approved photos of the session's event.
func (c *Client) Photos(ctx context.Context, token string) ([]Photo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/displays/photos", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Session-Token", token)
	var out struct {
		Photos []Photo `json:"photos"`
	}
	if err := c.do(c.http, req, &out); err != nil {
		return nil, err
	}
	return out.Photos, nil
}

// GenerateCode asks the service for a device code with an admin token.
func (c *Client) GenerateCode(ctx context.Context, adminToken, eventID string) (string, error) {
	var out struct {
		DeviceCode string `json:"device_code"`
	}
	if err := c.post(ctx, "/api/displays/code", adminToken, map[string]string{"event_id": eventID}, &out); err != nil {
		return "", err
	}
	return out.DeviceCode, nil
}

// Stream follows an SSE channel ("state" or "photos") and calls fn for each
// message. It returns nil when the server closes the stream and ctx.Err()
// when ctx ends.
func (c *Client) Stream(ctx context.Context, channel, token string, fn func(Message)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/displays/stream/"+channel, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Session-Token", token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var msg Message
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if msg.Data != "" {
				fn(msg)
			}
			msg = Message{}
		case strings.HasPrefix(line, ":"), strings.HasPrefix(line, "retry:"):
		case strings.HasPrefix(line, "event:"):
			msg.Channel = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if msg.Data != "" {
				msg.Data += "\n"
			}
			msg.Data += data
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, bearer string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.do(c.http, req, out)
}

func (c *Client) do(hc *http.Client, req *http.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body apiError
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &StatusError{Status: resp.StatusCode, Code: body.Code, Msg: body.Error}
}
