// Package auth verifies admin bearer tokens and carries the resulting caller
// through the request context.
//
// A token is base64url(claims) "." base64url(HMAC-SHA256(secret, claims))
// where claims is the JSON object {sub, tenant_id, role, exp}.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/venuedraw/internal/domain/model"
)

// Verification failures.
var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("invalid token signature")
	ErrExpired        = errors.New("token expired")
	ErrNoSecret       = errors.New("auth secret is empty")
)

type claims struct {
	Subject  string     `json:"sub"`
	TenantID string     `json:"tenant_id,omitempty"`
	Role     model.Role `json:"role"`
	Expires  int64      `json:"exp"`
}

// Verifier issues and verifies tokens with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns a Verifier for secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// WithClock returns a copy of v that reads time from now.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	cp := *v
	cp.now = now
	return &cp
}

// Issue signs a token for c valid for ttl.
func (v *Verifier) Issue(c model.Caller, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(claims{
		Subject:  c.UserID,
		TenantID: c.TenantID,
		Role:     c.Role,
		Expires:  v.now().Add(ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + base64.RawURLEncoding.EncodeToString(v.sign(body)), nil
}

// Verify checks token and returns its caller.
func (v *Verifier) Verify(token string) (model.Caller, error) {
	if token == "" {
		return model.Caller{}, ErrMissingToken
	}
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return model.Caller{}, ErrMalformedToken
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return model.Caller{}, ErrMalformedToken
	}
	if !hmac.Equal(got, v.sign(body)) {
		return model.Caller{}, ErrBadSignature
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return model.Caller{}, ErrMalformedToken
	}
	var c claims
	if err := json.Unmarshal(raw, &c); err != nil || c.Subject == "" {
		return model.Caller{}, ErrMalformedToken
	}
	if !v.now().Before(time.Unix(c.Expires, 0)) {
		return model.Caller{}, ErrExpired
	}
	return model.Caller{UserID: c.Subject, TenantID: c.TenantID, Role: c.Role}, nil
}

// FromRequest verifies the Authorization: Bearer header of r.
func (v *Verifier) FromRequest(r *http.Request) (model.Caller, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return model.Caller{}, ErrMissingToken
	}
	return v.Verify(strings.TrimSpace(token))
}

func (v *Verifier) sign(body string) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}

type callerKey struct{}

// WithCaller returns a context carrying c.
func WithCaller(ctx context.Context, c model.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (model.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(model.Caller)
	return c, ok
}
