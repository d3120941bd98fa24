package display

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	deviceCodeLength = 6
	sessionTokenSize = 32
	pendingPrefix    = "pending_"
)

var deviceCodeSpace = big.NewInt(1_000_000)

// NewDeviceCode returns a uniformly random 6-digit code.
func NewDeviceCode() (string, error) {
	n, err := rand.Int(rand.Reader, deviceCodeSpace)
	if err != nil {
		return "", fmt.Errorf("generate device code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewSessionToken returns an unguessable URL-safe token.
func NewSessionToken() (string, error) {
	b := make([]byte, sessionTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidDeviceCode reports whether code is exactly six ASCII digits.
func ValidDeviceCode(code string) bool {
	if len(code) != deviceCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
