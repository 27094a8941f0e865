package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// CSRFField is the hidden form field carrying the token
const CSRFField = "csrf_token"

var ErrNoSession = errors.New("security: session id required")

// CSRF derives per-session form tokens as an HMAC of the session id, so any
// replica holding the secret can verify them without shared state.
type CSRF struct {
	key []byte
}

func NewCSRF(secret string) *CSRF {
	return &CSRF{key: []byte(secret)}
}

func (c *CSRF) Token(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrNoSession
	}
	return base64.RawURLEncoding.EncodeToString(c.sum(sessionID)), nil
}

// Valid reports whether token was issued for sessionID
func (c *CSRF) Valid(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(raw, c.sum(sessionID))
}

func (c *CSRF) sum(sessionID string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte("csrf:"))
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}
