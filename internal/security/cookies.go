package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookie names the cookie holding the browser session id
const SessionCookie = "edufinanzas_sid"

func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID rejects cookie values that are not ids we could have issued
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// IsSecureRequest detects HTTPS directly or behind a reverse proxy
func IsSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" || r.URL.Scheme == "https"
}

func NewSessionCookie(r *http.Request, id string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func ExpiredSessionCookie(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
