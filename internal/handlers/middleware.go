package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"edufinanzas/internal/access"
	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/security"
	"edufinanzas/internal/session"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	HolderContextKey    ContextKey = "holder"
	SessionIDContextKey ContextKey = "session_id"

	middlewareContextKey ContextKey = "middleware"
)

var errNoSession = errors.New("request carries no session")

// MiddlewareConfig carries the middleware dependencies
type MiddlewareConfig struct {
	Backend      session.Backend
	Auth         session.Authenticator
	CSRF         *security.CSRF
	Limiter      *security.RateLimiter
	SessionTTL   time.Duration
	MaxBodyBytes int64
	Logger       *logger.Logger
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	backend session.Backend
	auth    session.Authenticator
	csrf    *security.CSRF
	limiter *security.RateLimiter
	ttl     time.Duration
	maxBody int64
	log     *logger.Logger
}

func NewMiddleware(cfg MiddlewareConfig) *Middleware {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Middleware{
		backend: cfg.Backend,
		auth:    cfg.Auth,
		csrf:    cfg.CSRF,
		limiter: cfg.Limiter,
		ttl:     cfg.SessionTTL,
		maxBody: cfg.MaxBodyBytes,
		log:     log,
	}
}

// Session attaches the browser session to the request: it issues the session
// cookie when missing and stores a rehydrated Holder in the context.
func (m *Middleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skipsSession(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		sid := ""
		if cookie, err := r.Cookie(security.SessionCookie); err == nil && security.ValidSessionID(cookie.Value) {
			sid = cookie.Value
		}
		if sid == "" {
			sid = security.NewSessionID()
			http.SetCookie(w, security.NewSessionCookie(r, sid, m.ttl))
		}

		holder := session.NewHolder(session.Scope(m.backend, sid), m.auth, m.log)
		holder.Initialize(r.Context())

		ctx := context.WithValue(r.Context(), SessionIDContextKey, sid)
		ctx = context.WithValue(ctx, HolderContextKey, holder)
		ctx = context.WithValue(ctx, middlewareContextKey, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func skipsSession(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/healthz"
}

// Require lets the request through when the session holds perm; otherwise
// it redirects to the login page or to the topic list
func (m *Middleware) Require(perm access.Permission, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holder := GetHolderFromContext(r.Context())
		if holder == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		switch access.Decide(holder, perm) {
		case access.RedirectLogin:
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		case access.RedirectTopics:
			m.log.Info("access denied", "path", r.URL.Path, "permission", perm.String(), "user_id", holder.UserID())
			http.Redirect(w, r, "/temas", http.StatusSeeOther)
		default:
			next(w, r)
		}
	}
}

// CSRFProtect rejects state-changing requests whose token does not match
// the session
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next(w, r)
			return
		}
		if m.maxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBody)
		}

		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = formValue(r, security.CSRFField)
		}
		if !m.csrf.Valid(GetSessionIDFromContext(r.Context()), token) {
			m.log.Warn("csrf check failed", "path", r.URL.Path, "ip", security.ClientIP(r))
			http.Error(w, ErrInvalidCSRF, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// formValue reads a field from url-encoded and multipart bodies alike
func formValue(r *http.Request, key string) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return ""
		}
		return r.FormValue(key)
	}
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostFormValue(key)
}

// RateLimit limits POSTs per client IP and path
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && r.Method == http.MethodPost {
			ip := security.ClientIP(r)
			if !m.limiter.Allow(ip + " " + r.URL.Path) {
				m.log.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, ErrTooManyAttempts, http.StatusTooManyRequests)
				return
			}
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"ip", security.ClientIP(r),
		)
	})
}

// RotateSession moves the request's session to a freshly issued id and sends
// the new cookie. Login calls it so an id planted before authentication
// never carries the logged-in session.
func RotateSession(w http.ResponseWriter, r *http.Request) error {
	holder := GetHolderFromContext(r.Context())
	m, _ := r.Context().Value(middlewareContextKey).(*Middleware)
	if holder == nil || m == nil {
		return errNoSession
	}
	sid := security.NewSessionID()
	if err := holder.MoveTo(r.Context(), session.Scope(m.backend, sid)); err != nil {
		return err
	}
	http.SetCookie(w, security.NewSessionCookie(r, sid, m.ttl))
	return nil
}

// ForceLogout ends the session after the backend rejected its token and
// sends the browser to the login page. It reports whether it did so.
func ForceLogout(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	if holder := GetHolderFromContext(r.Context()); holder != nil {
		log.Info("backend rejected session token, logging out", "user_id", holder.UserID(), "path", r.URL.Path)
		if lerr := holder.Logout(r.Context()); lerr != nil {
			log.Warn("clearing session failed", "error", lerr)
		}
	}
	http.SetCookie(w, security.ExpiredSessionCookie(r))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

// GetHolderFromContext retrieves the session holder from the request context
func GetHolderFromContext(ctx context.Context) *session.Holder {
	holder, ok := ctx.Value(HolderContextKey).(*session.Holder)
	if !ok {
		return nil
	}
	return holder
}

func GetSessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDContextKey).(string)
	return sid
}
