package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/models"
)

// DefaultDisplayName is shown when the account has no profile name
const DefaultDisplayName = "Usuario"

// A pending marker older than this is treated as abandoned
const pendingTTL = 30 * time.Second

// Login failure messages shown on the form
const (
	MsgUserNotFound  = "Usuario no encontrado"
	MsgWrongPassword = "Contraseña incorrecta"
	MsgLoginFailed   = "Error al iniciar sesión. Intenta nuevamente."
)

// Authenticator exchanges credentials for a token and account
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
}

// LoginResult is the outcome of Holder.Login. Error is user-facing.
type LoginResult struct {
	Success bool
	Account *models.Account
	Error   string
}

// AccountUpdate is a shallow patch of the session record. Nil fields are
// kept; Profile replaces the whole profile.
type AccountUpdate struct {
	Email   *string
	Role    *string
	Profile *models.Profile
}

// Holder is the authentication state of one browser session. It is built per
// request from the session store and is safe for concurrent use by the
// goroutines of that request.
type Holder struct {
	store Store
	auth  Authenticator
	log   *logger.Logger
	now   func() time.Time

	mu      sync.RWMutex
	token   string
	account *models.Account
	loading bool
	pending string
}

func NewHolder(store Store, auth Authenticator, log *logger.Logger) *Holder {
	if log == nil {
		log = logger.Nop()
	}
	return &Holder{store: store, auth: auth, log: log, now: time.Now}
}

// Initialize rehydrates the holder from the store. Missing, undecodable or
// expired data leaves it unauthenticated; broken data is also deleted.
func (h *Holder) Initialize(ctx context.Context) {
	h.setLoading(true)
	defer h.setLoading(false)

	token, hasToken, err := h.store.Get(ctx, KeyToken)
	if err != nil {
		h.log.Warn("session read failed", "key", KeyToken, "error", err)
		return
	}
	raw, hasAccount, err := h.store.Get(ctx, KeyAccount)
	if err != nil {
		h.log.Warn("session read failed", "key", KeyAccount, "error", err)
		return
	}
	h.loadPending(ctx)

	if !hasToken || !hasAccount {
		return
	}

	var account models.Account
	if err := json.Unmarshal([]byte(raw), &account); err != nil || token == "" {
		h.log.Info("discarding malformed session record", "error", err)
		h.clearStore(ctx)
		return
	}
	if h.tokenExpired(token) {
		h.log.Info("discarding expired session token", "user_id", account.ID)
		h.clearStore(ctx)
		return
	}

	h.mu.Lock()
	h.token = token
	h.account = &account
	h.mu.Unlock()
}

// Login authenticates against the backend and persists the session. Any
// previous session is cleared first, so a failed login ends unauthenticated.
func (h *Holder) Login(ctx context.Context, email, password string) LoginResult {
	h.setLoading(true)
	defer h.setLoading(false)

	h.reset()
	h.clearStore(ctx)

	resp, err := h.auth.Login(ctx, email, password)
	if err != nil {
		h.log.Info("login failed", "email", email, "status", api.StatusOf(err))
		return LoginResult{Error: loginMessage(err)}
	}

	account := &models.Account{User: resp.User, Profile: resp.Profile}
	account.Password = ""

	if err := h.persist(ctx, resp.Token, account); err != nil {
		h.log.Error("persisting session failed", "user_id", account.ID, "error", err)
		h.clearStore(ctx)
		return LoginResult{Error: MsgLoginFailed}
	}

	h.mu.Lock()
	h.token = resp.Token
	h.account = account
	h.mu.Unlock()

	h.log.Info("user logged in", "user_id", account.ID, "role", account.Role)
	return LoginResult{Success: true, Account: account.Clone()}
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return MsgUserNotFound
	case errors.Is(err, api.ErrUnauthorized):
		return MsgWrongPassword
	default:
		return MsgLoginFailed
	}
}

// Logout clears memory and store. Calling it twice is harmless.
func (h *Holder) Logout(ctx context.Context) error {
	h.reset()
	return h.store.Delete(ctx, KeyToken, KeyAccount, KeyPending)
}

// UpdateUser merges the patch into the record and re-persists it
func (h *Holder) UpdateUser(ctx context.Context, update AccountUpdate) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.account == nil {
		return nil
	}
	next := h.current(ctx).Clone()
	if update.Email != nil {
		next.Email = *update.Email
	}
	if update.Role != nil {
		next.Role = *update.Role
	}
	if update.Profile != nil {
		p := *update.Profile
		next.Profile = &p
	}
	if err := h.saveAccount(ctx, next); err != nil {
		return err
	}
	h.account = next
	return nil
}

// UpdateCoins adds delta to the stored profile balance, so requests of the
// same session running side by side do not lose each other's changes.
// Without a profile it does nothing.
func (h *Holder) UpdateCoins(ctx context.Context, delta int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.account == nil || h.account.Profile == nil {
		return nil
	}
	next := h.current(ctx).Clone()
	if next.Profile == nil {
		return nil
	}
	next.Profile.Coins += delta
	if err := h.saveAccount(ctx, next); err != nil {
		return err
	}
	h.account = next
	return nil
}

// BeginPending marks an in-flight server write. It fails with ErrPending
// when another write of the same session, from this request or another one,
// is still pending. A marker older than pendingTTL is taken over.
func (h *Holder) BeginPending(ctx context.Context, op string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending != "" {
		return ErrPending
	}
	value := op + "|" + strconv.FormatInt(h.now().UnixNano(), 10)
	ok, err := h.store.SetIfAbsent(ctx, KeyPending, value)
	if err != nil {
		return err
	}
	if !ok {
		raw, found, err := h.store.Get(ctx, KeyPending)
		if err != nil {
			return err
		}
		if _, fresh := h.parsePending(raw); found && fresh {
			return ErrPending
		}
		if err := h.store.Delete(ctx, KeyPending); err != nil {
			return err
		}
		if ok, err = h.store.SetIfAbsent(ctx, KeyPending, value); err != nil {
			return err
		}
		if !ok {
			return ErrPending
		}
	}
	h.pending = op
	return nil
}

// EndPending clears the marker set by BeginPending
func (h *Holder) EndPending(ctx context.Context) {
	h.mu.Lock()
	h.pending = ""
	h.mu.Unlock()
	if err := h.store.Delete(ctx, KeyPending); err != nil {
		h.log.Warn("clearing pending marker failed", "error", err)
	}
}

// Pending names the in-flight write, or "" when none
func (h *Holder) Pending() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pending
}

var ErrPending = errors.New("session: another operation is in progress")

func (h *Holder) loadPending(ctx context.Context) {
	raw, ok, err := h.store.Get(ctx, KeyPending)
	if err != nil || !ok {
		return
	}
	op, fresh := h.parsePending(raw)
	if !fresh {
		_ = h.store.Delete(ctx, KeyPending)
		return
	}
	h.mu.Lock()
	h.pending = op
	h.mu.Unlock()
}

// parsePending splits an "op|unixnano" marker and reports whether it is
// younger than pendingTTL
func (h *Holder) parsePending(raw string) (string, bool) {
	op, stamp, _ := strings.Cut(raw, "|")
	nanos, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil || h.now().Sub(time.Unix(0, nanos)) > pendingTTL {
		return "", false
	}
	return op, true
}

// MoveTo re-homes the session under next, the store of a freshly issued
// session id, and deletes it from the old one. It must not run concurrently
// with other Holder methods.
func (h *Holder) MoveTo(ctx context.Context, next Store) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.account != nil && h.token != "" {
		if err := next.Set(ctx, KeyToken, h.token); err != nil {
			return err
		}
		raw, err := json.Marshal(h.account)
		if err != nil {
			return err
		}
		if err := next.Set(ctx, KeyAccount, string(raw)); err != nil {
			return err
		}
	}
	if err := h.store.Delete(ctx, KeyToken, KeyAccount, KeyPending); err != nil {
		h.log.Warn("clearing previous session failed", "error", err)
	}
	h.store = next
	return nil
}

func (h *Holder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.account != nil && h.token != ""
}

func (h *Holder) IsAdmin() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.account.IsAdmin()
}

func (h *Holder) CoinBalance() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.account == nil || h.account.Profile == nil {
		return 0
	}
	return h.account.Profile.Coins
}

// ProfileID returns the profile id, or 0 without a profile
func (h *Holder) ProfileID() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.account == nil || h.account.Profile == nil {
		return 0
	}
	return h.account.Profile.ID
}

func (h *Holder) UserID() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.account == nil {
		return 0
	}
	return h.account.ID
}

func (h *Holder) ProfileDisplayName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.account == nil || h.account.Profile == nil || h.account.Profile.Name == "" {
		return DefaultDisplayName
	}
	return h.account.Profile.Name
}

func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Account returns a copy of the session record, or nil
func (h *Holder) Account() *models.Account {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.account.Clone()
}

func (h *Holder) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}

func (h *Holder) setLoading(v bool) {
	h.mu.Lock()
	h.loading = v
	h.mu.Unlock()
}

func (h *Holder) reset() {
	h.mu.Lock()
	h.token = ""
	h.account = nil
	h.pending = ""
	h.mu.Unlock()
}

func (h *Holder) clearStore(ctx context.Context) {
	if err := h.store.Delete(ctx, KeyToken, KeyAccount); err != nil {
		h.log.Warn("clearing session failed", "error", err)
	}
}

func (h *Holder) persist(ctx context.Context, token string, account *models.Account) error {
	if err := h.store.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	return h.saveAccount(ctx, account)
}

// current returns the stored record, falling back to the in-memory one when
// the store has none. Callers hold h.mu.
func (h *Holder) current(ctx context.Context) *models.Account {
	raw, ok, err := h.store.Get(ctx, KeyAccount)
	if err != nil || !ok {
		return h.account
	}
	var stored models.Account
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return h.account
	}
	return &stored
}

func (h *Holder) saveAccount(ctx context.Context, account *models.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return h.store.Set(ctx, KeyAccount, string(raw))
}

// tokenExpired reports whether token is a JWT whose exp lies in the past.
// Opaque tokens never expire here; the backend answers 401 for them.
func (h *Holder) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(h.now())
}
