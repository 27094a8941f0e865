package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edufinanzas/internal/api"
	"edufinanzas/internal/models"
)

type fakeAuth struct {
	resp *models.LoginResponse
	err  error
}

func (f fakeAuth) Login(context.Context, string, string) (*models.LoginResponse, error) {
	return f.resp, f.err
}

func newStore() Store {
	return Scope(NewMemoryBackend(time.Hour), "sid")
}

func okAuth() fakeAuth {
	return fakeAuth{resp: &models.LoginResponse{
		Token:   "tok-1",
		User:    models.User{ID: 7, Email: "ana@example.com", Role: models.RoleUser},
		Profile: &models.Profile{ID: 3, UserID: 7, Name: "Ana", Age: 20, Coins: 100},
	}}
}

func mustGet(t *testing.T, s Store, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%s): %v", key, err)
	}
	return v, ok
}

func TestLoginPersistsMergedRecord(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	h := NewHolder(store, okAuth(), nil)

	res := h.Login(ctx, "ana@example.com", "Secreta1!")

	if !res.Success || res.Account == nil || res.Account.Profile.Coins != 100 {
		t.Fatalf("result = %+v", res)
	}
	if !h.IsAuthenticated() || h.IsAdmin() {
		t.Errorf("authenticated=%v admin=%v", h.IsAuthenticated(), h.IsAdmin())
	}
	if tok, _ := mustGet(t, store, KeyToken); tok != "tok-1" {
		t.Errorf("stored token = %q", tok)
	}
	raw, ok := mustGet(t, store, KeyAccount)
	if !ok {
		t.Fatal("usuario not persisted")
	}
	var stored map[string]any
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if stored["correo"] != "ana@example.com" {
		t.Errorf("correo = %v", stored["correo"])
	}
	perfil, _ := stored["perfil"].(map[string]any)
	if perfil["monedas"] != float64(100) {
		t.Errorf("perfil = %v", stored["perfil"])
	}
	if h.Loading() {
		t.Error("Loading should be false after Login")
	}
}

func TestLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unknown user", &api.Error{StatusCode: 404}, MsgUserNotFound},
		{"wrong password", &api.Error{StatusCode: 401}, MsgWrongPassword},
		{"server error", &api.Error{StatusCode: 500}, MsgLoginFailed},
		{"network", errors.New("connection refused"), MsgLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			h := NewHolder(store, fakeAuth{err: tt.err}, nil)

			res := h.Login(context.Background(), "ana@example.com", "x")

			if res.Success || res.Error != tt.want {
				t.Errorf("result = %+v, want error %q", res, tt.want)
			}
			if _, ok := mustGet(t, store, KeyToken); ok {
				t.Error("token persisted after failed login")
			}
			if h.IsAuthenticated() {
				t.Error("holder authenticated after failed login")
			}
		})
	}
}

func TestFailedLoginClearsPreviousSession(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	NewHolder(store, okAuth(), nil).Login(ctx, "ana@example.com", "ok")

	h := NewHolder(store, fakeAuth{err: &api.Error{StatusCode: 401}}, nil)
	h.Initialize(ctx)
	if !h.IsAuthenticated() {
		t.Fatal("precondition: rehydrated session")
	}

	h.Login(ctx, "ana@example.com", "bad")

	if h.IsAuthenticated() {
		t.Error("still authenticated")
	}
	if _, ok := mustGet(t, store, KeyAccount); ok {
		t.Error("previous usuario kept")
	}
}

func TestInitializeRehydrates(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	NewHolder(store, okAuth(), nil).Login(ctx, "ana@example.com", "ok")

	h := NewHolder(store, nil, nil)
	h.Initialize(ctx)

	if !h.IsAuthenticated() || h.Token() != "tok-1" || h.ProfileID() != 3 || h.UserID() != 7 {
		t.Errorf("rehydrated holder: token=%q profile=%d user=%d", h.Token(), h.ProfileID(), h.UserID())
	}
	if h.ProfileDisplayName() != "Ana" || h.CoinBalance() != 100 {
		t.Errorf("name=%q coins=%d", h.ProfileDisplayName(), h.CoinBalance())
	}
}

func TestInitializeDiscardsMalformedRecord(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	store.Set(ctx, KeyToken, "tok")
	store.Set(ctx, KeyAccount, "{not json")

	h := NewHolder(store, nil, nil)
	h.Initialize(ctx)

	if h.IsAuthenticated() {
		t.Error("malformed record accepted")
	}
	for _, key := range []string{KeyToken, KeyAccount} {
		if _, ok := mustGet(t, store, key); ok {
			t.Errorf("%s not cleared", key)
		}
	}
}

func TestInitializeNeedsBothKeys(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	store.Set(ctx, KeyToken, "tok")

	h := NewHolder(store, nil, nil)
	h.Initialize(ctx)

	if h.IsAuthenticated() {
		t.Error("token alone must not authenticate")
	}
}

func TestInitializeDiscardsExpiredJWT(t *testing.T) {
	ctx := context.Background()
	signed := func(exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
		s, err := tok.SignedString([]byte("backend-secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	record, _ := json.Marshal(models.Account{User: models.User{ID: 1, Role: models.RoleUser}})

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"expired", signed(time.Now().Add(-time.Hour)), false},
		{"valid", signed(time.Now().Add(time.Hour)), true},
		{"opaque", "not-a-jwt", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			store.Set(ctx, KeyToken, tt.token)
			store.Set(ctx, KeyAccount, string(record))

			h := NewHolder(store, nil, nil)
			h.Initialize(ctx)

			if h.IsAuthenticated() != tt.want {
				t.Errorf("authenticated = %v, want %v", h.IsAuthenticated(), tt.want)
			}
		})
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	h := NewHolder(store, okAuth(), nil)
	h.Login(ctx, "ana@example.com", "ok")

	for i := 0; i < 2; i++ {
		if err := h.Logout(ctx); err != nil {
			t.Fatalf("Logout #%d: %v", i+1, err)
		}
	}
	if h.IsAuthenticated() || h.Account() != nil {
		t.Error("state not cleared")
	}
	if _, ok := mustGet(t, store, KeyToken); ok {
		t.Error("token still stored")
	}
}

func TestUpdateCoins(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	h := NewHolder(store, okAuth(), nil)
	h.Login(ctx, "ana@example.com", "ok")

	if err := h.UpdateCoins(ctx, -30); err != nil {
		t.Fatalf("UpdateCoins: %v", err)
	}
	if err := h.UpdateCoins(ctx, 50); err != nil {
		t.Fatalf("UpdateCoins: %v", err)
	}
	if h.CoinBalance() != 120 {
		t.Errorf("balance = %d, want 120", h.CoinBalance())
	}

	rehydrated := NewHolder(store, nil, nil)
	rehydrated.Initialize(ctx)
	if rehydrated.CoinBalance() != 120 {
		t.Errorf("persisted balance = %d", rehydrated.CoinBalance())
	}
}

func TestUpdateCoinsWithoutProfileIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	auth := okAuth()
	auth.resp.Profile = nil
	h := NewHolder(store, auth, nil)
	h.Login(ctx, "admin@example.com", "ok")

	if err := h.UpdateCoins(ctx, -50); err != nil {
		t.Fatalf("UpdateCoins: %v", err)
	}
	if h.CoinBalance() != 0 || h.Account().Profile != nil {
		t.Errorf("balance = %d profile = %v", h.CoinBalance(), h.Account().Profile)
	}
	if h.ProfileDisplayName() != DefaultDisplayName {
		t.Errorf("display name = %q", h.ProfileDisplayName())
	}
}

func TestUpdateUserShallowMerge(t *testing.T) {
	ctx := context.Background()
	h := NewHolder(newStore(), okAuth(), nil)
	h.Login(ctx, "ana@example.com", "ok")

	email := "nueva@example.com"
	if err := h.UpdateUser(ctx, AccountUpdate{Email: &email}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	acc := h.Account()
	if acc.Email != email || acc.Profile == nil || acc.Profile.Name != "Ana" {
		t.Errorf("after email update: %+v", acc)
	}

	if err := h.UpdateUser(ctx, AccountUpdate{Profile: &models.Profile{ID: 3, Name: "Ana María"}}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	acc = h.Account()
	if acc.Profile.Name != "Ana María" || acc.Profile.Coins != 0 {
		t.Errorf("profile not replaced wholesale: %+v", acc.Profile)
	}
	if acc.Email != email {
		t.Error("email lost by profile update")
	}
}

func TestAccountReturnsCopy(t *testing.T) {
	ctx := context.Background()
	h := NewHolder(newStore(), okAuth(), nil)
	h.Login(ctx, "ana@example.com", "ok")

	h.Account().Profile.Coins = 9999
	if h.CoinBalance() != 100 {
		t.Error("caller mutated holder state")
	}
}

func TestPendingMarker(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	h := NewHolder(store, okAuth(), nil)
	h.Login(ctx, "ana@example.com", "ok")

	if err := h.BeginPending(ctx, "iniciar_reto"); err != nil {
		t.Fatalf("BeginPending: %v", err)
	}

	other := NewHolder(store, nil, nil)
	other.Initialize(ctx)
	if other.Pending() != "iniciar_reto" {
		t.Errorf("pending seen by next request = %q", other.Pending())
	}
	if err := other.BeginPending(ctx, "iniciar_reto"); !errors.Is(err, ErrPending) {
		t.Errorf("second BeginPending = %v, want ErrPending", err)
	}

	h.EndPending(ctx)
	after := NewHolder(store, nil, nil)
	after.Initialize(ctx)
	if after.Pending() != "" {
		t.Errorf("pending after EndPending = %q", after.Pending())
	}
}

func TestStalePendingMarkerIsDropped(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	h := NewHolder(store, okAuth(), nil)
	h.Login(ctx, "ana@example.com", "ok")
	h.BeginPending(ctx, "iniciar_reto")

	later := NewHolder(store, nil, nil)
	later.now = func() time.Time { return time.Now().Add(time.Minute) }
	later.Initialize(ctx)

	if later.Pending() != "" {
		t.Errorf("stale marker kept: %q", later.Pending())
	}
}

func TestConcurrentRequestsSharePendingMarker(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	NewHolder(store, okAuth(), nil).Login(ctx, "ana@example.com", "ok")

	a := NewHolder(store, nil, nil)
	b := NewHolder(store, nil, nil)
	a.Initialize(ctx)
	b.Initialize(ctx)

	if err := a.BeginPending(ctx, "iniciar_reto"); err != nil {
		t.Fatalf("a.BeginPending: %v", err)
	}
	if err := b.BeginPending(ctx, "iniciar_reto"); !errors.Is(err, ErrPending) {
		t.Fatalf("b.BeginPending = %v, want ErrPending", err)
	}
	if err := a.UpdateCoins(ctx, -10); err != nil {
		t.Fatal(err)
	}
	a.EndPending(ctx)

	if err := b.BeginPending(ctx, "iniciar_reto"); err != nil {
		t.Fatalf("b.BeginPending after a finished: %v", err)
	}
	if err := b.UpdateCoins(ctx, -10); err != nil {
		t.Fatal(err)
	}
	b.EndPending(ctx)

	after := NewHolder(store, nil, nil)
	after.Initialize(ctx)
	if after.CoinBalance() != 80 {
		t.Errorf("balance = %d after two charges of 10, want 80", after.CoinBalance())
	}
}

func TestUpdateCoinsMergesIntoStoredBalance(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	NewHolder(store, okAuth(), nil).Login(ctx, "ana@example.com", "ok")

	a := NewHolder(store, nil, nil)
	b := NewHolder(store, nil, nil)
	a.Initialize(ctx)
	b.Initialize(ctx)

	a.UpdateCoins(ctx, 15)
	b.UpdateCoins(ctx, 15)

	if b.CoinBalance() != 130 {
		t.Errorf("balance = %d, want 130", b.CoinBalance())
	}
}

func TestStalePendingMarkerIsTakenOver(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	h := NewHolder(store, okAuth(), nil)
	h.Login(ctx, "ana@example.com", "ok")

	late := NewHolder(store, nil, nil)
	late.Initialize(ctx)

	h.BeginPending(ctx, "iniciar_reto")
	late.now = func() time.Time { return time.Now().Add(time.Minute) }

	if err := late.BeginPending(ctx, "iniciar_reto"); err != nil {
		t.Fatalf("BeginPending over an abandoned marker: %v", err)
	}
	if late.Pending() != "iniciar_reto" {
		t.Errorf("pending = %q", late.Pending())
	}
}

func TestMoveToRehomesSession(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(time.Hour)
	old, fresh := Scope(backend, "old"), Scope(backend, "fresh")
	h := NewHolder(old, okAuth(), nil)
	h.Login(ctx, "ana@example.com", "ok")
	old.Set(ctx, KeyPending, "iniciar_reto|1")

	if err := h.MoveTo(ctx, fresh); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}

	for _, key := range []string{KeyToken, KeyAccount, KeyPending} {
		if _, ok := mustGet(t, old, key); ok {
			t.Errorf("%s left under the old id", key)
		}
	}
	moved := NewHolder(fresh, nil, nil)
	moved.Initialize(ctx)
	if !moved.IsAuthenticated() || moved.Token() != "tok-1" || moved.CoinBalance() != 100 {
		t.Errorf("moved session: auth=%v token=%q coins=%d", moved.IsAuthenticated(), moved.Token(), moved.CoinBalance())
	}
	h.UpdateCoins(ctx, 5)
	if v, _ := mustGet(t, fresh, KeyAccount); v == "" {
		t.Error("later writes do not reach the new store")
	}
}
