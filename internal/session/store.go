// Package session keeps the per-browser authentication state: the backend
// token and the merged user/profile record, persisted in a key-value store
// addressed by the session cookie.
package session

import (
	"context"
	"errors"
)

// Persisted keys
const (
	KeyToken   = "token"
	KeyAccount = "usuario"
	KeyPending = "pendiente"
)

var ErrStoreUnavailable = errors.New("session: store unavailable")

// Store is the key-value view of a single browser session
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetIfAbsent writes value only when key holds nothing and reports
	// whether it did. The check and the write are atomic.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Backend stores the values of every session
type Backend interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	SetIfAbsent(ctx context.Context, sessionID, key, value string) (bool, error)
	Delete(ctx context.Context, sessionID string, keys ...string) error
	// Purge removes expired entries and reports how many went away
	Purge(ctx context.Context) (int64, error)
}

// Scope binds a backend to one session id
func Scope(b Backend, sessionID string) Store {
	return scoped{backend: b, id: sessionID}
}

type scoped struct {
	backend Backend
	id      string
}

func (s scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.backend.Get(ctx, s.id, key)
}

func (s scoped) Set(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, s.id, key, value)
}

func (s scoped) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	return s.backend.SetIfAbsent(ctx, s.id, key, value)
}

func (s scoped) Delete(ctx context.Context, keys ...string) error {
	return s.backend.Delete(ctx, s.id, keys...)
}
