package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"edufinanzas/internal/database"
)

// SessionValueRepository stores session values in the session_values table.
// Every write pushes the expiry ttl into the future.
type SessionValueRepository struct {
	db  *database.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessionValueRepository(db *database.DB, ttl time.Duration) *SessionValueRepository {
	return &SessionValueRepository{db: db, ttl: ttl, now: time.Now}
}

func (r *SessionValueRepository) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	var value string
	query := `SELECT value FROM session_values WHERE session_id = ? AND name = ? AND expires_at > ?`
	err := r.db.QueryRowContext(ctx, query, sessionID, key, r.now().UTC()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session value %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SessionValueRepository) Set(ctx context.Context, sessionID, key, value string) error {
	expires := r.now().Add(r.ttl).UTC()
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.UpsertSessionValue(), sessionID, key, value, expires); err != nil {
		return fmt.Errorf("set session value %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent inserts the value unless a live row holds the key. An expired
// row is removed first; the primary key decides between concurrent writers.
func (r *SessionValueRepository) SetIfAbsent(ctx context.Context, sessionID, key, value string) (bool, error) {
	now := r.now().UTC()
	expired := `DELETE FROM session_values WHERE session_id = ? AND name = ? AND expires_at <= ?`
	if _, err := r.db.ExecContext(ctx, expired, sessionID, key, now); err != nil {
		return false, fmt.Errorf("set session value %s: %w", key, err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Dialect.InsertSessionValueIfAbsent(), sessionID, key, value, now.Add(r.ttl))
	if err != nil {
		return false, fmt.Errorf("set session value %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set session value %s: %w", key, err)
	}
	return n == 1, nil
}

func (r *SessionValueRepository) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, sessionID)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	query := `DELETE FROM session_values WHERE session_id = ? AND name IN (` + placeholders + `)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session values: %w", err)
	}
	return nil
}

// Purge removes expired rows
func (r *SessionValueRepository) Purge(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM session_values WHERE expires_at <= ?`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge session values: %w", err)
	}
	return res.RowsAffected()
}

// SessionStats counts the live sessions and the values they hold
type SessionStats struct {
	Sessions int64
	Values   int64
}

// Stats counts unexpired rows
func (r *SessionValueRepository) Stats(ctx context.Context) (SessionStats, error) {
	var s SessionStats
	query := `SELECT COUNT(DISTINCT session_id), COUNT(*) FROM session_values WHERE expires_at > ?`
	if err := r.db.QueryRowContext(ctx, query, r.now().UTC()).Scan(&s.Sessions, &s.Values); err != nil {
		return SessionStats{}, fmt.Errorf("session stats: %w", err)
	}
	return s, nil
}

// Clear removes every session value, logging every browser out
func (r *SessionValueRepository) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM session_values`)
	if err != nil {
		return 0, fmt.Errorf("clear session values: %w", err)
	}
	return res.RowsAffected()
}
