package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/portal-login/v2/internal/auth"
	"github.com/portal-login/v2/internal/pkg/logger"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// ErrNoSession is returned by Load when no session has been saved.
var ErrNoSession = errors.New("no session stored")

// Session is the token and user profile kept after a successful login.
type Session struct {
	Token string
	User  auth.User
}

// SessionStore persists a Session. Save and Clear are all-or-nothing: the
// token and the user are never stored or removed one without the other.
type SessionStore interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context) (Session, error)
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the session under the "token" and "user" keys of the
// storage table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *Database) *SQLiteStore {
	return &SQLiteStore{db: db.Conn()}
}

func (s *SQLiteStore) Save(ctx context.Context, sess Session) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		const query = `
        INSERT INTO storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
		if _, err := tx.ExecContext(ctx, query, tokenKey, sess.Token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, userKey, string(userJSON)); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) Load(ctx context.Context) (Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM storage WHERE key IN (?, ?)`, tokenKey, userKey)
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Session{}, fmt.Errorf("failed to scan session row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	return decodeSession(values)
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM storage WHERE key IN (?, ?)`, tokenKey, userKey); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Errorf(ctx, "Rollback transaction unsuccessful: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MemoryStore is a SessionStore that lives as long as the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Save(_ context.Context, sess Session) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[tokenKey] = sess.Token
	m.values[userKey] = string(userJSON)
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (Session, error) {
	m.mu.Lock()
	values := make(map[string]string, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	m.mu.Unlock()

	return decodeSession(values)
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, tokenKey)
	delete(m.values, userKey)
	return nil
}

// Value returns the raw stored text for key.
func (m *MemoryStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func decodeSession(values map[string]string) (Session, error) {
	token, hasToken := values[tokenKey]
	userJSON, hasUser := values[userKey]
	if !hasToken && !hasUser {
		return Session{}, ErrNoSession
	}
	if !hasToken || !hasUser {
		return Session{}, fmt.Errorf("session is incomplete (token: %t, user: %t)", hasToken, hasUser)
	}

	sess := Session{Token: token}
	if err := json.Unmarshal([]byte(userJSON), &sess.User); err != nil {
		return Session{}, fmt.Errorf("failed to decode stored user: %w", err)
	}
	return sess, nil
}
