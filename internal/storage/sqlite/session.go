package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"github.com/xenking/brew-pos/internal/domain/auth"
	"github.com/xenking/brew-pos/internal/domain/user"
)

var _ auth.Store = (*SessionStore)(nil)

// SessionStore keeps the single logged-in session of the terminal.
type SessionStore struct {
	db *sqlx.DB
}

// NewSessionStore returns a SessionStore on db.
func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db}
}

type sessionRow struct {
	Token         string `db:"token"`
	UserID        int64  `db:"user_id"`
	Username      string `db:"username"`
	FullName      string `db:"full_name"`
	Role          string `db:"role"`
	Active        bool   `db:"active"`
	UserCreatedAt int64  `db:"user_created_at"`
	SavedAt       int64  `db:"saved_at"`
}

// Load returns the stored session or auth.ErrNoSession.
func (s *SessionStore) Load(ctx context.Context) (*auth.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT token, user_id, username, full_name, role, active, user_created_at, saved_at
		FROM session WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNoSession
		}
		return nil, errors.Wrap(err, "select session")
	}

	return &auth.Session{
		Token: row.Token,
		User: user.User{
			ID:        row.UserID,
			Username:  row.Username,
			FullName:  row.FullName,
			Role:      user.Role(row.Role),
			Active:    row.Active,
			CreatedAt: fromUnix(row.UserCreatedAt),
		},
		SavedAt: fromUnix(row.SavedAt),
	}, nil
}

// Save replaces the stored session.
func (s *SessionStore) Save(ctx context.Context, sess auth.Session) error {
	row := sessionRow{
		Token:         sess.Token,
		UserID:        sess.User.ID,
		Username:      sess.User.Username,
		FullName:      sess.User.FullName,
		Role:          string(sess.User.Role),
		Active:        sess.User.Active,
		UserCreatedAt: toUnix(sess.User.CreatedAt),
		SavedAt:       toUnix(sess.SavedAt),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO session (id, token, user_id, username, full_name, role, active, user_created_at, saved_at)
		VALUES (1, :token, :user_id, :username, :full_name, :role, :active, :user_created_at, :saved_at)
		ON CONFLICT (id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			username = excluded.username,
			full_name = excluded.full_name,
			role = excluded.role,
			active = excluded.active,
			user_created_at = excluded.user_created_at,
			saved_at = excluded.saved_at`, row)
	if err != nil {
		return errors.Wrap(err, "upsert session")
	}
	return nil
}

// Clear deletes the stored session. Clearing an empty store is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}
