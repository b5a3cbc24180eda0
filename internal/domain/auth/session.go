package auth

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/brew-pos/internal/domain/user"
)

var (
	// ErrNoSession is returned when no credential is stored or held.
	ErrNoSession = errors.New("not logged in")
	// ErrUnauthorized is matched by backend errors for HTTP 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionExpired is returned by Refresh when the backend rejected the
	// stored credential; the session has been cleared.
	ErrSessionExpired = errors.New("session expired, log in again")
	// ErrForbidden is returned when the current user lacks a permission.
	ErrForbidden = errors.New("permission denied")
)

// Session is the persisted login state of the terminal.
type Session struct {
	Token   string
	User    user.User
	SavedAt time.Time
}

// Store persists the session between runs.
type Store interface {
	// Load returns ErrNoSession when nothing is stored.
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Authenticator is the backend's auth endpoint set.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (token string, u *user.User, err error)
	Me(ctx context.Context) (*user.User, error)
	Logout(ctx context.Context) error
}

// Bearer holds the credential attached to outgoing requests. The zero value
// holds no credential.
type Bearer struct {
	v atomic.Pointer[string]
}

// Token returns the current credential or "".
func (b *Bearer) Token() string {
	if p := b.v.Load(); p != nil {
		return *p
	}
	return ""
}

// Set replaces the current credential.
func (b *Bearer) Set(token string) {
	b.v.Store(&token)
}
