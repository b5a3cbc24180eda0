package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/brew-pos/internal/domain/user"
)

// Manager is the session store: it restores the persisted credential, keeps
// the Bearer in sync with it, and refreshes the identity from the backend.
type Manager struct {
	store  Store
	authn  Authenticator
	bearer *Bearer
	now    func() time.Time
	sfg    singleflight.Group

	mu      sync.RWMutex
	current *Session
}

// NewManager creates a Manager. bearer is shared with the HTTP client.
func NewManager(store Store, authn Authenticator, bearer *Bearer) *Manager {
	return &Manager{
		store:  store,
		authn:  authn,
		bearer: bearer,
		now:    time.Now,
	}
}

// Restore loads the persisted session, if any, and activates its credential.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	s, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, ErrNoSession
		}
		return nil, errors.Wrap(err, "load session")
	}
	m.set(s)
	return s, nil
}

// Login authenticates against the backend and persists the new session.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	token, u, err := m.authn.Login(ctx, username, password)
	if err != nil {
		return nil, errors.Wrap(err, "login")
	}

	s := &Session{Token: token, User: *u, SavedAt: m.now()}
	if err := m.store.Save(ctx, *s); err != nil {
		return nil, errors.Wrap(err, "save session")
	}
	m.set(s)

	zctx.From(ctx).Info("Logged in",
		zap.String("username", u.Username),
		zap.String("role", string(u.Role)),
	)
	return s, nil
}

// Logout tells the backend to drop the credential and forgets it locally.
// The local session is cleared even if the backend call fails.
func (m *Manager) Logout(ctx context.Context) error {
	if m.bearer.Token() != "" {
		if err := m.authn.Logout(ctx); err != nil {
			zctx.From(ctx).Warn("Backend logout failed", zap.Error(err))
		}
	}
	return m.forget(ctx)
}

// Refresh re-reads the current identity via the whoami endpoint. Concurrent
// callers share one request. A rejected credential clears the session and
// yields ErrSessionExpired.
func (m *Manager) Refresh(ctx context.Context) (*user.User, error) {
	if m.bearer.Token() == "" {
		return nil, ErrNoSession
	}

	v, err, _ := m.sfg.Do("whoami", func() (any, error) {
		u, err := m.authn.Me(ctx)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				if ferr := m.forget(ctx); ferr != nil {
					return nil, errors.Wrap(ferr, "clear expired session")
				}
				return nil, ErrSessionExpired
			}
			return nil, errors.Wrap(err, "whoami")
		}

		m.mu.Lock()
		s := Session{Token: m.bearer.Token(), User: *u, SavedAt: m.now()}
		m.current = &s
		m.mu.Unlock()

		if err := m.store.Save(ctx, s); err != nil {
			return nil, errors.Wrap(err, "save session")
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*user.User), nil
}

// Current returns the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Require returns the current user if it passes allowed, ErrNoSession when
// logged out and ErrForbidden otherwise.
func (m *Manager) Require(allowed func(user.User) bool) (user.User, error) {
	s, ok := m.Current()
	if !ok {
		return user.User{}, ErrNoSession
	}
	if allowed != nil && !allowed(s.User) {
		return s.User, ErrForbidden
	}
	return s.User, nil
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	m.bearer.Set(s.Token)
}

func (m *Manager) forget(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	m.bearer.Set("")

	if err := m.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "clear session")
	}
	return nil
}
