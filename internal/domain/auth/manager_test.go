package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/brew-pos/internal/domain/user"
)

// --- Mock implementations ---

type memStore struct {
	mu      sync.Mutex
	session *Session
	saveErr error
	cleared int
}

func (m *memStore) Load(_ context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrNoSession
	}
	s := *m.session
	return &s, nil
}

func (m *memStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.session = &s
	return nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	m.cleared++
	return nil
}

type mockAuthn struct {
	token     string
	user      *user.User
	loginErr  error
	meErr     error
	logoutErr error
	meCalls   atomic.Int32
	meDelay   time.Duration
	logouts   int
}

func (m *mockAuthn) Login(_ context.Context, _, _ string) (string, *user.User, error) {
	if m.loginErr != nil {
		return "", nil, m.loginErr
	}
	return m.token, m.user, nil
}

func (m *mockAuthn) Me(_ context.Context) (*user.User, error) {
	m.meCalls.Add(1)
	time.Sleep(m.meDelay)
	if m.meErr != nil {
		return nil, m.meErr
	}
	return m.user, nil
}

func (m *mockAuthn) Logout(_ context.Context) error {
	m.logouts++
	return m.logoutErr
}

// --- Helpers ---

var cashier = user.User{ID: 7, Username: "ana", Role: user.RoleCashier, Active: true}

func newManager(store *memStore, authn *mockAuthn) (*Manager, *Bearer) {
	b := &Bearer{}
	return NewManager(store, authn, b), b
}

// --- Tests ---

func TestRestore_NoSession(t *testing.T) {
	m, b := newManager(&memStore{}, &mockAuthn{})

	_, err := m.Restore(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, b.Token())
}

func TestRestore_ActivatesToken(t *testing.T) {
	store := &memStore{session: &Session{Token: "tok-1", User: cashier}}
	m, b := newManager(store, &mockAuthn{})

	s, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana", s.User.Username)
	assert.Equal(t, "tok-1", b.Token())
}

func TestLogin(t *testing.T) {
	store := &memStore{}
	m, b := newManager(store, &mockAuthn{token: "tok-2", user: &cashier})

	s, err := m.Login(context.Background(), " ana ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", s.Token)
	assert.Equal(t, "tok-2", b.Token())
	require.NotNil(t, store.session)
	assert.Equal(t, "tok-2", store.session.Token)

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, cashier.ID, cur.User.ID)
}

func TestLogin_Errors(t *testing.T) {
	m, b := newManager(&memStore{}, &mockAuthn{loginErr: ErrUnauthorized})

	_, err := m.Login(context.Background(), "", "x")
	require.Error(t, err)

	_, err = m.Login(context.Background(), "ana", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, b.Token())
}

func TestLogout_ClearsEvenWhenBackendFails(t *testing.T) {
	store := &memStore{session: &Session{Token: "tok-1", User: cashier}}
	authn := &mockAuthn{logoutErr: errors.New("network down")}
	m, b := newManager(store, authn)
	_, err := m.Restore(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, 1, authn.logouts)
	assert.Empty(t, b.Token())
	assert.Nil(t, store.session)
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestRefresh(t *testing.T) {
	promoted := cashier
	promoted.Role = user.RoleManager
	store := &memStore{session: &Session{Token: "tok-1", User: cashier}}
	m, _ := newManager(store, &mockAuthn{user: &promoted})
	_, err := m.Restore(context.Background())
	require.NoError(t, err)

	u, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, user.RoleManager, u.Role)
	assert.Equal(t, user.RoleManager, store.session.User.Role)
}

func TestRefresh_NoToken(t *testing.T) {
	m, _ := newManager(&memStore{}, &mockAuthn{})
	_, err := m.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestRefresh_UnauthorizedClearsSession(t *testing.T) {
	store := &memStore{session: &Session{Token: "stale", User: cashier}}
	m, b := newManager(store, &mockAuthn{meErr: errors.Wrap(ErrUnauthorized, "status 401")})
	_, err := m.Restore(context.Background())
	require.NoError(t, err)

	_, err = m.Refresh(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, b.Token())
	assert.Equal(t, 1, store.cleared)
}

func TestRefresh_Deduplicates(t *testing.T) {
	store := &memStore{session: &Session{Token: "tok-1", User: cashier}}
	authn := &mockAuthn{user: &cashier, meDelay: 50 * time.Millisecond}
	m, _ := newManager(store, authn)
	_, err := m.Restore(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, authn.meCalls.Load(), int32(5))
}

func TestRequire(t *testing.T) {
	m, _ := newManager(&memStore{session: &Session{Token: "t", User: cashier}}, &mockAuthn{})

	_, err := m.Require(nil)
	require.ErrorIs(t, err, ErrNoSession)

	_, err = m.Restore(context.Background())
	require.NoError(t, err)

	u, err := m.Require(user.User.CanViewReports)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "ana", u.Username)

	_, err = m.Require(func(u user.User) bool { return u.Active })
	require.NoError(t, err)
}
