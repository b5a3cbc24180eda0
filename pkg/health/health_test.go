package health

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(_ context.Context) error {
		return nil
	}
}

func failingCheck(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestMonitor_AllPassing(t *testing.T) {
	m := New()
	m.Add("backend", time.Second, passingCheck())
	m.Add("breaker", time.Second, passingCheck())

	status := m.CheckNow(context.Background())
	require.Len(t, status, 2)
	assert.True(t, m.Online())
	assert.Equal(t, "backend", status[0].Name)
	assert.NoError(t, status[0].LastError)
	assert.False(t, status[0].CheckedAt.IsZero())
}

func TestMonitor_FailureThreshold(t *testing.T) {
	m := New()
	m.Add("backend", time.Second, failingCheck("connection refused"))
	ctx := context.Background()

	// Two failures stay below the threshold of 3.
	m.CheckNow(ctx)
	m.CheckNow(ctx)
	assert.True(t, m.Online())
	assert.Equal(t, 2, m.Status()[0].Failures)

	m.CheckNow(ctx)
	assert.False(t, m.Online())
	st := m.Status()[0]
	assert.False(t, st.Online)
	require.Error(t, st.LastError)
	assert.Equal(t, "connection refused", st.LastError.Error())
}

func TestMonitor_Recovery(t *testing.T) {
	var healthy atomic.Bool
	m := New()
	m.Add("backend", time.Second, func(_ context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("down")
	}, WithThresholds(1, 2))
	ctx := context.Background()

	m.CheckNow(ctx)
	assert.False(t, m.Online())

	healthy.Store(true)
	m.CheckNow(ctx)
	assert.False(t, m.Online(), "one success is below the success threshold")
	m.CheckNow(ctx)
	assert.True(t, m.Online())
}

func TestMonitor_OnChange(t *testing.T) {
	var (
		mu      sync.Mutex
		changes []bool
	)
	m := New()
	m.Add("backend", time.Second, failingCheck("down"), WithThresholds(1, 1))
	m.OnChange(func(s Status) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, s.Online)
	})

	m.CheckNow(context.Background())
	m.CheckNow(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false}, changes, "only transitions are reported")
}

func TestMonitor_StartStop(t *testing.T) {
	var calls atomic.Int32
	m := New()
	m.Add("backend", time.Second, func(_ context.Context) error {
		calls.Add(1)
		return nil
	})

	m.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no checks after Stop")
}

func TestMonitor_Timeout(t *testing.T) {
	m := New()
	m.Add("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithThresholds(1, 1))

	st := m.CheckNow(context.Background())
	require.ErrorIs(t, st[0].LastError, context.DeadlineExceeded)
	assert.False(t, m.Online())
}

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, PingCheck(pingerFunc(func(context.Context) error { return nil }))(ctx))
	require.Error(t, PingCheck(pingerFunc(func(context.Context) error { return errors.New("refused") }))(ctx))

	require.NoError(t, BreakerCheck(func() string { return "closed" })(ctx))
	require.NoError(t, BreakerCheck(func() string { return "half-open" })(ctx))
	require.Error(t, BreakerCheck(func() string { return "open" })(ctx))
}
