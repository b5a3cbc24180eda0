// Package health tracks whether the terminal can reach its dependencies.
//
// Each probe runs at an interval. A probe must fail failureThreshold times
// in a row before it is reported offline, and succeed successThreshold
// times in a row before it is reported online again.
package health

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc returns nil when the checked dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Default thresholds.
const (
	DefaultFailureThreshold = 3
	DefaultSuccessThreshold = 1
)

// Status is a point-in-time view of one probe.
type Status struct {
	Name      string
	Online    bool
	LastError error
	CheckedAt time.Time
	Failures  int
}

// probe holds the configuration and state for a single check.
//
// run() is serialized by runMu. online, lastErr and checkedAt are read from
// arbitrary goroutines and use atomics.
type probe struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	online    atomic.Bool
	lastErr   atomic.Pointer[error]
	checkedAt atomic.Int64
	failures  atomic.Int64

	runMu            sync.Mutex
	consecutiveFails int
	consecutiveOK    int
}

// run executes the check once and applies the thresholds. It returns true
// when the online state changed.
func (p *probe) run(ctx context.Context) bool {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(checkCtx)
	p.lastErr.Store(&err)
	p.checkedAt.Store(time.Now().UnixNano())

	was := p.online.Load()
	if err != nil {
		p.consecutiveOK = 0
		p.consecutiveFails++
		if p.consecutiveFails >= p.failureThreshold {
			p.online.Store(false)
		}
	} else {
		p.consecutiveFails = 0
		p.consecutiveOK++
		if p.consecutiveOK >= p.successThreshold {
			p.online.Store(true)
		}
	}
	p.failures.Store(int64(p.consecutiveFails))
	return was != p.online.Load()
}

func (p *probe) status() Status {
	s := Status{
		Name:     p.name,
		Online:   p.online.Load(),
		Failures: int(p.failures.Load()),
	}
	if e := p.lastErr.Load(); e != nil {
		s.LastError = *e
	}
	if ns := p.checkedAt.Load(); ns != 0 {
		s.CheckedAt = time.Unix(0, ns)
	}
	return s
}

// Option tunes a probe.
type Option func(*probe)

// WithThresholds overrides the failure and success thresholds.
func WithThresholds(failure, success int) Option {
	return func(p *probe) {
		if failure > 0 {
			p.failureThreshold = failure
		}
		if success > 0 {
			p.successThreshold = success
		}
	}
}

// Monitor runs probes and reports their combined state.
type Monitor struct {
	mu       sync.RWMutex
	probes   []*probe
	onChange func(Status)
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates an empty Monitor.
func New() *Monitor {
	return &Monitor{}
}

// Add registers a probe. Probes start online until proven otherwise.
func (m *Monitor) Add(name string, timeout time.Duration, check CheckFunc, opts ...Option) {
	p := &probe{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: DefaultFailureThreshold,
		successThreshold: DefaultSuccessThreshold,
	}
	for _, o := range opts {
		o(p)
	}
	p.online.Store(true)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes = append(m.probes, p)
}

// OnChange registers fn to be called whenever a probe goes online or
// offline. It must be set before Start.
func (m *Monitor) OnChange(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// CheckNow runs every probe once, concurrently, and waits for them.
func (m *Monitor) CheckNow(ctx context.Context) []Status {
	probes := m.snapshot()

	var wg sync.WaitGroup
	for _, p := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.runProbe(ctx, p)
		}()
	}
	wg.Wait()
	return m.Status()
}

// Start runs every probe immediately and then at interval until Stop is
// called or ctx is done.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	for _, p := range m.snapshot() {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.loop(ctx, p, interval)
		}()
	}
}

func (m *Monitor) loop(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.runProbe(ctx, p)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runProbe(ctx, p)
		}
	}
}

func (m *Monitor) runProbe(ctx context.Context, p *probe) {
	if !p.run(ctx) {
		return
	}
	m.mu.RLock()
	fn := m.onChange
	m.mu.RUnlock()
	if fn != nil {
		fn(p.status())
	}
}

// Stop cancels the probe loops and waits for them to exit. It is safe to
// call Stop more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Online reports whether every probe is online.
func (m *Monitor) Online() bool {
	for _, p := range m.snapshot() {
		if !p.online.Load() {
			return false
		}
	}
	return true
}

// Status returns the state of every probe in registration order.
func (m *Monitor) Status() []Status {
	probes := m.snapshot()
	out := make([]Status, 0, len(probes))
	for _, p := range probes {
		out = append(out, p.status())
	}
	return out
}

func (m *Monitor) snapshot() []*probe {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.probes)
}
