package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Loader produces a fresh Snapshot.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Poller keeps the latest Snapshot, reloading it on a fixed interval.
//
// Each tick starts an independent load. A slow load is not cancelled when
// the next one starts; whichever finishes last wins. A failed load keeps the
// previous snapshot and records the error.
type Poller struct {
	loader   Loader
	interval time.Duration
	onUpdate func(*Snapshot, error)

	mu      sync.RWMutex
	latest  *Snapshot
	lastErr error
	loads   int
}

// NewPoller creates a Poller. A non-positive interval uses
// DefaultRefreshInterval. onUpdate, if not nil, is called after every load
// from the goroutine that ran it.
func NewPoller(loader Loader, interval time.Duration, onUpdate func(*Snapshot, error)) *Poller {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Poller{
		loader:   loader,
		interval: interval,
		onUpdate: onUpdate,
	}
}

// Run loads immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Refresh(ctx)
			}()
		}
	}
}

// Refresh performs one load and records its outcome.
func (p *Poller) Refresh(ctx context.Context) {
	snap, err := p.loader.Load(ctx)

	p.mu.Lock()
	p.loads++
	if err != nil {
		p.lastErr = err
	} else {
		p.latest = snap
		p.lastErr = nil
	}
	p.mu.Unlock()

	if err != nil {
		zctx.From(ctx).Warn("Dashboard refresh failed", zap.Error(err))
	}
	if p.onUpdate != nil {
		p.onUpdate(snap, err)
	}
}

// Latest returns the most recent successful snapshot and the error of the
// most recent load, if it failed.
func (p *Poller) Latest() (*Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.lastErr
}

// Loads returns the number of completed loads.
func (p *Poller) Loads() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loads
}
