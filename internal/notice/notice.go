// Package notice holds the transient, auto-dismissing messages shown to the
// cashier after an action.
package notice

import (
	"fmt"
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// DefaultTTL is how long a notice stays visible.
const DefaultTTL = 3 * time.Second

// Notice is a single user-facing message.
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// New returns a notice with the given level and message. At is set when the
// notice is posted to a Board.
func New(level Level, msg string) Notice {
	return Notice{Level: level, Message: msg}
}

// Board keeps posted notices until they expire. It is safe for concurrent
// use: the dashboard poller posts from its own goroutine.
type Board struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	notices []Notice
}

// NewBoard creates a Board whose notices expire after ttl. A non-positive ttl
// uses DefaultTTL.
func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{ttl: ttl, now: time.Now}
}

// Post stamps n with the current time and adds it to the board.
func (b *Board) Post(n Notice) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	n.At = b.now()
	b.notices = append(b.notices, n)
	return n
}

// Postf formats a message and posts it at level.
func (b *Board) Postf(level Level, format string, args ...any) Notice {
	return b.Post(New(level, fmt.Sprintf(format, args...)))
}

// Active drops expired notices and returns the remaining ones, oldest first.
func (b *Board) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	kept := b.notices[:0]
	for _, n := range b.notices {
		if now.Sub(n.At) < b.ttl {
			kept = append(kept, n)
		}
	}
	b.notices = kept

	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}

// Latest returns the newest active notice, if any.
func (b *Board) Latest() (Notice, bool) {
	active := b.Active()
	if len(active) == 0 {
		return Notice{}, false
	}
	return active[len(active)-1], true
}

// Dismiss removes all notices immediately.
func (b *Board) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = nil
}
