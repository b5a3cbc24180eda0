package health

import (
	"context"

	"github.com/go-faster/errors"
)

// Pinger is anything that can check its remote end.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a CheckFunc that pings p.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// BreakerCheck returns a CheckFunc that fails while state reports an open
// circuit breaker.
func BreakerCheck(state func() string) CheckFunc {
	return func(_ context.Context) error {
		if s := state(); s == "open" {
			return errors.Errorf("circuit breaker is %s", s)
		}
		return nil
	}
}
