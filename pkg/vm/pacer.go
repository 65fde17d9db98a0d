package vm

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultStepDelay is the pause between dispatched tokens that makes the
// drawing animate.
const DefaultStepDelay = 5 * time.Millisecond

// Pacer decides how long the host waits between two steps.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NoDelay runs steps back to back.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error { return ctx.Err() }

// Ticker waits a fixed delay per step on the given clock.
type Ticker struct {
	Clock clockwork.Clock
	Delay time.Duration
}

// NewTicker returns a ticker on the wall clock.
func NewTicker(delay time.Duration) *Ticker {
	return &Ticker{Clock: clockwork.NewRealClock(), Delay: delay}
}

func (t *Ticker) Wait(ctx context.Context) error {
	if t.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Clock.After(t.Delay):
		return nil
	}
}
