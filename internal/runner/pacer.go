package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out narration so spectators can follow along.
// A nil *Pacer never waits.
type Pacer struct {
	events *rate.Limiter
	phases *rate.Limiter
}

func NewPacer(eventDelay, phaseDelay time.Duration) *Pacer {
	return &Pacer{
		events: limiter(eventDelay),
		phases: limiter(phaseDelay),
	}
}

func limiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Event blocks until the next event may be shown or ctx is done.
func (p *Pacer) Event(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.events.Wait(ctx)
}

// Phase blocks until the next phase may start or ctx is done.
func (p *Pacer) Phase(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.phases.Wait(ctx)
}
