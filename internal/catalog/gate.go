package catalog

import (
	"context"
	"time"
)

// Gate serializes calls and keeps at least interval between the end of one
// call and the start of the next. A zero interval only serializes.
type Gate struct {
	interval time.Duration
	slot     chan struct{}
	lastDone time.Time
}

// NewGate returns a gate with the given pause between calls.
func NewGate(interval time.Duration) *Gate {
	if interval < 0 {
		interval = 0
	}
	return &Gate{interval: interval, slot: make(chan struct{}, 1)}
}

// Interval reports the configured pause.
func (g *Gate) Interval() time.Duration {
	if g == nil {
		return 0
	}
	return g.interval
}

// Do waits for its turn, runs fn and records when fn returned. Waiting stops
// early with ctx.Err() when ctx is cancelled; fn is then never called.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if g == nil {
		return fn()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case g.slot <- struct{}{}:
	}
	defer func() { <-g.slot }()

	if !g.lastDone.IsZero() {
		if wait := g.interval - time.Since(g.lastDone); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	err := fn()
	g.lastDone = time.Now()
	return err
}
