package draw

import (
	"context"
	"time"

	"github.com/alienxp03/santa/internal/core"
)

// Spinner stands in for whatever the giver watches while a draw is in
// flight. Spin returns once the reveal may happen, or with ctx's error if
// the draw was cancelled first.
type Spinner interface {
	Spin(ctx context.Context) error
}

// SpinnerFunc adapts a function to the Spinner interface.
type SpinnerFunc func(ctx context.Context) error

// Spin implements Spinner.
func (f SpinnerFunc) Spin(ctx context.Context) error { return f(ctx) }

// Instant resolves draws immediately.
var Instant Spinner = SpinnerFunc(func(ctx context.Context) error { return ctx.Err() })

// TimedSpinner waits a random duration in [Min, Max].
type TimedSpinner struct {
	Min time.Duration
	Max time.Duration
	RNG core.RNG // must be safe for concurrent use; nil uses core.DefaultRNG
}

// Spin implements Spinner.
func (s TimedSpinner) Spin(ctx context.Context) error {
	timer := time.NewTimer(s.duration())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s TimedSpinner) duration() time.Duration {
	if s.Max <= s.Min {
		return s.Min
	}
	rng := s.RNG
	if rng == nil {
		rng = core.DefaultRNG()
	}
	spread := int(s.Max - s.Min)
	return s.Min + time.Duration(rng.Intn(spread+1))
}
