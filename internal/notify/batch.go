package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alienxp03/santa/internal/core"
)

// Report summarizes a batch delivery.
type Report struct {
	Sent   int
	Failed []*Error
}

// Err joins the individual failures, or returns nil if every message went out.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// All notifies every giver in set, at most concurrency at a time. Individual
// failures are collected in the report; only a missing participant (a set
// that does not match the roster) stops the batch.
func All(ctx context.Context, n Notifier, roster []core.Participant, set core.AssignmentSet, concurrency int) (Report, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	type pair struct{ giver, receiver core.Participant }
	pairs := make([]pair, 0, len(set))
	for _, a := range set {
		g, ok := core.FindParticipant(roster, a.Giver)
		if !ok {
			return Report{}, fmt.Errorf("giver %q is not in the roster", a.Giver)
		}
		r, ok := core.FindParticipant(roster, a.Receiver)
		if !ok {
			return Report{}, fmt.Errorf("receiver %q is not in the roster", a.Receiver)
		}
		pairs = append(pairs, pair{g, r})
	}

	var (
		mu     sync.Mutex
		report Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, p := range pairs {
		g.Go(func() error {
			err := n.Notify(gctx, p.giver, p.receiver)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var nerr *Error
				if !errors.As(err, &nerr) {
					nerr = &Error{Notifier: n.Name(), Giver: p.giver.Name, Err: err}
				}
				report.Failed = append(report.Failed, nerr)
				return nil
			}
			report.Sent++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, ctx.Err()
}
