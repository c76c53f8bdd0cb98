package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/alienxp03/santa/internal/core"
)

type multi struct {
	notifiers []Notifier
}

// Multi returns a notifier that delivers through every given notifier. All
// of them are attempted; failures are joined.
func Multi(notifiers ...Notifier) Notifier {
	return &multi{notifiers: notifiers}
}

func (m *multi) Name() string {
	names := make([]string, len(m.notifiers))
	for i, n := range m.notifiers {
		names[i] = n.Name()
	}
	return strings.Join(names, "+")
}

func (m *multi) Notify(ctx context.Context, giver, receiver core.Participant) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, giver, receiver); err != nil {
			errs = append(errs, &Error{Notifier: n.Name(), Giver: giver.Name, Err: err})
		}
	}
	return errors.Join(errs...)
}
