package notify

import (
	"context"
	"log/slog"

	"github.com/alienxp03/santa/internal/core"
)

// LogNotifier records assignments in the structured log. It is the default
// when no delivery service is configured.
type LogNotifier struct {
	logger *slog.Logger
	reveal bool
}

// NewLogNotifier creates a log notifier. Receivers are only written to the
// log when reveal is set.
func NewLogNotifier(logger *slog.Logger, reveal bool) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger, reveal: reveal}
}

// Name implements Notifier.
func (n *LogNotifier) Name() string { return "log" }

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, giver, receiver core.Participant) error {
	attrs := []any{"giver", giver.Name, "contact", giver.Contact}
	if n.reveal {
		attrs = append(attrs, "receiver", receiver.Name)
	}
	n.logger.InfoContext(ctx, "Assignment ready", attrs...)
	return nil
}
