package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alienxp03/santa/internal/core"
	"github.com/alienxp03/santa/internal/draw"
)

// round returns the live draw engine of an interactive game, restoring it
// from storage on first use.
func (e *Engine) round(gameID string) (*round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if r, ok := e.rounds[gameID]; ok {
		return r, nil
	}

	game, err := e.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	if game.Mode != core.ModeInteractive {
		return nil, fmt.Errorf("%w: batch games have no rounds", core.ErrInvalidState)
	}

	roster, err := e.storage.GetParticipants(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	set, err := e.storage.GetAssignments(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}

	opts := []draw.Option{
		draw.WithPolicy(e.policy),
		draw.WithRand(e.rng),
		draw.WithSpinner(e.spinner),
		draw.WithLogger(e.logger.With("game", gameID)),
		draw.WithCommitted(set),
		draw.WithObserver(func(ev draw.Event) { e.hub.Publish(gameID, ev) }),
	}

	eng, err := draw.New(roster, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore round: %w", err)
	}

	r := &round{eng: eng}
	e.rounds[gameID] = r
	e.logger.Debug("Round restored", "game", gameID, "participants", len(roster), "committed", len(set))
	return r, nil
}

// Round returns the current round state of an interactive game.
func (e *Engine) Round(gameID string) (draw.Snapshot, error) {
	r, err := e.round(gameID)
	if err != nil {
		return draw.Snapshot{}, err
	}
	return r.eng.Snapshot(), nil
}

// Eligible returns who the chosen giver could draw.
func (e *Engine) Eligible(gameID string) ([]core.Participant, error) {
	r, err := e.round(gameID)
	if err != nil {
		return nil, err
	}
	return r.eng.Eligible(), nil
}

// ChooseGiver designates who draws next.
func (e *Engine) ChooseGiver(gameID, name string) (draw.Snapshot, error) {
	r, err := e.round(gameID)
	if err != nil {
		return draw.Snapshot{}, err
	}
	if err := r.eng.ChooseGiver(name); err != nil {
		return draw.Snapshot{}, err
	}
	return r.eng.Snapshot(), nil
}

// Draw runs the spinner and reveals the chosen giver's tentative receiver.
// Cancelling ctx during the spin abandons the draw.
func (e *Engine) Draw(ctx context.Context, gameID string) (core.Participant, error) {
	r, err := e.round(gameID)
	if err != nil {
		return core.Participant{}, err
	}
	return r.eng.Draw(ctx)
}

// Confirm commits the revealed draw, stores it and, when it was the last
// giver, completes the game. If the pair cannot be stored the commit is
// rolled back so the round and storage agree. The giver is notified only
// once the pair is stored.
func (e *Engine) Confirm(ctx context.Context, gameID string) (draw.Commit, error) {
	r, err := e.round(gameID)
	if err != nil {
		return draw.Commit{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	commit, err := r.eng.Confirm(ctx)
	if err != nil {
		return draw.Commit{}, err
	}

	if err := e.storage.AddAssignment(gameID, commit.Assignment); err != nil {
		if _, rbErr := r.eng.Rollback(); rbErr != nil {
			e.logger.Error("Failed to roll back unsaved commit", "game", gameID, "error", rbErr)
		}
		return draw.Commit{}, fmt.Errorf("failed to save assignment: %w", err)
	}

	if e.notifier != nil {
		if err := e.timed(e.notifier).Notify(ctx, commit.Giver, commit.Receiver); err != nil {
			e.logger.Warn("Failed to notify giver", "game", gameID, "giver", commit.Giver.Name, "notifier", e.notifier.Name(), "error", err)
			commit.NotifyErr = err
			e.hub.Publish(gameID, draw.Event{
				Type:  draw.EventNotifyFailed,
				State: r.eng.State(),
				Giver: commit.Giver.Name,
				Error: err.Error(),
				At:    time.Now(),
			})
		}
	}

	if commit.Finished {
		game, err := e.GetGame(gameID)
		if err != nil {
			return commit, err
		}
		if err := e.complete(game); err != nil {
			return commit, err
		}
		e.logger.Info("Game completed", "game", gameID)
	}
	return commit, nil
}

// Abandon drops the chosen giver and any pending draw.
func (e *Engine) Abandon(gameID string) error {
	r, err := e.round(gameID)
	if err != nil {
		return err
	}
	return r.eng.Abandon()
}

// Rollback undoes the most recent commit, including in storage. A completed
// game is reopened.
func (e *Engine) Rollback(gameID string) (core.Assignment, error) {
	r, err := e.round(gameID)
	if err != nil {
		return core.Assignment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	last, err := r.eng.Rollback()
	if err != nil {
		return core.Assignment{}, err
	}
	if err := e.storage.DeleteAssignment(gameID, last.Giver); err != nil {
		return core.Assignment{}, fmt.Errorf("failed to delete assignment: %w", err)
	}
	if err := e.reopen(gameID); err != nil {
		return core.Assignment{}, err
	}
	return last, nil
}

// Reset clears every assignment of an interactive game and reopens it. A
// draw in flight is cancelled.
func (e *Engine) Reset(gameID string) error {
	r, err := e.round(gameID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.eng.Reset()
	if err := e.storage.SaveAssignments(gameID, core.AssignmentSet{}); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}
	return e.reopen(gameID)
}

// IsRoundError reports whether err is a rule violation of the round rather
// than an infrastructure failure.
func IsRoundError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidGiver,
		core.ErrNoEligibleReceivers,
		core.ErrDrawInProgress,
		core.ErrDrawCancelled,
		core.ErrInvalidState,
		core.ErrGameFinished,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
