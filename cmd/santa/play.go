package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alienxp03/santa/internal/core"
	"github.com/alienxp03/santa/internal/draw"
	"github.com/alienxp03/santa/internal/engine"
)

// ============================================================================
// PLAY COMMAND
// ============================================================================

var playCmd = &cobra.Command{
	Use:   "play [id]",
	Short: "Draw an interactive game round by round",
	Long: `Draw an interactive game one giver at a time.

At the prompt type the name of whoever is drawing next. Other commands:
  add NAME   add a participant between draws
  undo       take back the last confirmed draw
  reset      clear every draw of the game
  quit       leave; progress is saved

Press Ctrl+C while the wheel spins to abandon that draw.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeStore, err := getEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		gameID, err := findGameByPrefix(eng, args[0])
		if err != nil {
			return err
		}
		game, err := eng.GetGame(gameID)
		if err != nil {
			return err
		}
		if game.Mode != core.ModeInteractive {
			return fmt.Errorf("%s is a batch game; use: santa generate %s", game.Name, core.ShortID(game.ID))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nPlaying: %s\n", game.Name)
		return playGame(cmd.Context(), eng, gameID, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// playGame runs the prompt loop until every giver has drawn, the input ends,
// or the player quits.
func playGame(ctx context.Context, eng *engine.Engine, gameID string, in io.Reader, out io.Writer) error {
	p := &player{eng: eng, gameID: gameID, in: bufio.NewScanner(in), out: out}

	for {
		snap, err := eng.Round(gameID)
		if err != nil {
			return err
		}
		if snap.State == draw.StateFinished {
			fmt.Fprintln(out, "\nEveryone has drawn. Merry Christmas!")
			return nil
		}
		if len(snap.Roster) < 2 {
			fmt.Fprintln(out, "\nAdd at least two participants with: add NAME")
		} else {
			fmt.Fprintf(out, "\nStill to draw: %s\n", strings.Join(snap.RemainingGivers, ", "))
		}

		line, ok := p.prompt("Who is drawing? ")
		if !ok {
			return nil
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch strings.ToLower(cmd) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Progress saved.")
			return nil
		case "undo":
			err = p.undo()
		case "reset":
			err = p.reset()
		case "add":
			err = p.add(ctx, arg)
		default:
			err = p.turn(ctx, line)
		}

		if err != nil {
			if !engine.IsRoundError(err) && !errors.Is(err, core.ErrInvalidParticipant) && !errors.Is(err, core.ErrDuplicateIdentity) {
				return err
			}
			fmt.Fprintf(out, "  %v\n", err)
		}
	}
}

type player struct {
	eng    *engine.Engine
	gameID string
	in     *bufio.Scanner
	out    io.Writer
}

func (p *player) prompt(label string) (string, bool) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// turn runs one giver's draw through to confirmation or abandonment.
func (p *player) turn(ctx context.Context, giver string) error {
	snap, err := p.eng.ChooseGiver(p.gameID, giver)
	if err != nil {
		return err
	}

	fmt.Fprintf(p.out, "  %s spins the wheel...\n", snap.CurrentGiver)
	drawCtx, cancel := interruptible(ctx)
	receiver, err := p.eng.Draw(drawCtx, p.gameID)
	cancel()
	if err != nil {
		if errors.Is(err, core.ErrDrawCancelled) {
			fmt.Fprintln(p.out, "  Draw abandoned.")
			return nil
		}
		return p.abandonAfter(err)
	}

	fmt.Fprintf(p.out, "  %s draws %s!\n", snap.CurrentGiver, receiver.Name)
	if receiver.Wishes != "" {
		fmt.Fprintf(p.out, "  Gift ideas: %s\n", receiver.Wishes)
	}

	answer, ok := p.prompt("  Confirm? [Y/n] ")
	if ok && (answer == "" || strings.HasPrefix(strings.ToLower(answer), "y")) {
		commit, err := p.eng.Confirm(ctx, p.gameID)
		if err != nil {
			return err
		}
		if commit.NotifyErr != nil {
			fmt.Fprintf(p.out, "  Could not notify %s: %v\n", commit.Giver.Name, commit.NotifyErr)
		}
		return nil
	}

	if err := p.eng.Abandon(p.gameID); err != nil {
		return err
	}
	fmt.Fprintln(p.out, "  Draw abandoned.")
	return nil
}

// abandonAfter drops the pending draw after a failed spin and returns cause.
// An abandon failure that is not a round rule is returned alongside it.
func (p *player) abandonAfter(cause error) error {
	err := p.eng.Abandon(p.gameID)
	if err == nil {
		return cause
	}
	slog.Warn("Failed to abandon draw", "game", p.gameID, "error", err)
	if engine.IsRoundError(err) {
		return cause
	}
	return errors.Join(cause, fmt.Errorf("failed to abandon draw: %w", err))
}

func (p *player) undo() error {
	last, err := p.eng.Rollback(p.gameID)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "  Took back %s's draw.\n", last.Giver)
	return nil
}

func (p *player) reset() error {
	answer, ok := p.prompt("  Clear every draw? [y/N] ")
	if !ok || !strings.HasPrefix(strings.ToLower(answer), "y") {
		return nil
	}
	if err := p.eng.Reset(p.gameID); err != nil {
		return err
	}
	fmt.Fprintln(p.out, "  All draws cleared.")
	return nil
}

func (p *player) add(ctx context.Context, name string) error {
	if err := p.eng.AddParticipant(ctx, p.gameID, core.Participant{Name: name}); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "  Added %s.\n", strings.TrimSpace(name))
	return nil
}
