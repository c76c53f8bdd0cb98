package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alienxp03/santa/internal/core"
	"github.com/alienxp03/santa/internal/engine"
	"github.com/alienxp03/santa/internal/export"
	"github.com/alienxp03/santa/internal/roster"
	"github.com/alienxp03/santa/internal/storage"
)

// ============================================================================
// NEW COMMAND
// ============================================================================

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new game",
	Long: `Create a new Secret Santa game, optionally importing a roster.

Rosters can be YAML, JSON, CSV or plain text with one "name, contact, wishes"
line per participant.

Examples:
  santa new "Office 2026" --roster office.yaml
  santa new Family --mode batch -r family.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNewGame,
}

var (
	modeFlag   string
	rosterFlag string
)

func init() {
	newCmd.Flags().StringVarP(&modeFlag, "mode", "m", string(core.ModeInteractive), "Game mode (interactive, batch)")
	newCmd.Flags().StringVarP(&rosterFlag, "roster", "r", "", "Roster file to import")
}

func runNewGame(cmd *cobra.Command, args []string) error {
	cfg := core.NewGameConfig{Mode: core.GameMode(modeFlag)}
	if len(args) > 0 {
		cfg.Name = args[0]
	}
	if rosterFlag != "" {
		file, err := roster.Load(rosterFlag)
		if err != nil {
			return err
		}
		cfg.Participants = file.Participants
		if cfg.Name == "" {
			cfg.Name = file.Name
		}
	}

	eng, closeStore, err := getEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	game, err := eng.CreateGame(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	fmt.Printf("\nCreated game: %s\n", game.Name)
	fmt.Printf("   Mode: %s | Participants: %d\n", game.Mode, len(cfg.Participants))
	fmt.Printf("   ID: %s\n\n", game.ID)
	if game.Mode == core.ModeBatch {
		fmt.Printf("Draw everyone with: santa generate %s\n", core.ShortID(game.ID))
	} else {
		fmt.Printf("Start drawing with: santa play %s\n", core.ShortID(game.ID))
	}
	return nil
}

// ============================================================================
// LIST / SHOW / DELETE COMMANDS
// ============================================================================

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all games",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeStore, err := getEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		games, err := eng.ListGames(50, 0)
		if err != nil {
			return err
		}

		if len(games) == 0 {
			fmt.Println("No games found. Start one with: santa new \"Office party\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMODE\tSTATUS\tDRAWN\tCREATED")
		fmt.Fprintln(w, "──\t────\t────\t──────\t─────\t───────")

		for _, g := range games {
			name := g.Name
			if len(name) > 40 {
				name = name[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
				core.ShortID(g.ID),
				name,
				g.Mode,
				g.Status,
				g.AssignmentCount,
				g.ParticipantCount,
				g.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		w.Flush()

		return nil
	},
}

var revealFlag bool

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show game details",
	Args:  cobra.ExactArgs(1),
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
		sheet, err := eng.Sheet(gameID)
		if err != nil {
			return err
		}
		game := sheet.Game

		fmt.Printf("\nGame: %s\n", game.Name)
		fmt.Printf("   ID: %s\n", game.ID)
		fmt.Printf("   Mode: %s\n", game.Mode)
		fmt.Printf("   Status: %s\n", game.Status)
		fmt.Printf("   Created: %s\n", game.CreatedAt.Format(time.RFC3339))
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PARTICIPANT\tCONTACT\tWISHES\tDRAWN")
		for _, p := range sheet.Participants {
			drawn := "-"
			if receiver, ok := sheet.Assignments.ReceiverOf(p.Name); ok {
				drawn = "yes"
				if revealFlag {
					drawn = receiver
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Contact, p.Wishes, drawn)
		}
		w.Flush()

		if pending := sheet.Pending(); len(pending) > 0 && len(sheet.Assignments) > 0 {
			fmt.Printf("\nStill to draw: %s\n", strings.Join(core.Names(pending), ", "))
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&revealFlag, "reveal", false, "Show who drew whom")
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a game",
	Args:  cobra.ExactArgs(1),
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
		if err := eng.DeleteGame(gameID); err != nil {
			return err
		}

		fmt.Printf("Deleted game: %s\n", gameID)
		return nil
	},
}

// ============================================================================
// ADD COMMAND
// ============================================================================

var (
	contactFlag string
	wishesFlag  string
)

var addCmd = &cobra.Command{
	Use:   "add [id] [name]",
	Short: "Add a participant to a game",
	Long: `Add a participant to an open game. Interactive games accept newcomers
between draws.

Examples:
  santa add abc123 "Jo" --contact jo@example.com --wishes "books, tea"`,
	Args: cobra.ExactArgs(2),
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

		p := core.Participant{Name: args[1], Contact: contactFlag, Wishes: wishesFlag}
		if err := eng.AddParticipant(cmd.Context(), gameID, p); err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}

		members, err := eng.Participants(gameID)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%d participants)\n", strings.TrimSpace(args[1]), len(members))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&contactFlag, "contact", "c", "", "Email or other contact")
	addCmd.Flags().StringVarP(&wishesFlag, "wishes", "w", "", "Gift ideas")
}

// ============================================================================
// GENERATE COMMAND
// ============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate [id]",
	Short: "Draw every assignment of a batch game at once",
	Long: `Draw every assignment of a batch game at once and notify each giver.

With --roster the draw runs on a throwaway game that is never stored.

Examples:
  santa generate abc123
  santa generate --roster family.yaml --reveal`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&rosterFlag, "roster", "r", "", "Roster file for a one-off draw")
	generateCmd.Flags().BoolVar(&revealFlag, "reveal", false, "Print who drew whom")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (rosterFlag == "") {
		return fmt.Errorf("pass either a game id or --roster")
	}

	var (
		eng    *engine.Engine
		gameID string
	)
	if rosterFlag != "" {
		file, err := roster.Load(rosterFlag)
		if err != nil {
			return err
		}
		eng, err = newEngine(storage.NewMemoryStorage())
		if err != nil {
			return err
		}
		game, err := eng.CreateGame(cmd.Context(), core.NewGameConfig{
			Name:         file.Name,
			Mode:         core.ModeBatch,
			Participants: file.Participants,
		})
		if err != nil {
			return err
		}
		gameID = game.ID
		revealFlag = true
	} else {
		var closeStore func()
		var err error
		eng, closeStore, err = getEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		gameID, err = findGameByPrefix(eng, args[0])
		if err != nil {
			return err
		}
	}

	ctx, cancel := interruptible(cmd.Context())
	defer cancel()

	result, err := eng.Generate(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to generate assignments: %w", err)
	}

	fmt.Printf("\nDrew %d assignments.\n", len(result.Assignments))
	if revealFlag {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "GIVER\t\tRECEIVER")
		for _, a := range result.Assignments {
			fmt.Fprintf(w, "%s\t→\t%s\n", a.Giver, a.Receiver)
		}
		w.Flush()
	}
	if result.Notified > 0 || len(result.Failed) > 0 {
		fmt.Printf("Notified %d giver(s).\n", result.Notified)
	}
	if len(result.Failed) > 0 {
		fmt.Printf("Could not notify: %s\n", strings.Join(result.Failed, ", "))
	}
	return nil
}

// ============================================================================
// EXPORT COMMAND
// ============================================================================

var exportCmd = &cobra.Command{
	Use:   "export [id] [format]",
	Short: "Export game to file",
	Long: `Export a game to markdown, PDF, or JSON.

The PDF has a summary page and one reveal slip per giver.

Examples:
  santa export abc123 markdown
  santa export abc123 pdf
  santa export abc123 json -o office.json`,
	Args: cobra.ExactArgs(2),
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
		sheet, err := eng.Sheet(gameID)
		if err != nil {
			return err
		}

		format, err := export.ParseFormat(args[1])
		if err != nil {
			return err
		}
		exporter, err := export.GetExporter(format)
		if err != nil {
			return err
		}

		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = export.GenerateFilename(sheet.Game, exporter.FileExtension())
		}

		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()

		if err := exporter.Export(sheet, file); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		fmt.Printf("Exported to: %s\n", outputPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file path")
}
