package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alienxp03/santa/internal/config"
	"github.com/alienxp03/santa/internal/engine"
	"github.com/alienxp03/santa/internal/storage"
	"github.com/alienxp03/santa/web/handlers"
)

var (
	dbPath    string
	cfgPath   string
	debug     bool
	appConfig *config.Config
	logger    *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "santa",
	Short: "Secret Santa draws",
	Long: `santa organizes Secret Santa gift exchanges.

Build a roster, then either draw everyone at once or let each giver spin
for their receiver in turn. Nobody draws themselves and nobody is drawn
twice.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		// Load config
		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dbPath != "" {
			appConfig.Storage.Path = dbPath
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.santa/santa.db)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.santa/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

func getStorage() (storage.Storage, error) {
	store, err := appConfig.OpenStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// getEngine opens the configured store and builds an engine on it. The
// returned function closes the store.
func getEngine() (*engine.Engine, func(), error) {
	store, err := getStorage()
	if err != nil {
		return nil, nil, err
	}
	eng, err := newEngine(store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return eng, func() { store.Close() }, nil
}

func newEngine(store storage.Storage) (*engine.Engine, error) {
	notifier, err := appConfig.CreateNotifier(logger)
	if err != nil {
		return nil, err
	}
	opts, err := appConfig.EngineOptions(notifier, logger)
	if err != nil {
		return nil, err
	}
	return engine.New(store, opts...), nil
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		fmt.Printf("Config file: %s\n\n", path)

		fmt.Println("Current settings:")
		fmt.Printf("  Database: %s\n", appConfig.Storage.Path)
		fmt.Printf("  Server port: %d\n", appConfig.Server.Port)
		fmt.Printf("  Draw policy: %s\n", appConfig.Game.Policy)
		fmt.Printf("  Batch strategy: %s\n", appConfig.Game.Strategy)
		fmt.Printf("  Spin: %s to %s\n", appConfig.Game.SpinMin, appConfig.Game.SpinMax)

		fmt.Println("\nNotifiers:")
		if len(appConfig.Notifier.Use) == 0 {
			fmt.Println("  none")
		}
		for _, name := range appConfig.Notifier.Use {
			status := "ready"
			if name == "emailjs" && !appConfig.Notifier.EmailJS.Configured() {
				status = "missing credentials"
			}
			fmt.Printf("  %s: %s (timeout: %s)\n", name, status, appConfig.Notifier.Timeout)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		example := config.GenerateExample()
		if err := os.MkdirAll(strings.TrimSuffix(path, "/config.yaml"), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(example), 0644); err != nil {
			return err
		}

		fmt.Printf("Created config at: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") && appConfig.Server.Port != 0 {
			servePort = appConfig.Server.Port
		}

		eng, closeStore, err := getEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		fmt.Printf("\nStarting santa web server on http://localhost:%d\n\n", servePort)
		fmt.Println("Available endpoints:")
		fmt.Printf("  GET  http://localhost:%d/                      - Draw page\n", servePort)
		fmt.Printf("  GET  http://localhost:%d/api/games             - List games\n", servePort)
		fmt.Printf("  GET  http://localhost:%d/api/games/:id/events  - Live round events\n", servePort)
		fmt.Println("\nPress Ctrl+C to stop the server")

		return startWebServer(eng, servePort)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8182, "Server port")
}

func startWebServer(eng *engine.Engine, port int) error {
	h := handlers.New(eng, logger)

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			server.Close()
		}
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func findGameByPrefix(eng *engine.Engine, prefix string) (string, error) {
	games, _ := eng.ListGames(1000, 0)
	for _, g := range games {
		if strings.HasPrefix(g.ID, prefix) {
			return g.ID, nil
		}
	}
	return "", fmt.Errorf("game not found: %s", prefix)
}

// interruptible returns a context cancelled on Ctrl+C.
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
