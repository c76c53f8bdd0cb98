// Package config handles application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alienxp03/santa/internal/derange"
	"github.com/alienxp03/santa/internal/draw"
	"github.com/alienxp03/santa/internal/engine"
	"github.com/alienxp03/santa/internal/notify"
	"github.com/alienxp03/santa/internal/storage"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Game     GameConfig     `yaml:"game"`
	Notifier NotifierConfig `yaml:"notifier"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Path string `yaml:"path"` // ":memory:" keeps games in process memory
}

// GameConfig holds defaults applied to new games and draws.
type GameConfig struct {
	Policy   string        `yaml:"policy"`   // guarded or strict
	Strategy string        `yaml:"strategy"` // reject, swap or cycle
	SpinMin  time.Duration `yaml:"spin_min"`
	SpinMax  time.Duration `yaml:"spin_max"`
}

// NotifierConfig selects and configures assignment notifiers.
type NotifierConfig struct {
	Use         []string      `yaml:"use"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	RevealInLog bool          `yaml:"reveal_in_log"`
	EmailJS     EmailJSConfig `yaml:"emailjs,omitempty"`
}

// EmailJSConfig holds EmailJS credentials.
type EmailJSConfig struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	ServiceID   string `yaml:"service_id"`
	TemplateID  string `yaml:"template_id"`
	UserID      string `yaml:"user_id"`
	AccessToken string `yaml:"access_token,omitempty"`
}

// Configured reports whether the required EmailJS credentials are set.
func (e EmailJSConfig) Configured() bool {
	return e.ServiceID != "" && e.TemplateID != "" && e.UserID != ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8182,
		},
		Storage: StorageConfig{
			Path: storage.DefaultDBPath(),
		},
		Game: GameConfig{
			Policy:   string(draw.PolicyGuarded),
			Strategy: string(derange.StrategyReject),
			SpinMin:  2 * time.Second,
			SpinMax:  4 * time.Second,
		},
		Notifier: NotifierConfig{
			Use:         []string{"log"},
			Timeout:     10 * time.Second,
			Concurrency: 4,
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that the factories below depend on.
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Strategy(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Game.SpinMin < 0 || c.Game.SpinMax < 0 {
		return fmt.Errorf("invalid config: spin durations must not be negative")
	}
	return nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Policy returns the configured deadlock policy.
func (c *Config) Policy() (draw.Policy, error) {
	return draw.ParsePolicy(c.Game.Policy)
}

// Strategy returns the configured batch generation strategy.
func (c *Config) Strategy() (derange.Strategy, error) {
	return derange.ParseStrategy(c.Game.Strategy)
}

// Spinner returns the spinner used while a draw is in flight.
func (c *Config) Spinner() draw.Spinner {
	if c.Game.SpinMin == 0 && c.Game.SpinMax == 0 {
		return draw.Instant
	}
	return draw.TimedSpinner{Min: c.Game.SpinMin, Max: c.Game.SpinMax}
}

// OpenStorage opens and initializes the configured store.
func (c *Config) OpenStorage() (storage.Storage, error) {
	if c.Storage.Path == ":memory:" {
		return storage.NewMemoryStorage(), nil
	}

	store, err := storage.NewSQLiteStorage(c.Storage.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// CreateRegistry creates a notifier registry from this configuration.
// The log notifier is always present; emailjs is registered when its
// credentials are set.
func (c *Config) CreateRegistry(logger *slog.Logger) (*notify.Registry, error) {
	registry := notify.NewRegistry()
	registry.Register(notify.NewLogNotifier(logger, c.Notifier.RevealInLog))

	if c.Notifier.EmailJS.Configured() {
		client := &http.Client{Timeout: c.Notifier.Timeout}
		n, err := notify.NewEmailJSNotifier(client, notify.EmailJSConfig{
			Endpoint:    c.Notifier.EmailJS.Endpoint,
			ServiceID:   c.Notifier.EmailJS.ServiceID,
			TemplateID:  c.Notifier.EmailJS.TemplateID,
			UserID:      c.Notifier.EmailJS.UserID,
			AccessToken: c.Notifier.EmailJS.AccessToken,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create notifier emailjs: %w", err)
		}
		registry.Register(n)
	}

	return registry, nil
}

// CreateNotifier builds the notifier selected by Notifier.Use. It returns
// nil when no notifier is selected.
func (c *Config) CreateNotifier(logger *slog.Logger) (notify.Notifier, error) {
	if len(c.Notifier.Use) == 0 {
		return nil, nil
	}

	registry, err := c.CreateRegistry(logger)
	if err != nil {
		return nil, err
	}

	n, err := registry.Select(c.Notifier.Use...)
	if err != nil {
		return nil, fmt.Errorf("invalid notifier selection (available: %v): %w", registry.Names(), err)
	}
	return n, nil
}

// EngineOptions returns the engine options this configuration selects.
// notifier may be nil.
func (c *Config) EngineOptions(notifier notify.Notifier, logger *slog.Logger) ([]engine.Option, error) {
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	strategy, err := c.Strategy()
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithPolicy(policy),
		engine.WithStrategy(strategy),
		engine.WithSpinner(c.Spinner()),
		engine.WithLogger(logger),
	}
	if notifier != nil {
		opts = append(opts, engine.WithNotifier(notifier, c.Notifier.Timeout, c.Notifier.Concurrency))
	}
	return opts, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "santa.yaml"
	}
	return filepath.Join(home, ".santa", "config.yaml")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	example := `# santa configuration file
# Place this file at ~/.santa/config.yaml

server:
  port: 8182                # HTTP port for santa serve

storage:
  path: ~/.santa/santa.db   # SQLite database (":memory:" for a throwaway store)

game:
  policy: guarded           # guarded steers the last draws; strict reports dead ends
  strategy: reject          # batch generator: reject, swap or cycle
  spin_min: 2s              # shortest suspense before a draw is revealed
  spin_max: 4s              # longest suspense (0s/0s reveals instantly)

notifier:
  use: ["log"]              # any of: log, emailjs
  timeout: 10s              # per-notification deadline
  concurrency: 4            # parallel sends for batch games
  reveal_in_log: false      # log receiver names (only for local testing)
  emailjs:
    service_id: ""
    template_id: ""
    user_id: ""             # EmailJS public key
    access_token: ""        # EmailJS private key, optional
`
	return example
}
