package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alienxp03/santa/internal/derange"
	"github.com/alienxp03/santa/internal/draw"
)

func TestLoadEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `
# Comment
KEY1=value1
KEY2="value 2"
KEY3='value 3'
KEY4=value 4 # inline comment
export KEY5=exported
EMPTY=
`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create env file: %v", err)
	}

	env, err := LoadEnv(envFile)
	if err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"KEY1", "value1"},
		{"KEY2", "value 2"},
		{"KEY3", "value 3"},
		{"KEY4", "value 4"},
		{"KEY5", "exported"},
		{"EMPTY", ""},
	}

	for _, tt := range tests {
		if got, ok := env[tt.key]; !ok || got != tt.expected {
			t.Errorf("expected %s=%q, got %q (exists=%v)", tt.key, tt.expected, got, ok)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	env := map[string]string{
		"SERVER_PORT":          "9090",
		"DB_PATH":              "/tmp/santa.db",
		"DRAW_POLICY":          "strict",
		"GENERATOR_STRATEGY":   "cycle",
		"SPIN_MIN":             "1",
		"SPIN_MAX":             "1500ms",
		"NOTIFIER":             "log, emailjs",
		"NOTIFY_TIMEOUT":       "30s",
		"EMAILJS_SERVICE_ID":   "service_x",
		"EMAILJS_TEMPLATE_ID":  "template_x",
		"EMAILJS_USER_ID":      "user_x",
		"EMAILJS_ACCESS_TOKEN": "token_x",
	}

	ApplyEnvOverrides(cfg, env)

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Path != "/tmp/santa.db" {
		t.Errorf("expected db path override, got %s", cfg.Storage.Path)
	}
	if p, _ := cfg.Policy(); p != draw.PolicyStrict {
		t.Errorf("expected strict policy, got %s", p)
	}
	if s, _ := cfg.Strategy(); s != derange.StrategyCycle {
		t.Errorf("expected cycle strategy, got %s", s)
	}
	if cfg.Game.SpinMin != time.Second || cfg.Game.SpinMax != 1500*time.Millisecond {
		t.Errorf("unexpected spin range %v..%v", cfg.Game.SpinMin, cfg.Game.SpinMax)
	}
	if diff := cmp.Diff([]string{"log", "emailjs"}, cfg.Notifier.Use); diff != "" {
		t.Errorf("notifier selection mismatch (-want +got):\n%s", diff)
	}
	if cfg.Notifier.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Notifier.Timeout)
	}
	want := EmailJSConfig{ServiceID: "service_x", TemplateID: "template_x", UserID: "user_x", AccessToken: "token_x"}
	if diff := cmp.Diff(want, cfg.Notifier.EmailJS); diff != "" {
		t.Errorf("emailjs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("MissingFileUsesDefaults", func(t *testing.T) {
		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("LoadFrom failed: %v", err)
		}
		if diff := cmp.Diff(Default(), cfg); diff != "" {
			t.Errorf("expected defaults (-want +got):\n%s", diff)
		}
	})

	t.Run("FileOverridesDefaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
server:
  port: 9999
game:
  policy: strict
  spin_min: 0s
  spin_max: 0s
notifier:
  use: []
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom failed: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Server.Port)
		}
		if cfg.Game.Strategy != string(derange.StrategyReject) {
			t.Errorf("unset fields should keep defaults, got strategy %q", cfg.Game.Strategy)
		}
		if _, timed := cfg.Spinner().(draw.TimedSpinner); timed {
			t.Error("zero spin range should reveal instantly")
		}
		n, err := cfg.CreateNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err != nil || n != nil {
			t.Errorf("expected no notifier, got %v, %v", n, err)
		}
	})

	t.Run("InvalidPolicy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("game:\n  policy: lenient\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(path); err == nil {
			t.Error("expected error for unknown policy")
		}
	})

	t.Run("SaveRoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		cfg := Default()
		cfg.Notifier.Use = []string{"log"}
		cfg.Game.SpinMax = 7 * time.Second
		if err := cfg.SaveTo(path); err != nil {
			t.Fatalf("SaveTo failed: %v", err)
		}
		loaded, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom failed: %v", err)
		}
		if diff := cmp.Diff(cfg, loaded); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCreateNotifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := Default()
	n, err := cfg.CreateNotifier(logger)
	if err != nil {
		t.Fatalf("CreateNotifier failed: %v", err)
	}
	if n.Name() != "log" {
		t.Errorf("expected log notifier, got %s", n.Name())
	}

	cfg.Notifier.Use = []string{"log", "emailjs"}
	if _, err := cfg.CreateNotifier(logger); err == nil {
		t.Error("expected error when emailjs is selected without credentials")
	}

	cfg.Notifier.EmailJS = EmailJSConfig{ServiceID: "s", TemplateID: "t", UserID: "u"}
	n, err = cfg.CreateNotifier(logger)
	if err != nil {
		t.Fatalf("CreateNotifier failed: %v", err)
	}
	if n.Name() != "log+emailjs" {
		t.Errorf("unexpected notifier %s", n.Name())
	}
}

func TestGenerateExampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(GenerateExample()), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if cfg.Game.SpinMax != 4*time.Second {
		t.Errorf("unexpected spin_max %v", cfg.Game.SpinMax)
	}
}

func TestEngineOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := Default()
	opts, err := cfg.EngineOptions(nil, logger)
	if err != nil {
		t.Fatalf("EngineOptions failed: %v", err)
	}
	if len(opts) != 4 {
		t.Errorf("expected 4 options without a notifier, got %d", len(opts))
	}

	n, err := cfg.CreateNotifier(logger)
	if err != nil {
		t.Fatal(err)
	}
	opts, err = cfg.EngineOptions(n, logger)
	if err != nil {
		t.Fatalf("EngineOptions failed: %v", err)
	}
	if len(opts) != 5 {
		t.Errorf("expected notifier option, got %d options", len(opts))
	}

	cfg.Game.Strategy = "shuffle"
	if _, err := cfg.EngineOptions(nil, logger); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
