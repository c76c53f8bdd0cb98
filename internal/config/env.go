package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv reads a .env file and returns a map of key-value pairs.
// It ignores comments (starting with #) and empty lines.
func LoadEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove inline comments
		if idx := strings.Index(value, " #"); idx != -1 {
			value = strings.TrimSpace(value[:idx])
		}

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		env[key] = value
	}

	return env, scanner.Err()
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	// Server
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	// Storage
	if val, ok := env["DB_PATH"]; ok && val != "" {
		cfg.Storage.Path = val
	}

	// Game
	if val, ok := env["DRAW_POLICY"]; ok {
		cfg.Game.Policy = val
	}
	if val, ok := env["GENERATOR_STRATEGY"]; ok {
		cfg.Game.Strategy = val
	}
	if d, ok := envDuration(env, "SPIN_MIN"); ok {
		cfg.Game.SpinMin = d
	}
	if d, ok := envDuration(env, "SPIN_MAX"); ok {
		cfg.Game.SpinMax = d
	}

	// Notifier
	if val, ok := env["NOTIFIER"]; ok {
		var use []string
		for _, name := range strings.Split(val, ",") {
			if name = strings.TrimSpace(name); name != "" {
				use = append(use, name)
			}
		}
		cfg.Notifier.Use = use
	}
	if d, ok := envDuration(env, "NOTIFY_TIMEOUT"); ok {
		cfg.Notifier.Timeout = d
	}
	if val, ok := env["EMAILJS_SERVICE_ID"]; ok {
		cfg.Notifier.EmailJS.ServiceID = val
	}
	if val, ok := env["EMAILJS_TEMPLATE_ID"]; ok {
		cfg.Notifier.EmailJS.TemplateID = val
	}
	if val, ok := env["EMAILJS_USER_ID"]; ok {
		cfg.Notifier.EmailJS.UserID = val
	}
	if val, ok := env["EMAILJS_ACCESS_TOKEN"]; ok {
		cfg.Notifier.EmailJS.AccessToken = val
	}
}

// envDuration accepts either whole seconds ("3") or a Go duration ("1500ms").
func envDuration(env map[string]string, key string) (time.Duration, bool) {
	val, ok := env[key]
	if !ok {
		return 0, false
	}
	if seconds, err := strconv.Atoi(val); err == nil {
		return time.Duration(seconds) * time.Second, true
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d, true
	}
	return 0, false
}
