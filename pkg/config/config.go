package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents the application configuration
type Config struct {
	LLMProvider    string    `json:"llm_provider"`
	API            APIConfig `json:"provider"`
	MaxTurns       int       `json:"max_turns"`
	OutputDir      string    `json:"output_dir"`
	AnalysisTokens bool      `json:"analysis_tokens"`
	DryRun         bool      `json:"dry_run"`
	LogLevel       string    `json:"log_level"`
	LogFormat      string    `json:"log_format"`
	LogFile        string    `json:"log_file"`
}

// APIConfig holds the chat completion endpoint settings. The API key is not
// stored here; see package credentials.
type APIConfig struct {
	APIURL            string `json:"api_url"`
	Model             string `json:"model"`
	APITimeoutSeconds int    `json:"api_timeout_seconds"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		LLMProvider: "xai",
		API: APIConfig{
			APIURL:            "",
			Model:             "grok-3",
			APITimeoutSeconds: 120,
		},
		MaxTurns:       50,
		OutputDir:      ".",
		AnalysisTokens: true,
		DryRun:         false,
		LogLevel:       "info",
		LogFormat:      "json",
		LogFile:        "",
	}
}

// Load loads configuration from the specified path.
// If the file doesn't exist, creates one with default values.
// Fields missing from the file keep their defaults, and environment
// variables override both.
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Save(configPath, cfg); err != nil {
			return Config{}, fmt.Errorf("failed to create default config: %w", err)
		}
		slog.Debug("config_default_created", "path", configPath)
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return applyEnvironmentOverrides(cfg), nil
}

// applyEnvironmentOverrides applies ATTRACTOR_* variables. Invalid values are ignored.
func applyEnvironmentOverrides(cfg Config) Config {
	if provider := os.Getenv("ATTRACTOR_PROVIDER"); provider != "" {
		cfg.LLMProvider = strings.ToLower(provider)
	}

	if apiURL := os.Getenv("ATTRACTOR_API_URL"); apiURL != "" {
		cfg.API.APIURL = apiURL
	}

	if model := os.Getenv("ATTRACTOR_MODEL"); model != "" {
		cfg.API.Model = model
	}

	if timeoutStr := os.Getenv("ATTRACTOR_API_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil && timeout > 0 {
			cfg.API.APITimeoutSeconds = timeout
		}
	}

	if turnsStr := os.Getenv("ATTRACTOR_MAX_TURNS"); turnsStr != "" {
		if turns, err := strconv.Atoi(turnsStr); err == nil && turns > 0 {
			cfg.MaxTurns = turns
		}
	}

	if dir := os.Getenv("ATTRACTOR_OUTPUT_DIR"); dir != "" {
		cfg.OutputDir = dir
	}

	if dryRunEnv := os.Getenv("ATTRACTOR_DRY_RUN"); dryRunEnv != "" {
		if dryRun, err := strconv.ParseBool(dryRunEnv); err == nil {
			cfg.DryRun = dryRun
		}
	}

	if logLevel := strings.ToLower(os.Getenv("ATTRACTOR_LOG_LEVEL")); logLevel != "" {
		if contains(logLevels, logLevel) {
			cfg.LogLevel = logLevel
		}
	}

	return cfg
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid. The llm_provider name is
// checked against the provider registry when the provider is built.
func (c Config) Validate() error {
	if c.API.APIURL != "" {
		u, err := url.Parse(c.API.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api_url must be an absolute URL, got: %q", c.API.APIURL)
		}
	}

	if strings.TrimSpace(c.API.Model) == "" {
		return fmt.Errorf("model is required")
	}

	if c.API.APITimeoutSeconds <= 0 {
		return fmt.Errorf("api_timeout_seconds must be positive, got: %d", c.API.APITimeoutSeconds)
	}

	if c.MaxTurns <= 0 {
		return fmt.Errorf("max_turns must be positive, got: %d", c.MaxTurns)
	}

	if c.LogLevel != "" && !contains(logLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".attractor", "config.json")
	}
	return filepath.Join(homeDir, ".attractor", "config.json")
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
