package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database     DatabaseConfig
	LLM          LLMConfig
	Intelligence IntelligenceConfig
	Log          LogConfig
}

// DatabaseConfig holds sqlite settings. An empty Migrations uses the
// migrations compiled into the binary.
type DatabaseConfig struct {
	Path       string
	Migrations string
}

// LLMConfig holds provider settings.
type LLMConfig struct {
	Provider  string
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
	Model     string
	FastModel string `mapstructure:"fast_model"`
	Timeout   time.Duration
}

// IntelligenceConfig tunes the daily pipeline.
type IntelligenceConfig struct {
	HistoryWindow     int  `mapstructure:"history_window"`
	PersistInsights   bool `mapstructure:"persist_insights"`
	MemoryMinLogs     int  `mapstructure:"memory_min_logs"`
	BriefingMinLogs   int  `mapstructure:"briefing_min_logs"`
	ChronotypeMinLogs int  `mapstructure:"chronotype_min_logs"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Development bool
}

// Path returns the config file location: $AURA_CONFIG or the per-user default.
func Path() string {
	if p := os.Getenv("AURA_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "aura", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix AURA_.
func Load() (Config, error) {
	return LoadFile(os.Getenv("AURA_CONFIG"))
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default location; a missing file is not an error.
func LoadFile(cfgPath string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "aura", "aura.db"))
	v.SetDefault("database.migrations", "")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-3-pro-preview")
	v.SetDefault("llm.fast_model", "gemini-3-flash-preview")
	v.SetDefault("llm.timeout", "20s")
	v.SetDefault("intelligence.history_window", 14)
	v.SetDefault("intelligence.persist_insights", true)
	v.SetDefault("intelligence.memory_min_logs", 7)
	v.SetDefault("intelligence.briefing_min_logs", 7)
	v.SetDefault("intelligence.chronotype_min_logs", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetConfigType("toml")

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "aura"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("AURA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	switch c.LLM.Provider {
	case "gemini", "offline":
	default:
		return Config{}, fmt.Errorf("llm.provider must be gemini or offline, got %q", c.LLM.Provider)
	}
	return c, nil
}

// ResolveAPIKey returns the provider key: the env var named by APIKeyEnv, then the
// secret store lookup, then the plain config value.
func (c LLMConfig) ResolveAPIKey(fromStore func(provider string) (string, error)) string {
	if c.APIKeyEnv != "" {
		if k := strings.TrimSpace(os.Getenv(c.APIKeyEnv)); k != "" {
			return k
		}
	}
	if fromStore != nil {
		if k, err := fromStore(c.Provider); err == nil && strings.TrimSpace(k) != "" {
			return strings.TrimSpace(k)
		}
	}
	return strings.TrimSpace(c.APIKey)
}

// Save writes the provided config to disk, creating the config directory if needed.
// The API key is stored in plain text in the config file; prefer env vars or the key store.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile is Save with an explicit destination.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations", cfg.Database.Migrations)
	v.Set("llm.provider", cfg.LLM.Provider)
	v.Set("llm.api_key_env", cfg.LLM.APIKeyEnv)
	v.Set("llm.api_key", cfg.LLM.APIKey)
	v.Set("llm.model", cfg.LLM.Model)
	v.Set("llm.fast_model", cfg.LLM.FastModel)
	v.Set("llm.timeout", cfg.LLM.Timeout.String())
	v.Set("intelligence.history_window", cfg.Intelligence.HistoryWindow)
	v.Set("intelligence.persist_insights", cfg.Intelligence.PersistInsights)
	v.Set("intelligence.memory_min_logs", cfg.Intelligence.MemoryMinLogs)
	v.Set("intelligence.briefing_min_logs", cfg.Intelligence.BriefingMinLogs)
	v.Set("intelligence.chronotype_min_logs", cfg.Intelligence.ChronotypeMinLogs)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.development", cfg.Log.Development)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
