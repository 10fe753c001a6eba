package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AURA_CONFIG", "")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.LLM.Provider)
	assert.Equal(t, "GEMINI_API_KEY", c.LLM.APIKeyEnv)
	assert.Equal(t, "gemini-3-pro-preview", c.LLM.Model)
	assert.Equal(t, "gemini-3-flash-preview", c.LLM.FastModel)
	assert.Equal(t, 20*time.Second, c.LLM.Timeout)
	assert.Equal(t, 14, c.Intelligence.HistoryWindow)
	assert.True(t, c.Intelligence.PersistInsights)
	assert.Equal(t, 7, c.Intelligence.MemoryMinLogs)
	assert.Equal(t, 5, c.Intelligence.ChronotypeMinLogs)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".local", "share", "aura", "aura.db"), c.Database.Path)
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "cfg", "config.toml")
	t.Setenv("AURA_CONFIG", path)

	c, err := Load()
	require.NoError(t, err)
	c.LLM.Provider = "offline"
	c.LLM.Timeout = 5 * time.Second
	c.Intelligence.HistoryWindow = 21
	c.Log.Level = "debug"
	require.NoError(t, Save(c))

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "offline", got.LLM.Provider)
	assert.Equal(t, 5*time.Second, got.LLM.Timeout)
	assert.Equal(t, 21, got.Intelligence.HistoryWindow)
	assert.Equal(t, "debug", got.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AURA_CONFIG", "")
	t.Setenv("AURA_LLM_PROVIDER", "offline")
	t.Setenv("AURA_INTELLIGENCE_HISTORY_WINDOW", "30")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "offline", c.LLM.Provider)
	assert.Equal(t, 30, c.Intelligence.HistoryWindow)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AURA_CONFIG", "")
	t.Setenv("AURA_LLM_PROVIDER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

func TestResolveAPIKeyOrder(t *testing.T) {
	t.Setenv("AURA_TEST_KEY", "")
	c := LLMConfig{Provider: "gemini", APIKeyEnv: "AURA_TEST_KEY", APIKey: "from-config"}
	store := func(string) (string, error) { return "from-store", nil }
	missing := func(string) (string, error) { return "", errors.New("key not found") }

	assert.Equal(t, "from-config", c.ResolveAPIKey(missing))
	assert.Equal(t, "from-store", c.ResolveAPIKey(store))

	t.Setenv("AURA_TEST_KEY", " from-env ")
	assert.Equal(t, "from-env", c.ResolveAPIKey(store))
}
