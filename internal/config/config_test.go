package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://www.amazon.com", cfg.BaseURL)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, 15*time.Second, cfg.PageLoadTimeout)
	assert.Equal(t, 10, cfg.MaxScrolls)
	assert.Equal(t, 500*time.Millisecond, cfg.ScrollPause)
	assert.Equal(t, 2*time.Second, cfg.SettleWait)
	assert.Equal(t, "products", cfg.TableName)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Backoff)
	assert.True(t, cfg.Headless)
	assert.Equal(t, `div[role="listitem"]`, cfg.ItemSelector)
	assert.Equal(t, "a.s-pagination-next", cfg.NextSelector)
	assert.Empty(t, cfg.Keywords)
	assert.Equal(t, 24*time.Hour, cfg.DeduplicationWindow())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_PAGES", "2")
	t.Setenv("RETRY_DELAY", "750ms")
	t.Setenv("BACKOFF", "true")
	t.Setenv("KEYWORDS", "desk lamp, monitor arm ,")
	t.Setenv("PROXIES", "http://p1:8000,http://p2:8000")
	t.Setenv("USER_AGENTS", "Mozilla/5.0 (X11, Linux)|curl/8.0")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxPages)
	assert.Equal(t, 750*time.Millisecond, cfg.RetryDelay)
	assert.True(t, cfg.Backoff)
	assert.Equal(t, []string{"desk lamp", "monitor arm"}, cfg.Keywords)
	assert.Equal(t, []string{"http://p1:8000", "http://p2:8000"}, cfg.Proxies)
	assert.Equal(t, []string{"Mozilla/5.0 (X11, Linux)", "curl/8.0"}, cfg.UserAgentList())
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OUTPUT_FILE=out.csv\nTABLE_NAME=items\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "out.csv", cfg.OutputFile)
	assert.Equal(t, "items", cfg.TableName)
}

func TestLoad_FlagsTakePrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_PAGES", "4")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-pages", 5, "")
	flags.String("output", "", "")
	require.NoError(t, flags.Parse([]string{"--max-pages=1", "--output=items.json"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxPages)
	assert.Equal(t, "items.json", cfg.OutputFile)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("", nil)
	require.NoError(t, err)

	cfg.MaxPages = 0
	cfg.MaxRetries = 0
	cfg.RetryDelay = -time.Second
	cfg.TableName = " "

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_PAGES")
	assert.Contains(t, err.Error(), "MAX_RETRIES")
	assert.Contains(t, err.Error(), "RETRY_DELAY")
	assert.Contains(t, err.Error(), "TABLE_NAME")
}
