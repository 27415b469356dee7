package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
browser:
  stealth: true
collector:
  interval: 150ms
  result_size: 25
filters:
  max_price: "1.5"
  currency: ETH
telegram:
  allowed_user_ids: [1, 2]
`)
	writeFile(t, filepath.Join(dir, "config.local.yaml"), `
collector:
  result_size: 40
database:
  url: postgres://local/nft
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Stealth)
	assert.Equal(t, 150*time.Millisecond, cfg.Collector.Interval)
	assert.Equal(t, 40, cfg.Collector.ResultSize)
	assert.Equal(t, 700, cfg.Collector.ScrollDelta, "unset values keep their defaults")
	assert.Equal(t, "1.5", cfg.Filters.MaxPrice)
	assert.Equal(t, []int64{1, 2}, cfg.Telegram.AllowedUserIDs)
	assert.Equal(t, "postgres://local/nft", cfg.Database.URL)
	assert.Equal(t, `.data.query.search.edges`, cfg.Stream.OfferEdgesPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/nft")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_ALLOWED_USERS", "10, 20")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/nft", cfg.Database.URL)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, []int64{10, 20}, cfg.Telegram.AllowedUserIDs)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "collector: [not, a, map]")

	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("TELEGRAM_ALLOWED_USERS", "ten")
	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, "conf/config.local.yaml", localPath("conf/config.yaml"))
	assert.Equal(t, "config.local", localPath("config"))
	assert.Equal(t, "", localPath(""))
}
