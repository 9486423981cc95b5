package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"nearcast/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "nearcast.db", cfg.Database.Path)
	assert.Equal(t, 20, cfg.Feed.DefaultLimit)
	assert.Equal(t, 50, cfg.Feed.MaxLimit)
	assert.Equal(t, 200, cfg.Feed.OverfetchLimit)
	assert.Equal(t, 90, cfg.Database.RetentionDays)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nearcast.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 8080
hostname = "feed.example.com"

[database]
path = "/var/lib/nearcast/feed.db"

[feed]
overfetch_limit = 400
`), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "feed.example.com", cfg.Server.Hostname)
	assert.Equal(t, "/var/lib/nearcast/feed.db", cfg.Database.Path)
	assert.Equal(t, 400, cfg.Feed.OverfetchLimit)

	// unset fields keep their defaults
	assert.Equal(t, 20, cfg.Feed.DefaultLimit)
	assert.Equal(t, 90, cfg.Database.RetentionDays)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig("/does/not/exist.toml")
	assert.Error(t, err)
}
