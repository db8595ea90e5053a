package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[search]
default_limit = 5
cache_ttl_ms = 500

[trie]
max_depth = 4

[sources]
pipelines = "ci.json"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.CacheTTL())
	assert.Equal(t, 4, cfg.Trie.MaxDepth)
	assert.Equal(t, 50, cfg.Trie.MaxResults)
	assert.Equal(t, "ci.json", cfg.Sources.Pipelines)
	assert.Equal(t, "commands.yaml", cfg.Sources.Commands)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	// max_limit has the wrong type, so typed decoding fails.
	require.NoError(t, os.WriteFile(path, []byte(`
[search]
default_limit = 7
max_limit = "lots"

[prefs]
max_recent = 3
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxLimit)
	assert.Equal(t, 3, cfg.Prefs.MaxRecent)
}

func TestLoadConfigGarbageFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[[[ not toml"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestNormalize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.DefaultLimit = 500
	cfg.Trie.MaxDepth = -1
	cfg.normalize()

	assert.Equal(t, cfg.Search.MaxLimit, cfg.Search.DefaultLimit)
	assert.Equal(t, 16, cfg.Trie.MaxDepth)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nmax_query_len = 64\n"), 0o644))

	cfg, used, err := LoadConfigWithPriority(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 64, cfg.Server.MaxQueryLen)

	cfg, used, err = LoadConfigWithPriority(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, DefaultConfig(), cfg)
}
