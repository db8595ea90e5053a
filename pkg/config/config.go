/*
Package config manages TOML config for the palette services.
*/
package config

import (
	"time"

	"github.com/bastiangx/palette/internal/utils"
	"github.com/charmbracelet/log"
)

// FileName is the config file name inside the config dir.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Trie    TrieConfig    `toml:"trie"`
	Prefs   PrefsConfig   `toml:"prefs"`
	Sources SourcesConfig `toml:"sources"`
	Server  ServerConfig  `toml:"server"`
}

// SearchConfig tunes the query policy.
type SearchConfig struct {
	DefaultLimit   int `toml:"default_limit"`
	MaxLimit       int `toml:"max_limit"`
	ShortQueryLen  int `toml:"short_query_len"`
	SingleCharCap  int `toml:"single_char_cap"`
	CacheTTLMillis int `toml:"cache_ttl_ms"`
}

// CacheTTL returns the result cache TTL.
func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMillis) * time.Millisecond
}

// TrieConfig bounds prefix lookups.
type TrieConfig struct {
	MaxDepth   int `toml:"max_depth"`
	MaxResults int `toml:"max_results"`
}

// PrefsConfig controls the preference store.
type PrefsConfig struct {
	File      string `toml:"file"`
	MaxRecent int    `toml:"max_recent"`
}

// SourcesConfig names the command and pipeline data files.
type SourcesConfig struct {
	Commands  string `toml:"commands"`
	Pipelines string `toml:"pipelines"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxQueryLen int `toml:"max_query_len"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			DefaultLimit:   10,
			MaxLimit:       50,
			ShortQueryLen:  3,
			SingleCharCap:  20,
			CacheTTLMillis: 3000,
		},
		Trie: TrieConfig{
			MaxDepth:   16,
			MaxResults: 50,
		},
		Prefs: PrefsConfig{
			File:      "prefs.toml",
			MaxRecent: 10,
		},
		Sources: SourcesConfig{
			Commands:  "commands.yaml",
			Pipelines: "pipelines.yaml",
		},
		Server: ServerConfig{
			MaxQueryLen: 256,
		},
	}
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [ConfigDir]/palette/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string, pr *utils.PathResolver) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			cfg, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return cfg, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
		}
	}
	if pr == nil {
		return DefaultConfig(), "", nil
	}

	defaultPath, err := pr.GetConfigPath(FileName)
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	cfg, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return cfg, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	if !utils.FileExists(configPath) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return cfg, nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return cfg, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. A file that fails typed decoding is
// retried section by section, keeping defaults for anything unreadable.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, cfg); err != nil {
		return tryPartialParse(configPath)
	}
	cfg.normalize()
	return cfg, nil
}

func tryPartialParse(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return cfg, nil
	}

	if section, ok := utils.ExtractSection(raw, "search"); ok {
		extractSearchConfig(section, &cfg.Search)
	}
	if section, ok := utils.ExtractSection(raw, "trie"); ok {
		extractTrieConfig(section, &cfg.Trie)
	}
	if section, ok := utils.ExtractSection(raw, "prefs"); ok {
		extractPrefsConfig(section, &cfg.Prefs)
	}
	if section, ok := utils.ExtractSection(raw, "sources"); ok {
		extractSourcesConfig(section, &cfg.Sources)
	}
	if section, ok := utils.ExtractSection(raw, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_query_len"); ok {
			cfg.Server.MaxQueryLen = val
		}
	}
	cfg.normalize()
	return cfg, nil
}

func extractSearchConfig(data map[string]any, s *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		s.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		s.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "short_query_len"); ok {
		s.ShortQueryLen = val
	}
	if val, ok := utils.ExtractInt64(data, "single_char_cap"); ok {
		s.SingleCharCap = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_ttl_ms"); ok {
		s.CacheTTLMillis = val
	}
}

func extractTrieConfig(data map[string]any, t *TrieConfig) {
	if val, ok := utils.ExtractInt64(data, "max_depth"); ok {
		t.MaxDepth = val
	}
	if val, ok := utils.ExtractInt64(data, "max_results"); ok {
		t.MaxResults = val
	}
}

func extractPrefsConfig(data map[string]any, p *PrefsConfig) {
	if val, ok := utils.ExtractString(data, "file"); ok {
		p.File = val
	}
	if val, ok := utils.ExtractInt64(data, "max_recent"); ok {
		p.MaxRecent = val
	}
}

func extractSourcesConfig(data map[string]any, s *SourcesConfig) {
	if val, ok := utils.ExtractString(data, "commands"); ok {
		s.Commands = val
	}
	if val, ok := utils.ExtractString(data, "pipelines"); ok {
		s.Pipelines = val
	}
}

// normalize replaces non-positive numbers with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	fix := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	fix(&c.Search.DefaultLimit, def.Search.DefaultLimit)
	fix(&c.Search.MaxLimit, def.Search.MaxLimit)
	fix(&c.Search.ShortQueryLen, def.Search.ShortQueryLen)
	fix(&c.Search.SingleCharCap, def.Search.SingleCharCap)
	fix(&c.Search.CacheTTLMillis, def.Search.CacheTTLMillis)
	fix(&c.Trie.MaxDepth, def.Trie.MaxDepth)
	fix(&c.Trie.MaxResults, def.Trie.MaxResults)
	fix(&c.Prefs.MaxRecent, def.Prefs.MaxRecent)
	fix(&c.Server.MaxQueryLen, def.Server.MaxQueryLen)
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		c.Search.DefaultLimit = c.Search.MaxLimit
	}
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	return utils.GetAbsolutePath(configPath)
}
