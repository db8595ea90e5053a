package search

import (
	"time"

	"github.com/bastiangx/palette/pkg/cache"
	"github.com/bastiangx/palette/pkg/config"
)

// Options tunes the search policy.
type Options struct {
	DefaultLimit   int
	MaxLimit       int
	ShortQueryLen  int
	SingleCharCap  int
	CacheTTL       time.Duration
	TrieMaxDepth   int
	TrieMaxResults int

	// Clock drives both result caches. Nil means time.Now.
	Clock cache.Clock
}

// DefaultOptions mirrors config.DefaultConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

// OptionsFromConfig maps the [search] and [trie] sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DefaultLimit:   cfg.Search.DefaultLimit,
		MaxLimit:       cfg.Search.MaxLimit,
		ShortQueryLen:  cfg.Search.ShortQueryLen,
		SingleCharCap:  cfg.Search.SingleCharCap,
		CacheTTL:       cfg.Search.CacheTTL(),
		TrieMaxDepth:   cfg.Trie.MaxDepth,
		TrieMaxResults: cfg.Trie.MaxResults,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = def.DefaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = def.MaxLimit
	}
	if o.ShortQueryLen <= 0 {
		o.ShortQueryLen = def.ShortQueryLen
	}
	if o.SingleCharCap <= 0 {
		o.SingleCharCap = def.SingleCharCap
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = def.CacheTTL
	}
	if o.TrieMaxDepth <= 0 {
		o.TrieMaxDepth = def.TrieMaxDepth
	}
	if o.TrieMaxResults <= 0 {
		o.TrieMaxResults = def.TrieMaxResults
	}
	return o
}

// clampLimit applies the default for non-positive limits and the max cap.
func (o Options) clampLimit(limit int) int {
	if limit <= 0 {
		limit = o.DefaultLimit
	}
	if limit > o.MaxLimit {
		limit = o.MaxLimit
	}
	return limit
}
