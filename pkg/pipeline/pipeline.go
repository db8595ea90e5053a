// Package pipeline holds pipeline records and the snapshot provider that
// serves them to search.
//
// A snapshot is immutable once published: Refresh fetches a whole new list
// from the Source and swaps it in. Readers always receive a copy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/internal/utils"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// ErrNoSource is returned by Refresh when the provider has no source.
var ErrNoSource = errors.New("pipeline: no source configured")

// Pipeline is a searchable record identified by (Organization, Slug).
type Pipeline struct {
	Organization string `yaml:"organization" json:"organization" msgpack:"org"`
	Slug         string `yaml:"slug" json:"slug" msgpack:"slug"`
	Name         string `yaml:"name" json:"name" msgpack:"name"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty" msgpack:"desc,omitempty"`
	Emoji        string `yaml:"emoji,omitempty" json:"emoji,omitempty" msgpack:"emoji,omitempty"`
	Reliability  string `yaml:"reliability,omitempty" json:"reliability,omitempty" msgpack:"reliability,omitempty"`
	Speed        string `yaml:"speed,omitempty" json:"speed,omitempty" msgpack:"speed,omitempty"`
}

// Key returns "organization/slug", the composite identity and full path.
func (p Pipeline) Key() string {
	return p.Organization + "/" + p.Slug
}

// Validate checks the identity fields.
func (p Pipeline) Validate() error {
	if p.Organization == "" || p.Slug == "" {
		return fmt.Errorf("pipeline %q: organization and slug are required", p.Name)
	}
	return nil
}

// Suggestion is a scored pipeline. Scores are non-increasing within a list.
type Suggestion struct {
	Pipeline Pipeline
	Score    float64
}

// Source fetches the full pipeline list.
type Source interface {
	Fetch(ctx context.Context) ([]Pipeline, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Pipeline, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]Pipeline, error) { return f(ctx) }

// Stats describes the current snapshot.
type Stats struct {
	Pipelines   int
	Refreshes   int
	Failures    int
	LastRefresh time.Time
}

// Provider owns the current pipeline snapshot.
type Provider struct {
	source Source
	log    *log.Logger
	group  singleflight.Group

	mu        sync.RWMutex
	snapshot  []Pipeline
	loaded    bool
	stats     Stats
	listeners []func()
}

// NewProvider creates a provider backed by source.
func NewProvider(source Source, l *log.Logger) *Provider {
	return &Provider{
		source: source,
		log:    logger.OrDefault(l, "pipeline"),
	}
}

// Pipelines returns a copy of the current snapshot. It may be empty until
// the first successful fetch.
func (p *Provider) Pipelines() []Pipeline {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Pipeline, len(p.snapshot))
	copy(out, p.snapshot)
	return out
}

// OnRefresh registers fn to run after every published snapshot.
func (p *Provider) OnRefresh(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// EnsureLoaded fetches once when no snapshot has been published yet.
// Concurrent callers share a single fetch.
func (p *Provider) EnsureLoaded(ctx context.Context) error {
	p.mu.RLock()
	loaded := p.loaded
	p.mu.RUnlock()
	if loaded {
		return nil
	}
	return p.Refresh(ctx)
}

// Refresh fetches a new list and publishes it. Records missing their
// identity fields or duplicating an earlier (organization, slug) pair are
// dropped with a warning. On failure the previous snapshot stays in place.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.source == nil {
		return ErrNoSource
	}

	_, err, _ := p.group.Do("refresh", func() (any, error) {
		fetched, err := p.source.Fetch(ctx)
		if err != nil {
			p.mu.Lock()
			p.stats.Failures++
			p.mu.Unlock()
			return nil, fmt.Errorf("fetch pipelines: %w", err)
		}
		p.publish(p.sanitize(fetched))
		return nil, nil
	})
	return err
}

// Replace publishes pipelines directly, bypassing the source.
func (p *Provider) Replace(pipelines []Pipeline) {
	p.publish(p.sanitize(pipelines))
}

func (p *Provider) sanitize(in []Pipeline) []Pipeline {
	out := make([]Pipeline, 0, len(in))
	seen := utils.NewKeyFilter(len(in))
	for _, pl := range in {
		if err := pl.Validate(); err != nil {
			p.log.Warn("skipping pipeline", "err", err)
			continue
		}
		key := pl.Key()
		if !seen.ShouldInclude(key) {
			p.log.Warn("skipping duplicate pipeline", "key", key)
			continue
		}
		out = append(out, pl)
	}
	return out
}

func (p *Provider) publish(pipelines []Pipeline) {
	p.mu.Lock()
	p.snapshot = pipelines
	p.loaded = true
	p.stats.Pipelines = len(pipelines)
	p.stats.Refreshes++
	p.stats.LastRefresh = time.Now()
	listeners := make([]func(), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	p.log.Debug("pipeline snapshot published", "count", len(pipelines))
	for _, fn := range listeners {
		fn()
	}
}

// Stats returns snapshot counters.
func (p *Provider) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}
