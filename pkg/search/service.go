// Package search ranks commands and pipelines for a palette query.
//
// Service is the orchestrator: it owns the prefix index and both result
// caches, and consults the alias resolver and pipeline provider it is built
// with. All state swaps are atomic, so a search always reads one consistent
// index.
package search

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/internal/utils"
	"github.com/bastiangx/palette/pkg/alias"
	"github.com/bastiangx/palette/pkg/cache"
	"github.com/bastiangx/palette/pkg/command"
	"github.com/bastiangx/palette/pkg/pipeline"
	"github.com/bastiangx/palette/pkg/score"
	"github.com/bastiangx/palette/pkg/trie"
	"github.com/charmbracelet/log"
)

// EmptyQueryScore is the score given to every entry of an empty query.
const EmptyQueryScore = 1

// Prefs is the slice of the preference store the service writes to.
type Prefs interface {
	RecordUsage(commandID string) error
	AddRecent(query string) error
}

// Deps are the collaborators of a Service. Registry is required; the rest
// may be nil.
type Deps struct {
	Registry  *command.Registry
	Aliases   alias.Store
	Pipelines *pipeline.Provider
	Prefs     Prefs
	Logger    *log.Logger
}

// ExecOptions controls ExecuteCommand.
type ExecOptions struct {
	SkipUsage bool
}

type index struct {
	trie *trie.Trie[*command.Command]
	// version is the registry version the trie was built from.
	version uint64
}

// Service answers palette queries.
type Service struct {
	registry  *command.Registry
	resolver  *alias.Resolver
	pipelines *pipeline.Provider
	prefs     Prefs
	opts      Options
	log       *log.Logger

	rebuildMu     sync.Mutex
	index         atomic.Pointer[index]
	commandCache  *cache.Cache[[]command.Match]
	pipelineCache *cache.Cache[[]pipeline.Suggestion]
	scoreCalls    atomic.Int64
}

// New wires a Service. Alias-store change notifications and pipeline
// refreshes are subscribed to when the collaborators support them.
func New(deps Deps, opts Options) *Service {
	opts = opts.withDefaults()
	l := logger.OrDefault(deps.Logger, "search")

	pipelines := deps.Pipelines
	if pipelines == nil {
		pipelines = pipeline.NewProvider(nil, l)
	}

	s := &Service{
		registry:      deps.Registry,
		resolver:      alias.NewResolver(deps.Aliases, deps.Registry, l),
		pipelines:     pipelines,
		prefs:         deps.Prefs,
		opts:          opts,
		log:           l,
		commandCache:  cache.New[[]command.Match](opts.CacheTTL, opts.Clock),
		pipelineCache: cache.New[[]pipeline.Suggestion](opts.CacheTTL, opts.Clock),
	}

	if n, ok := deps.Aliases.(interface{ OnAliasesChanged(func()) }); ok {
		n.OnAliasesChanged(func() {
			if err := s.RefreshAliases(context.Background()); err != nil {
				s.log.Warn("alias refresh after change failed", "err", err)
			}
		})
	}
	pipelines.OnRefresh(s.pipelineCache.InvalidateAll)
	return s
}

// Resolver exposes the alias resolver.
func (s *Service) Resolver() *alias.Resolver { return s.resolver }

// Pipelines exposes the pipeline provider.
func (s *Service) Pipelines() *pipeline.Provider { return s.pipelines }

// Registry exposes the command registry.
func (s *Service) Registry() *command.Registry { return s.registry }

// RefreshAliases reloads aliases, rebuilds the prefix index off to the side,
// swaps it in and drops every cached result. Alias load failures leave an
// empty alias set; the error is returned for logging.
func (s *Service) RefreshAliases(ctx context.Context) error {
	err := s.resolver.Refresh(ctx)
	s.rebuild()
	return err
}

func (s *Service) rebuild() {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	version := s.registry.Version()
	t := trie.New(func(c *command.Command) string { return c.ID },
		trie.WithMaxDepth(s.opts.TrieMaxDepth),
		trie.WithMaxResults(s.opts.TrieMaxResults),
	)
	for _, c := range s.registry.All() {
		for _, key := range c.IndexKeys() {
			t.Insert(key, c)
		}
	}
	for _, a := range s.resolver.Aliases() {
		if c, ok := s.registry.GetByID(a.CommandID); ok {
			t.Insert(a.Name, c)
		}
	}

	s.index.Store(&index{trie: t, version: version})
	s.commandCache.InvalidateAll()
	s.pipelineCache.InvalidateAll()
	s.log.Debug("search index rebuilt", "keys", t.Len(), "registry_version", version)
}

// ensureIndex loads aliases on first use and rebuilds the index when the
// registry changed since the last build.
func (s *Service) ensureIndex(ctx context.Context) {
	if !s.resolver.Loaded() {
		_ = s.RefreshAliases(ctx)
	}
	if idx := s.index.Load(); idx == nil || idx.version != s.registry.Version() {
		s.rebuild()
	}
}

// SearchCommands ranks available commands against query.
func (s *Service) SearchCommands(ctx context.Context, query string, limit int) []command.Match {
	limit = s.opts.clampLimit(limit)
	s.ensureIndex(ctx)

	q := utils.NormalizeQuery(query)
	if q == "" {
		return s.allCommands(limit)
	}

	if cached, ok := s.commandCache.Get(q); ok {
		return truncate(stillAvailable(cached), limit)
	}
	// Read the generation before the index: a rebuild stores the index
	// first and bumps the generation second.
	gen := s.commandCache.Generation()
	idx := s.index.Load()

	text := q
	if strings.HasPrefix(q, alias.DirectPrefix) {
		if m, ok := s.resolver.Resolve(q); ok {
			results := []command.Match{m}
			s.commandCache.PutIfCurrent(gen, q, results)
			return truncate(results, limit)
		}
		// Unresolved references rank the identifier alone; trailing input
		// only means something once a command is picked.
		if identifier, _, ok := alias.ParseDirect(q); ok {
			text = identifier
		} else {
			text = strings.TrimSpace(strings.TrimPrefix(q, alias.DirectPrefix))
		}
		if text == "" {
			return s.allCommands(limit)
		}
	}

	results := s.rank(idx, text)
	s.commandCache.PutIfCurrent(gen, q, results)
	return truncate(results, limit)
}

// stillAvailable drops cached matches whose command has since become
// unavailable. Availability is never cached.
func stillAvailable(ms []command.Match) []command.Match {
	out := make([]command.Match, 0, len(ms))
	for _, m := range ms {
		if m.Command.IsAvailable() {
			out = append(out, m)
		}
	}
	return out
}

func (s *Service) allCommands(limit int) []command.Match {
	avail := s.registry.ListAvailable()
	out := make([]command.Match, 0, min(limit, len(avail)))
	for _, c := range avail {
		if len(out) == limit {
			break
		}
		out = append(out, command.Match{Command: c, Score: EmptyQueryScore})
	}
	return out
}

func (s *Service) rank(idx *index, text string) []command.Match {
	lq := strings.ToLower(text)

	var candidates []*command.Command
	switch n := utils.RuneLen(lq); {
	case n == 1:
		candidates = s.singleCharCandidates(lq)
	case n <= s.opts.ShortQueryLen:
		candidates = s.trieCandidates(idx, lq)
	default:
		candidates = s.registry.ListAvailable()
	}

	results := make([]command.Match, 0, len(candidates))
	pos := make(map[string]int, len(candidates))
	for _, c := range candidates {
		s.scoreCalls.Add(1)
		sc := score.CommandMatchScore(c.Candidate(), text)
		if sc <= 0 {
			continue
		}
		pos[c.ID] = len(results)
		results = append(results, command.Match{Command: c, Score: sc})
	}

	for _, m := range s.resolver.ScoreAll(text) {
		if i, ok := pos[m.Command.ID]; ok {
			if m.Score > results[i].Score {
				results[i] = m
			}
			continue
		}
		pos[m.Command.ID] = len(results)
		results = append(results, m)
	}

	slices.SortStableFunc(results, func(a, b command.Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results
}

// singleCharCandidates walks available commands in registry order and keeps
// those with an index key starting with ch, up to the configured cap.
func (s *Service) singleCharCandidates(ch string) []*command.Command {
	var out []*command.Command
	for _, c := range s.registry.ListAvailable() {
		if len(out) >= s.opts.SingleCharCap {
			break
		}
		for _, key := range c.IndexKeys() {
			if strings.HasPrefix(key, ch) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// trieCandidates returns available commands reachable from the prefix, in
// registry order.
func (s *Service) trieCandidates(idx *index, prefix string) []*command.Command {
	hits := idx.trie.Search(prefix)
	if len(hits) == 0 {
		return nil
	}
	ids := utils.NewKeyFilter(len(hits))
	for _, c := range hits {
		ids.ShouldInclude(c.ID)
	}

	var out []*command.Command
	for _, c := range s.registry.ListAvailable() {
		if ids.Seen(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

var pipelineFields = []score.Field[pipeline.Pipeline]{
	{Name: "name", Get: func(p pipeline.Pipeline) string { return p.Name }, Weight: 1.0},
	{Name: "slug", Get: func(p pipeline.Pipeline) string { return p.Slug }, Weight: 0.9},
	{Name: "organization", Get: func(p pipeline.Pipeline) string { return p.Organization }, Weight: 0.6},
	{Name: "description", Get: func(p pipeline.Pipeline) string { return p.Description }, Weight: 0.4},
	{Name: "path", Get: pipeline.Pipeline.Key, Weight: 0.8},
}

// SearchPipelines ranks pipelines against query. A failed fetch yields an
// empty list.
func (s *Service) SearchPipelines(ctx context.Context, query string, limit int) []pipeline.Suggestion {
	limit = s.opts.clampLimit(limit)
	q := utils.NormalizeQuery(query)

	if cached, ok := s.pipelineCache.Get(q); ok {
		return truncate(cached, limit)
	}
	if err := s.pipelines.EnsureLoaded(ctx); err != nil {
		s.log.Warn("pipelines unavailable", "err", err)
		return []pipeline.Suggestion{}
	}
	gen := s.pipelineCache.Generation()

	all := s.pipelines.Pipelines()
	results := make([]pipeline.Suggestion, 0, len(all))
	if q == "" {
		for _, p := range all {
			results = append(results, pipeline.Suggestion{Pipeline: p, Score: EmptyQueryScore})
		}
	} else {
		for _, p := range all {
			s.scoreCalls.Add(1)
			if sc := score.WeightedFieldScore(p, q, pipelineFields); sc > 0 {
				results = append(results, pipeline.Suggestion{Pipeline: p, Score: sc})
			}
		}
		slices.SortStableFunc(results, func(a, b pipeline.Suggestion) int {
			return cmp.Compare(b.Score, a.Score)
		})
	}

	s.pipelineCache.PutIfCurrent(gen, q, results)
	return truncate(results, limit)
}

// ExecuteCommand runs cmd with input and reports success. Errors and
// panics from the action are logged and never reach the caller. Usage is
// recorded after a successful run unless opts.SkipUsage is set.
func (s *Service) ExecuteCommand(ctx context.Context, cmd *command.Command, input string, opts ExecOptions) (ok bool) {
	if cmd == nil {
		s.log.Error("execute called without a command")
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("command panicked", "id", cmd.ID, "input", input, "panic", r)
			ok = false
		}
	}()

	if err := cmd.Run(ctx, input); err != nil {
		s.log.Error("command failed", "id", cmd.ID, "input", input, "err", err)
		return false
	}
	if !opts.SkipUsage && s.prefs != nil {
		if err := s.prefs.RecordUsage(cmd.ID); err != nil {
			s.log.Warn("could not record usage", "id", cmd.ID, "err", err)
		}
	}
	return true
}

// RecordSearch stores query in the recent search list.
func (s *Service) RecordSearch(query string) {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.AddRecent(query); err != nil {
		s.log.Warn("could not record search", "err", err)
	}
}

// InvalidateCaches drops every cached result.
func (s *Service) InvalidateCaches() {
	s.commandCache.InvalidateAll()
	s.pipelineCache.InvalidateAll()
}

// Stats is a snapshot of service counters.
type Stats struct {
	ScoreCalls    int64
	Commands      int
	Aliases       int
	IndexKeys     int
	CommandCache  map[string]int
	PipelineCache map[string]int
	Pipelines     pipeline.Stats
}

// Stats returns current counters.
func (s *Service) Stats() Stats {
	st := Stats{
		ScoreCalls:    s.scoreCalls.Load(),
		Commands:      s.registry.Len(),
		Aliases:       len(s.resolver.Aliases()),
		CommandCache:  s.commandCache.Stats(),
		PipelineCache: s.pipelineCache.Stats(),
		Pipelines:     s.pipelines.Stats(),
	}
	if idx := s.index.Load(); idx != nil {
		st.IndexKeys = idx.trie.Len()
	}
	return st
}

func truncate[T any](in []T, limit int) []T {
	n := min(limit, len(in))
	out := make([]T, n)
	copy(out, in[:n])
	return out
}
