// Package alias resolves user aliases and slash direct references to commands.
//
// The resolver holds an immutable snapshot of the alias list. Refresh loads
// a new list from the store and swaps it in atomically, so a search in
// flight keeps reading the snapshot it started with.
package alias

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/pkg/command"
	"github.com/bastiangx/palette/pkg/score"
	"github.com/charmbracelet/log"
)

// DirectPrefix starts a direct reference: "/<identifier> <rest>".
const DirectPrefix = "/"

// Store supplies the current alias list.
type Store interface {
	Aliases(ctx context.Context) ([]command.Alias, error)
}

// Commands looks commands up by id.
type Commands interface {
	GetByID(id string) (*command.Command, bool)
}

type snapshot struct {
	aliases []command.Alias
	// byName maps lowercased alias names to their index in aliases.
	byName map[string]int
}

func newSnapshot(aliases []command.Alias) *snapshot {
	s := &snapshot{
		aliases: aliases,
		byName:  make(map[string]int, len(aliases)),
	}
	for i, a := range aliases {
		key := strings.ToLower(a.Name)
		if key == "" {
			continue
		}
		// first alias wins when names collide
		if _, taken := s.byName[key]; !taken {
			s.byName[key] = i
		}
	}
	return s
}

// Resolver maps aliases and direct references to commands.
type Resolver struct {
	store    Store
	commands Commands
	log      *log.Logger

	current atomic.Pointer[snapshot]
	loaded  atomic.Bool
}

// NewResolver creates a resolver. A nil store behaves as an empty alias list.
func NewResolver(store Store, commands Commands, l *log.Logger) *Resolver {
	r := &Resolver{
		store:    store,
		commands: commands,
		log:      logger.OrDefault(l, "alias"),
	}
	r.current.Store(newSnapshot(nil))
	return r
}

// Refresh reloads aliases from the store. A failing store leaves the
// resolver with an empty alias set and still marks it loaded, so callers
// do not retry on every keystroke. The error is returned for logging only.
func (r *Resolver) Refresh(ctx context.Context) error {
	var aliases []command.Alias
	var err error
	if r.store != nil {
		aliases, err = r.store.Aliases(ctx)
	}
	if err != nil {
		r.log.Warn("alias load failed, continuing without aliases", "err", err)
		aliases = nil
	}

	cp := make([]command.Alias, len(aliases))
	copy(cp, aliases)
	r.current.Store(newSnapshot(cp))
	r.loaded.Store(true)
	r.log.Debug("aliases loaded", "count", len(cp))
	return err
}

// EnsureLoaded refreshes once if the resolver has never been loaded.
func (r *Resolver) EnsureLoaded(ctx context.Context) {
	if r.loaded.Load() {
		return
	}
	_ = r.Refresh(ctx)
}

// Loaded reports whether Refresh has run at least once.
func (r *Resolver) Loaded() bool {
	return r.loaded.Load()
}

// Aliases returns a copy of the current alias list.
func (r *Resolver) Aliases() []command.Alias {
	s := r.current.Load()
	out := make([]command.Alias, len(s.aliases))
	copy(out, s.aliases)
	return out
}

// Lookup finds an alias by name, ignoring case.
func (r *Resolver) Lookup(name string) (command.Alias, bool) {
	s := r.current.Load()
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return command.Alias{}, false
	}
	return s.aliases[i], true
}

// Target returns the available command a points at.
// Dangling or unavailable targets yield false.
func (r *Resolver) Target(a command.Alias) (*command.Command, bool) {
	c, ok := r.commands.GetByID(a.CommandID)
	if !ok || !c.IsAvailable() {
		return nil, false
	}
	return c, true
}

// ParseDirect splits "/<identifier> <rest>" into its parts.
// ok is false when query is not a direct reference or has no identifier.
func ParseDirect(query string) (identifier, rest string, ok bool) {
	q := strings.TrimSpace(query)
	if !strings.HasPrefix(q, DirectPrefix) {
		return "", "", false
	}
	body := strings.TrimSpace(strings.TrimPrefix(q, DirectPrefix))
	if body == "" {
		return "", "", false
	}
	i := strings.IndexFunc(body, unicode.IsSpace)
	if i < 0 {
		return body, "", true
	}
	return body[:i], strings.TrimSpace(body[i:]), true
}

// Resolve handles a direct reference. Alias names are checked first, so an
// alias shadows a command whose id equals the alias name. A dangling alias
// shadows nothing and the command id is tried instead. Trailing text
// becomes InputParams; an alias' default Params apply when there is none.
func (r *Resolver) Resolve(query string) (command.Match, bool) {
	identifier, rest, ok := ParseDirect(query)
	if !ok {
		return command.Match{}, false
	}

	if a, found := r.Lookup(identifier); found {
		if c, ok := r.Target(a); ok {
			input := rest
			if input == "" {
				input = a.Params
			}
			return command.Match{
				Command:     c,
				Score:       score.CommandExactID,
				Alias:       &a,
				InputParams: input,
			}, true
		}
	}

	c, found := r.commands.GetByID(identifier)
	if !found || !c.IsAvailable() {
		return command.Match{}, false
	}
	return command.Match{
		Command:     c,
		Score:       score.CommandExactID,
		InputParams: rest,
	}, true
}

// ScoreAll scores every alias name against query and returns matches
// attached to their target commands, in alias order. Aliases whose target
// is missing or unavailable are skipped.
func (r *Resolver) ScoreAll(query string) []command.Match {
	s := r.current.Load()
	if len(s.aliases) == 0 {
		return nil
	}

	var out []command.Match
	for i := range s.aliases {
		a := s.aliases[i]
		sc := score.AliasScore(a.Name, a.Description, query)
		if sc <= 0 {
			continue
		}
		c, ok := r.Target(a)
		if !ok {
			continue
		}
		out = append(out, command.Match{
			Command:     c,
			Score:       sc,
			Alias:       &a,
			InputParams: a.Params,
		})
	}
	return out
}
