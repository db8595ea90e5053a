// Package prefs persists user preferences: aliases, recent searches and
// command usage. Everything lives in one TOML file rewritten on each change.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/internal/utils"
	"github.com/bastiangx/palette/pkg/command"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DefaultMaxRecent caps the recent search list.
const DefaultMaxRecent = 10

var (
	// ErrAliasExists is returned when an alias name is already taken.
	ErrAliasExists = errors.New("prefs: alias name already exists")
	// ErrAliasNotFound is returned when removing an unknown alias.
	ErrAliasNotFound = errors.New("prefs: alias not found")
	// ErrInvalidAlias is returned for aliases missing a name or target.
	ErrInvalidAlias = errors.New("prefs: alias needs a name and a command id")
)

// Usage records how often a command ran.
type Usage struct {
	Count    int       `toml:"count" msgpack:"count"`
	LastUsed time.Time `toml:"last_used" msgpack:"last_used"`
}

type document struct {
	Recent  []string          `toml:"recent"`
	Aliases []command.Alias   `toml:"aliases"`
	Usage   map[string]*Usage `toml:"usage"`
}

// Store is a file-backed preference store. A Store with an empty path keeps
// everything in memory.
type Store struct {
	path      string
	maxRecent int
	log       *log.Logger
	now       func() time.Time

	mu        sync.RWMutex
	doc       document
	listeners []func()
}

// Option configures a Store.
type Option func(*Store)

// WithMaxRecent sets the recent search cap.
func WithMaxRecent(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRecent = n
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides the usage timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the store at path. A missing file starts empty; a malformed
// one is logged and also starts empty.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:      path,
		maxRecent: DefaultMaxRecent,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrDefault(s.log, "prefs")
	s.doc.Usage = make(map[string]*Usage)

	if path == "" || !utils.FileExists(path) {
		return s
	}
	var doc document
	if err := utils.LoadTOMLFile(path, &doc); err != nil {
		s.log.Warn("preferences unreadable, starting empty", "path", path, "err", err)
		return s
	}
	if doc.Usage == nil {
		doc.Usage = make(map[string]*Usage)
	}
	if len(doc.Recent) > s.maxRecent {
		doc.Recent = doc.Recent[:s.maxRecent]
	}
	s.doc = doc
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// save writes the document. Callers hold s.mu.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	if err := utils.SaveTOMLFile(s.doc, s.path); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// commitAliases persists next as the alias list. A failed write leaves the
// previous list in place. Callers hold s.mu.
func (s *Store) commitAliases(next []command.Alias) error {
	prev := s.doc.Aliases
	s.doc.Aliases = next
	if err := s.save(); err != nil {
		s.doc.Aliases = prev
		return err
	}
	return nil
}

// Aliases implements alias.Store.
func (s *Store) Aliases(ctx context.Context) ([]command.Alias, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]command.Alias, len(s.doc.Aliases))
	copy(out, s.doc.Aliases)
	return out, nil
}

// SaveAlias adds a new alias, or updates the alias with the same ID.
// Names are unique ignoring case. A missing ID is generated.
func (s *Store) SaveAlias(a command.Alias) (command.Alias, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" || a.CommandID == "" || strings.ContainsAny(a.Name, " \t") {
		return command.Alias{}, ErrInvalidAlias
	}

	s.mu.Lock()
	idx := -1
	for i, existing := range s.doc.Aliases {
		if a.ID != "" && existing.ID == a.ID {
			idx = i
			continue
		}
		if existing.Matches(a.Name) {
			s.mu.Unlock()
			return command.Alias{}, fmt.Errorf("%w: %s", ErrAliasExists, a.Name)
		}
	}
	next := make([]command.Alias, len(s.doc.Aliases), len(s.doc.Aliases)+1)
	copy(next, s.doc.Aliases)
	if idx >= 0 {
		next[idx] = a
	} else {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		next = append(next, a)
	}
	err := s.commitAliases(next)
	s.mu.Unlock()
	if err != nil {
		return command.Alias{}, err
	}

	s.notify()
	return a, nil
}

// RemoveAlias deletes the alias with the given ID or name.
func (s *Store) RemoveAlias(idOrName string) error {
	s.mu.Lock()
	idx := -1
	for i, a := range s.doc.Aliases {
		if a.ID == idOrName || a.Matches(idOrName) {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAliasNotFound, idOrName)
	}
	next := make([]command.Alias, 0, len(s.doc.Aliases)-1)
	next = append(next, s.doc.Aliases[:idx]...)
	next = append(next, s.doc.Aliases[idx+1:]...)
	err := s.commitAliases(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify()
	return nil
}

// OnAliasesChanged registers fn to run after every alias mutation.
func (s *Store) OnAliasesChanged(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// AddRecent moves query to the front of the recent list. Matching ignores
// case; blank queries are ignored.
func (s *Store) AddRecent(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]string, 0, len(s.doc.Recent)+1)
	recent = append(recent, query)
	for _, q := range s.doc.Recent {
		if strings.EqualFold(q, query) {
			continue
		}
		recent = append(recent, q)
	}
	if len(recent) > s.maxRecent {
		recent = recent[:s.maxRecent]
	}
	s.doc.Recent = recent
	return s.save()
}

// Recent returns recent searches, most recent first.
func (s *Store) Recent() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.doc.Recent))
	copy(out, s.doc.Recent)
	return out
}

// ClearRecent empties the recent list.
func (s *Store) ClearRecent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Recent = nil
	return s.save()
}

// RecordUsage counts one run of commandID.
func (s *Store) RecordUsage(commandID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Usage[commandID]
	if !ok {
		u = &Usage{}
		s.doc.Usage[commandID] = u
	}
	u.Count++
	u.LastUsed = s.now()
	return s.save()
}

// Usage returns the usage record for commandID.
func (s *Store) Usage(commandID string) (Usage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.doc.Usage[commandID]
	if !ok {
		return Usage{}, false
	}
	return *u, true
}
