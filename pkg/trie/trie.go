// Package trie provides a bounded prefix index over arbitrary items.
//
// Keys are lowercased on the way in and on lookup. Each terminal key holds a
// deduplicated list of items, where two items are the same when their
// identity keys match. The same item may be indexed under many keys (an id,
// each word of a name, each keyword), and Search dedups across all of them.
//
// Search never walks an unbounded subtree: it stops at a maximum depth below
// the prefix and at a maximum result count. Callers that need exhaustive
// results for very short prefixes must use a different path.
package trie

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Default traversal bounds.
const (
	DefaultMaxDepth   = 16
	DefaultMaxResults = 50
)

var errStop = errors.New("trie: result bound reached")

// Trie is a prefix index from lowercase keys to items of type T.
// It is safe for concurrent use.
type Trie[T any] struct {
	mu         sync.RWMutex
	root       *patricia.Trie
	identity   func(T) string
	maxDepth   int
	maxResults int
	keys       int
}

// Option tunes a Trie.
type Option func(*options)

type options struct {
	maxDepth   int
	maxResults int
}

// WithMaxDepth caps how many runes below the prefix Search descends.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithMaxResults caps how many distinct items Search returns.
func WithMaxResults(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

// New creates an empty trie. identity returns the key that makes two items equal.
func New[T any](identity func(T) string, opts ...Option) *Trie[T] {
	o := options{maxDepth: DefaultMaxDepth, maxResults: DefaultMaxResults}
	for _, opt := range opts {
		opt(&o)
	}
	return &Trie[T]{
		root:       patricia.NewTrie(),
		identity:   identity,
		maxDepth:   o.maxDepth,
		maxResults: o.maxResults,
	}
}

// Insert indexes item under key. Inserting the same (key, item) pair twice
// keeps a single entry. Empty keys are ignored.
func (t *Trie[T]) Insert(key string, item T) {
	k := strings.ToLower(key)
	if k == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.root.Get(patricia.Prefix(k))
	if existing == nil {
		t.root.Insert(patricia.Prefix(k), []T{item})
		t.keys++
		return
	}

	items := existing.([]T)
	id := t.identity(item)
	for _, it := range items {
		if t.identity(it) == id {
			return
		}
	}
	next := make([]T, len(items), len(items)+1)
	copy(next, items)
	t.root.Set(patricia.Prefix(k), append(next, item))
}

// Search returns the items indexed under keys starting with prefix, deduplicated
// by identity, in depth-first visiting order. Keys deeper than the configured
// depth below prefix are skipped and collection stops at the result cap.
func (t *Trie[T]) Search(prefix string) []T {
	p := strings.ToLower(prefix)
	base := utf8.RuneCountInString(p)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var results []T
	seen := make(map[string]struct{})

	err := t.root.VisitSubtree(toPrefix(p), func(key patricia.Prefix, item patricia.Item) error {
		if utf8.RuneCount(key)-base > t.maxDepth {
			return patricia.SkipSubtree
		}
		for _, it := range item.([]T) {
			id := t.identity(it)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			results = append(results, it)
			if len(results) >= t.maxResults {
				return errStop
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil
	}
	return results
}

// Get returns the items stored under exactly key.
func (t *Trie[T]) Get(key string) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	item := t.root.Get(toPrefix(strings.ToLower(key)))
	if item == nil {
		return nil
	}
	items := item.([]T)
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// Delete removes key and its items, pruning empty branches.
// It reports whether the key existed.
func (t *Trie[T]) Delete(key string) bool {
	k := strings.ToLower(key)
	if k == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root.Delete(patricia.Prefix(k)) {
		t.keys--
		return true
	}
	return false
}

// Len returns the number of terminal keys.
func (t *Trie[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.keys
}

// Keys lists every indexed key. Meant for diagnostics.
func (t *Trie[T]) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, t.keys)
	_ = t.root.Visit(func(key patricia.Prefix, _ patricia.Item) error {
		keys = append(keys, string(key))
		return nil
	})
	return keys
}

// toPrefix never returns nil; patricia panics on nil prefixes.
func toPrefix(s string) patricia.Prefix {
	if s == "" {
		return patricia.Prefix{}
	}
	return patricia.Prefix(s)
}
