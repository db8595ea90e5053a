package command

import (
	"fmt"
	"sync"
)

// Registry holds commands in registration order. Registration order is the
// tie-break for equal search scores, so it is preserved everywhere.
type Registry struct {
	mu      sync.RWMutex
	order   []*Command
	byID    map[string]*Command
	version uint64
}

// NewRegistry creates a registry pre-populated with cmds.
func NewRegistry(cmds ...*Command) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Command, len(cmds))}
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds c. Ids must be non-empty and unique.
func (r *Registry) Register(c *Command) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("register command: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.ID]; ok {
		return fmt.Errorf("register %q: %w", c.ID, ErrDuplicateID)
	}
	r.byID[c.ID] = c
	r.order = append(r.order, c)
	r.version++
	return nil
}

// GetByID looks up a command. A miss is not an error.
func (r *Registry) GetByID(id string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	return c, ok
}

// All returns every command in registration order.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Command, len(r.order))
	copy(out, r.order)
	return out
}

// ListAvailable returns the commands whose availability check passes right
// now, in registration order.
func (r *Registry) ListAvailable() []*Command {
	all := r.All()
	out := all[:0]
	for _, c := range all {
		if c.IsAvailable() {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Version increments on every registration. Indexes built from the
// registry compare versions to know when to rebuild.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}
