// Package command defines palette commands and the registry that owns them.
//
// The search engine only reads commands. Availability is evaluated on every
// call to ListAvailable and never cached.
package command

import (
	"context"
	"errors"
	"strings"

	"github.com/bastiangx/palette/pkg/score"
)

// ErrDuplicateID is returned when registering a command whose id is taken.
var ErrDuplicateID = errors.New("command: duplicate id")

// Availability reports whether a command can run right now.
type Availability interface {
	IsAvailable() bool
}

// AvailabilityFunc adapts a plain function to Availability.
type AvailabilityFunc func() bool

// IsAvailable calls f.
func (f AvailabilityFunc) IsAvailable() bool { return f() }

// Action runs a command with optional trailing input.
type Action func(ctx context.Context, input string) error

// Command is a palette entry.
type Command struct {
	ID          string
	Name        string
	Description string
	Keywords    []string

	// Availability is nil for commands that are always available.
	Availability Availability
	Action       Action
}

// IsAvailable reports whether c can run now. Commands without an
// Availability are always available.
func (c *Command) IsAvailable() bool {
	if c.Availability == nil {
		return true
	}
	return c.Availability.IsAvailable()
}

// Run invokes the command's action. Commands without an action are no-ops.
func (c *Command) Run(ctx context.Context, input string) error {
	if c.Action == nil {
		return nil
	}
	return c.Action(ctx, input)
}

// Candidate returns the scoring view of c.
func (c *Command) Candidate() score.Candidate {
	return score.Candidate{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Keywords:    c.Keywords,
	}
}

// IndexKeys lists the strings c is indexed under: its id, each word of
// its name, and each keyword. Keys are lowercased and deduplicated.
func (c *Command) IndexKeys() []string {
	keys := make([]string, 0, 2+len(c.Keywords))
	seen := make(map[string]struct{})
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	add(c.ID)
	for _, w := range strings.Fields(c.Name) {
		add(w)
	}
	for _, k := range c.Keywords {
		add(k)
	}
	return keys
}
