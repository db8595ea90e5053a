package command

import "strings"

// Alias is a user-defined short name for a command.
// CommandID may point at a command that no longer exists; such aliases
// are inert rather than errors.
type Alias struct {
	ID          string `toml:"id" msgpack:"id"`
	Name        string `toml:"name" msgpack:"name"`
	CommandID   string `toml:"command_id" msgpack:"command_id"`
	Params      string `toml:"params,omitempty" msgpack:"params,omitempty"`
	Description string `toml:"description,omitempty" msgpack:"description,omitempty"`
}

// Matches reports whether name refers to a, ignoring case.
func (a Alias) Matches(name string) bool {
	return strings.EqualFold(a.Name, name)
}

// Match is a scored command in a result list. Scores are non-increasing
// within one list.
type Match struct {
	Command *Command
	Score   int
	// Alias is set when the match came from an alias.
	Alias *Alias
	// InputParams is trailing text from a direct reference, forwarded to
	// the command's action.
	InputParams string
}
