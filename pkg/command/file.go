package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// InputPlaceholder is replaced by the command input inside run templates.
// Templates without it get the input appended as extra arguments.
const InputPlaceholder = "{input}"

// Spec is the on-disk form of a command.
type Spec struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Run         string   `yaml:"run"`
	// Requires names an environment variable that must be set for the
	// command to be available.
	Requires string `yaml:"requires,omitempty"`
}

// File is the top-level layout of a commands file.
type File struct {
	Commands []Spec `yaml:"commands"`
}

// LoadFile reads command specs from a YAML file.
func LoadFile(path string) ([]*Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open commands file: %w", err)
	}
	defer f.Close()
	return Decode(f, os.Stderr)
}

// Decode parses command specs from r. Command output is written to out.
func Decode(r io.Reader, out io.Writer) ([]*Command, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode commands: %w", err)
	}

	cmds := make([]*Command, 0, len(file.Commands))
	for i, spec := range file.Commands {
		c, err := spec.Build(out)
		if err != nil {
			return nil, fmt.Errorf("command #%d: %w", i+1, err)
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

// Build turns a spec into a runnable command.
func (s Spec) Build(out io.Writer) (*Command, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}

	c := &Command{
		ID:          s.ID,
		Name:        name,
		Description: s.Description,
		Keywords:    s.Keywords,
	}

	if s.Run != "" {
		argv, err := shlex.Split(s.Run)
		if err != nil {
			return nil, fmt.Errorf("parse run for %q: %w", s.ID, err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("empty run for %q", s.ID)
		}
		c.Action = execAction(argv, out)
	}

	if s.Requires != "" {
		env := s.Requires
		c.Availability = AvailabilityFunc(func() bool {
			return os.Getenv(env) != ""
		})
	}
	return c, nil
}

// ExpandArgs fills the run template with input.
func ExpandArgs(argv []string, input string) ([]string, error) {
	args := make([]string, 0, len(argv))
	substituted := false
	for _, a := range argv {
		if strings.Contains(a, InputPlaceholder) {
			args = append(args, strings.ReplaceAll(a, InputPlaceholder, input))
			substituted = true
			continue
		}
		args = append(args, a)
	}
	if substituted || strings.TrimSpace(input) == "" {
		return args, nil
	}

	extra, err := shlex.Split(input)
	if err != nil {
		return nil, fmt.Errorf("split input: %w", err)
	}
	return append(args, extra...), nil
}

func execAction(argv []string, out io.Writer) Action {
	return func(ctx context.Context, input string) error {
		args, err := ExpandArgs(argv, input)
		if err != nil {
			return err
		}
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Stdout = out
		cmd.Stderr = out
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		return nil
	}
}
