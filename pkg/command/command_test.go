package command

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryOrderAndLookup(t *testing.T) {
	reg, err := NewRegistry(
		&Command{ID: "pipeline", Name: "Go to Pipeline"},
		&Command{ID: "new-build", Name: "Create New Build"},
	)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "pipeline", all[0].ID)
	assert.Equal(t, "new-build", all[1].ID)

	c, ok := reg.GetByID("new-build")
	require.True(t, ok)
	assert.Equal(t, "Create New Build", c.Name)

	_, ok = reg.GetByID("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg, err := NewRegistry(&Command{ID: "a"})
	require.NoError(t, err)

	err = reg.Register(&Command{ID: "a"})
	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.Error(t, reg.Register(&Command{}))
	assert.Equal(t, 1, reg.Len())
}

func TestListAvailableReevaluates(t *testing.T) {
	enabled := false
	reg, err := NewRegistry(
		&Command{ID: "always"},
		&Command{ID: "gated", Availability: AvailabilityFunc(func() bool { return enabled })},
	)
	require.NoError(t, err)

	assert.Len(t, reg.ListAvailable(), 1)
	enabled = true
	assert.Len(t, reg.ListAvailable(), 2)
	assert.Len(t, reg.All(), 2)
}

func TestIndexKeys(t *testing.T) {
	c := &Command{ID: "new-build", Name: "Create New Build", Keywords: []string{"deploy", "Build"}}
	assert.Equal(t, []string{"new-build", "create", "new", "build", "deploy"}, c.IndexKeys())
}

func TestRunWithoutAction(t *testing.T) {
	c := &Command{ID: "noop"}
	assert.NoError(t, c.Run(context.Background(), "x"))
}

func TestDecodeCommandsFile(t *testing.T) {
	src := `
commands:
  - id: open
    name: Open URL
    keywords: [browse]
    run: echo "opening {input}"
  - id: gated
    run: "true"
    requires: PALETTE_TEST_SURELY_UNSET_VAR
`
	cmds, err := Decode(strings.NewReader(src), io.Discard)
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	assert.Equal(t, "Open URL", cmds[0].Name)
	assert.Equal(t, []string{"browse"}, cmds[0].Keywords)
	assert.NotNil(t, cmds[0].Action)
	assert.True(t, cmds[0].IsAvailable())

	assert.Equal(t, "gated", cmds[1].Name, "name defaults to id")
	assert.False(t, cmds[1].IsAvailable())
}

func TestDecodeRejectsMissingID(t *testing.T) {
	_, err := Decode(strings.NewReader("commands:\n  - name: nameless\n"), io.Discard)
	assert.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	cmds, err := Decode(strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestExpandArgs(t *testing.T) {
	got, err := ExpandArgs([]string{"open", "https://example.com/{input}"}, "acme/web")
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "https://example.com/acme/web"}, got)

	got, err = ExpandArgs([]string{"git", "log"}, `--author "Jane Doe"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "log", "--author", "Jane Doe"}, got)

	got, err = ExpandArgs([]string{"ls"}, "  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ls"}, got)
}
