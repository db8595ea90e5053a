package alias

import (
	"context"
	"errors"
	"testing"

	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/pkg/command"
	"github.com/bastiangx/palette/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStore struct {
	aliases []command.Alias
	err     error
	calls   int
}

func (s *staticStore) Aliases(context.Context) ([]command.Alias, error) {
	s.calls++
	return s.aliases, s.err
}

func testRegistry(t *testing.T, extra ...*command.Command) *command.Registry {
	t.Helper()
	cmds := append([]*command.Command{
		{ID: "pipeline", Name: "Go to Pipeline", Keywords: []string{"goto"}},
		{ID: "new-build", Name: "Create New Build", Keywords: []string{"deploy"}},
	}, extra...)
	reg, err := command.NewRegistry(cmds...)
	require.NoError(t, err)
	return reg
}

func newResolver(t *testing.T, store Store, reg *command.Registry) *Resolver {
	t.Helper()
	r := NewResolver(store, reg, logger.Discard())
	_ = r.Refresh(context.Background())
	return r
}

func TestParseDirect(t *testing.T) {
	testCases := []struct {
		query string
		id    string
		rest  string
		ok    bool
	}{
		{"/pipeline", "pipeline", "", true},
		{"/pipeline extra text", "pipeline", "extra text", true},
		{"  /p   spaced   ", "p", "spaced", true},
		{"/pipeline\tmain", "pipeline", "main", true},
		{"/", "", "", false},
		{"pipeline", "", "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			id, rest, ok := ParseDirect(tc.query)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestResolveCommandID(t *testing.T) {
	r := newResolver(t, nil, testRegistry(t))

	m, ok := r.Resolve("/pipeline extra text")
	require.True(t, ok)
	assert.Equal(t, "pipeline", m.Command.ID)
	assert.Equal(t, score.CommandExactID, m.Score)
	assert.Equal(t, "extra text", m.InputParams)
	assert.Nil(t, m.Alias)

	_, ok = r.Resolve("/missing")
	assert.False(t, ok)
}

func TestAliasShadowsCommandID(t *testing.T) {
	reg := testRegistry(t, &command.Command{ID: "p", Name: "Print"})
	store := &staticStore{aliases: []command.Alias{{ID: "1", Name: "P", CommandID: "new-build"}}}
	r := newResolver(t, store, reg)

	m, ok := r.Resolve("/p")
	require.True(t, ok)
	assert.Equal(t, "new-build", m.Command.ID)
	require.NotNil(t, m.Alias)
	assert.Equal(t, "1", m.Alias.ID)
}

func TestResolveAliasParams(t *testing.T) {
	store := &staticStore{aliases: []command.Alias{{ID: "1", Name: "nb", CommandID: "new-build", Params: "main"}}}
	r := newResolver(t, store, testRegistry(t))

	m, ok := r.Resolve("/nb")
	require.True(t, ok)
	assert.Equal(t, "main", m.InputParams)

	m, ok = r.Resolve("/nb feature-x")
	require.True(t, ok)
	assert.Equal(t, "feature-x", m.InputParams)
}

func TestDanglingAliasIsInert(t *testing.T) {
	store := &staticStore{aliases: []command.Alias{{ID: "1", Name: "gone", CommandID: "deleted"}}}
	r := newResolver(t, store, testRegistry(t))

	_, ok := r.Resolve("/gone")
	assert.False(t, ok)
	assert.Empty(t, r.ScoreAll("gone"))
}

func TestDanglingAliasFallsBackToCommandID(t *testing.T) {
	reg := testRegistry(t, &command.Command{ID: "p", Name: "Print"})
	store := &staticStore{aliases: []command.Alias{{ID: "1", Name: "p", CommandID: "deleted"}}}
	r := newResolver(t, store, reg)

	m, ok := r.Resolve("/p extra")
	require.True(t, ok)
	assert.Equal(t, "p", m.Command.ID)
	assert.Equal(t, score.CommandExactID, m.Score)
	assert.Equal(t, "extra", m.InputParams)
	assert.Nil(t, m.Alias)
}

func TestScoreAll(t *testing.T) {
	gated := &command.Command{ID: "gated", Availability: command.AvailabilityFunc(func() bool { return false })}
	store := &staticStore{aliases: []command.Alias{
		{ID: "1", Name: "nb", CommandID: "new-build", Description: "start a build"},
		{ID: "2", Name: "newbuild", CommandID: "new-build"},
		{ID: "3", Name: "nbg", CommandID: "gated"},
	}}
	r := newResolver(t, store, testRegistry(t, gated))

	got := r.ScoreAll("nb")
	require.Len(t, got, 1)
	assert.Equal(t, score.AliasExact, got[0].Score)

	got = r.ScoreAll("build")
	require.Len(t, got, 2)
	assert.Equal(t, score.AliasDescription, got[0].Score)
	assert.Equal(t, score.AliasSubstring, got[1].Score)
}

func TestRefreshFailureYieldsEmptySet(t *testing.T) {
	store := &staticStore{
		aliases: []command.Alias{{ID: "1", Name: "nb", CommandID: "new-build"}},
		err:     errors.New("disk on fire"),
	}
	r := NewResolver(store, testRegistry(t), logger.Discard())

	err := r.Refresh(context.Background())
	assert.Error(t, err)
	assert.True(t, r.Loaded())
	assert.Empty(t, r.Aliases())

	r.EnsureLoaded(context.Background())
	assert.Equal(t, 1, store.calls, "loaded resolvers do not retry")
}

func TestLookupIgnoresCase(t *testing.T) {
	store := &staticStore{aliases: []command.Alias{{ID: "1", Name: "Deploy", CommandID: "new-build"}}}
	r := newResolver(t, store, testRegistry(t))

	a, ok := r.Lookup("DEPLOY")
	require.True(t, ok)
	assert.Equal(t, "1", a.ID)
}
