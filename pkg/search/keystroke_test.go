package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/bastiangx/palette/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// typing patterns replay a user typing a query one keystroke at a time.
var typingPatterns = [][]string{
	{"d", "de", "dep", "depl", "deplo", "deploy"},
	{"o", "op", "ope", "open"},
	{"p", "pi", "pip", "pipe", "pipel", "pipeline"},
	{"/", "/p", "/pi", "/pip", "/pipeline", "/pipeline m", "/pipeline main"},
	{"n", "ne", "new", "new ", "new b", "new bu", "new build"},
}

func manyCommands() []*command.Command {
	cmds := fixtureCommands()
	for i := 0; i < 200; i++ {
		cmds = append(cmds, &command.Command{
			ID:       fmt.Sprintf("generated-%03d", i),
			Name:     fmt.Sprintf("Generated Command %d", i),
			Keywords: []string{fmt.Sprintf("gen%d", i%7)},
		})
	}
	return cmds
}

func TestConcurrentTypingWithAliasRefresh(t *testing.T) {
	f := newFixture(t, manyCommands()...)
	ctx := context.Background()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < 4; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				pattern := typingPatterns[(w+i)%len(typingPatterns)]
				for _, q := range pattern {
					ms := f.svc.SearchCommands(gctx, q, 20)
					for j := 1; j < len(ms); j++ {
						if ms[j-1].Score < ms[j].Score {
							return fmt.Errorf("query %q: results out of order at %d", q, j)
						}
					}
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for i := 0; i < 20; i++ {
			if _, err := f.prefs.SaveAlias(command.Alias{
				Name:      fmt.Sprintf("a%d", i),
				CommandID: "new-build",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())

	assert.Len(t, f.svc.Resolver().Aliases(), 20)
	got := f.svc.SearchCommands(ctx, "/a7", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "new-build", got[0].Command.ID)
}

func BenchmarkTypingPatterns(b *testing.B) {
	reg, err := command.NewRegistry(manyCommands()...)
	require.NoError(b, err)
	svc := New(Deps{Registry: reg}, DefaultOptions())
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, q := range typingPatterns[i%len(typingPatterns)] {
			svc.SearchCommands(ctx, q, 20)
		}
		svc.InvalidateCaches()
	}
}
