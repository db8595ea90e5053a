package server

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/pkg/command"
	"github.com/bastiangx/palette/pkg/pipeline"
	"github.com/bastiangx/palette/pkg/prefs"
	"github.com/bastiangx/palette/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type harness struct {
	svc   *search.Service
	store *prefs.Store
	ran   []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	reg, err := command.NewRegistry(
		&command.Command{ID: "pipeline", Name: "Go to Pipeline", Keywords: []string{"goto"}},
		&command.Command{ID: "new-build", Name: "Create New Build", Keywords: []string{"deploy"},
			Action: func(_ context.Context, input string) error {
				h.ran = append(h.ran, input)
				return nil
			}},
	)
	require.NoError(t, err)

	h.store = prefs.Open("", prefs.WithLogger(logger.Discard()))
	provider := pipeline.NewProvider(nil, logger.Discard())
	provider.Replace([]pipeline.Pipeline{{Organization: "acme", Slug: "web", Name: "Web"}})

	h.svc = search.New(search.Deps{
		Registry:  reg,
		Aliases:   h.store,
		Pipelines: provider,
		Prefs:     h.store,
		Logger:    logger.Discard(),
	}, search.DefaultOptions())
	return h
}

func encodeRequests(t *testing.T, reqs ...Request) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, r := range reqs {
		require.NoError(t, enc.Encode(r))
	}
	return &buf
}

func serve(t *testing.T, h *harness, maxQueryLen int, reqs ...Request) *msgpack.Decoder {
	t.Helper()
	var out bytes.Buffer
	srv := NewServerWithIO(h.svc, h.store, maxQueryLen, encodeRequests(t, reqs...), &out, logger.Discard())
	require.NoError(t, srv.Start(context.Background()))

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	return dec
}

func TestCommandsOp(t *testing.T) {
	h := newHarness(t)
	dec := serve(t, h, 0,
		Request{ID: "r1", Op: OpCommands, Query: "deploy", Limit: 5},
		Request{ID: "r2", Op: OpCommands, Query: "/pipeline main"},
	)

	var resp CommandsResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "r1", resp.ID)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "new-build", resp.Suggestions[0].ID)
	assert.Equal(t, uint16(1), resp.Suggestions[0].Rank)
	assert.Equal(t, 60, resp.Suggestions[0].Score)

	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "r2", resp.ID)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "pipeline", resp.Suggestions[0].ID)
	assert.Equal(t, "main", resp.Suggestions[0].Input)
}

func TestPipelinesOp(t *testing.T) {
	h := newHarness(t)
	dec := serve(t, h, 0, Request{ID: "p1", Op: OpPipelines, Query: "web"})

	var resp PipelinesResponse
	require.NoError(t, dec.Decode(&resp))
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "acme", resp.Suggestions[0].Organization)
	assert.Positive(t, resp.Suggestions[0].Score)
}

func TestExecuteOp(t *testing.T) {
	h := newHarness(t)
	dec := serve(t, h, 0,
		Request{ID: "e1", Op: OpExecute, CommandID: "new-build", Input: "feature-x"},
		Request{ID: "e2", Op: OpExecute, CommandID: "missing"},
	)

	var resp ExecuteResponse
	require.NoError(t, dec.Decode(&resp))
	assert.True(t, resp.OK)
	assert.Equal(t, []string{"feature-x"}, h.ran)
	u, ok := h.store.Usage("new-build")
	require.True(t, ok)
	assert.Equal(t, 1, u.Count)

	var errResp ErrorResponse
	require.NoError(t, dec.Decode(&errResp))
	assert.Equal(t, "e2", errResp.ID)
	assert.Equal(t, 404, errResp.Code)
}

func TestRecentAndHealthOps(t *testing.T) {
	h := newHarness(t)
	dec := serve(t, h, 0,
		Request{ID: "a", Op: OpRecent, Query: "deploy"},
		Request{ID: "b", Op: OpRecent},
		Request{ID: "c", Op: OpHealth},
	)

	var recent RecentResponse
	require.NoError(t, dec.Decode(&recent))
	assert.Equal(t, []string{"deploy"}, recent.Queries)
	require.NoError(t, dec.Decode(&recent))
	assert.Equal(t, "b", recent.ID)
	assert.Equal(t, []string{"deploy"}, recent.Queries)

	var health HealthResponse
	require.NoError(t, dec.Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.Commands)
	assert.Equal(t, 1, health.Pipelines)
	assert.Equal(t, int64(3), health.Requests)
}

func TestRefreshAliasesOp(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.SaveAlias(command.Alias{Name: "nb", CommandID: "new-build"})
	require.NoError(t, err)

	dec := serve(t, h, 0,
		Request{ID: "x", Op: OpRefreshAliases},
		Request{ID: "y", Op: OpCommands, Query: "/nb"},
	)

	var status StatusResponse
	require.NoError(t, dec.Decode(&status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 1, status.Count)

	var resp CommandsResponse
	require.NoError(t, dec.Decode(&resp))
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "nb", resp.Suggestions[0].Alias)
}

func TestRejectsBadRequests(t *testing.T) {
	h := newHarness(t)
	dec := serve(t, h, 8,
		Request{ID: "1", Op: "bogus"},
		Request{ID: "2"},
		Request{ID: "3", Op: OpCommands, Query: strings.Repeat("a", 9)},
		Request{ID: "4", Op: OpCommands, Query: "bad\x00"},
	)

	for _, id := range []string{"1", "2", "3", "4"} {
		var resp ErrorResponse
		require.NoError(t, dec.Decode(&resp))
		assert.Equal(t, id, resp.ID)
		assert.Equal(t, 400, resp.Code)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestStartStopsOnGarbage(t *testing.T) {
	h := newHarness(t)
	var out bytes.Buffer
	srv := NewServerWithIO(h.svc, h.store, 0, bytes.NewReader([]byte{0xc1}), &out, logger.Discard())
	assert.Error(t, srv.Start(context.Background()))
}
