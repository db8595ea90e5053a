/*
Package server implements msgpack IPC for the palette search service.

The server reads a stream of msgpack-encoded requests from stdin and writes
one msgpack response per request to stdout. Values are written back to back
with no extra framing. Logs never go to stdout.

# IPC

Every request carries an ID echoed in its response and an op naming the
operation:

	{"id": "r1", "op": "commands", "q": "dep", "l": 10}

The server responds with ranked suggestions and the time taken in
microseconds:

	{"id": "r1", "s": [{"id": "new-build", "n": "Create New Build", "sc": 60, "r": 1}], "c": 1, "t": 85}

Supported ops:

	commands          rank commands for q
	pipelines         rank pipelines for q
	execute           run the command with id cmd, passing in as input
	refresh_aliases   reload aliases and rebuild the index
	refresh_pipelines refetch the pipeline list
	recent            list recent searches, recording q first when set
	health            report counters

A failed op answers with an ErrorResponse carrying an HTTP-like code.
*/
package server

// Op names.
const (
	OpCommands         = "commands"
	OpPipelines        = "pipelines"
	OpExecute          = "execute"
	OpRefreshAliases   = "refresh_aliases"
	OpRefreshPipelines = "refresh_pipelines"
	OpRecent           = "recent"
	OpHealth           = "health"
)

// Request is the single request envelope for every op.
type Request struct {
	ID        string `msgpack:"id"`
	Op        string `msgpack:"op"`
	Query     string `msgpack:"q,omitempty"`
	Limit     int    `msgpack:"l,omitempty"`
	CommandID string `msgpack:"cmd,omitempty"`
	Input     string `msgpack:"in,omitempty"`
	SkipUsage bool   `msgpack:"skip_usage,omitempty"`
}

// CommandSuggestion is one ranked command.
type CommandSuggestion struct {
	ID          string `msgpack:"id"`
	Name        string `msgpack:"n"`
	Description string `msgpack:"d,omitempty"`
	Score       int    `msgpack:"sc"`
	Rank        uint16 `msgpack:"r"`
	Alias       string `msgpack:"a,omitempty"`
	Input       string `msgpack:"in,omitempty"`
}

// CommandsResponse answers OpCommands.
type CommandsResponse struct {
	ID          string              `msgpack:"id"`
	Suggestions []CommandSuggestion `msgpack:"s"`
	Count       int                 `msgpack:"c"`
	TimeTaken   int64               `msgpack:"t"`
}

// PipelineSuggestion is one ranked pipeline.
type PipelineSuggestion struct {
	Organization string  `msgpack:"org"`
	Slug         string  `msgpack:"slug"`
	Name         string  `msgpack:"n"`
	Description  string  `msgpack:"d,omitempty"`
	Emoji        string  `msgpack:"emoji,omitempty"`
	Score        float64 `msgpack:"sc"`
	Rank         uint16  `msgpack:"r"`
}

// PipelinesResponse answers OpPipelines.
type PipelinesResponse struct {
	ID          string               `msgpack:"id"`
	Suggestions []PipelineSuggestion `msgpack:"s"`
	Count       int                  `msgpack:"c"`
	TimeTaken   int64                `msgpack:"t"`
}

// ExecuteResponse answers OpExecute.
type ExecuteResponse struct {
	ID        string `msgpack:"id"`
	OK        bool   `msgpack:"ok"`
	TimeTaken int64  `msgpack:"t"`
}

// StatusResponse answers refresh ops and the ready signal.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
	Error  string `msgpack:"error,omitempty"`
	Count  int    `msgpack:"c,omitempty"`
}

// RecentResponse answers OpRecent.
type RecentResponse struct {
	ID      string   `msgpack:"id"`
	Queries []string `msgpack:"s"`
}

// HealthResponse answers OpHealth.
type HealthResponse struct {
	ID         string `msgpack:"id"`
	Status     string `msgpack:"status"`
	Commands   int    `msgpack:"commands"`
	Aliases    int    `msgpack:"aliases"`
	Pipelines  int    `msgpack:"pipelines"`
	IndexKeys  int    `msgpack:"index_keys"`
	ScoreCalls int64  `msgpack:"score_calls"`
	Requests   int64  `msgpack:"requests"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
