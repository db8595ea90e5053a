// Package cli handles cmd line input for debugging the palette search in real time.
package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/palette/internal/utils"
	"github.com/bastiangx/palette/pkg/search"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

var (
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	aliasStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
)

// InputHandler reads queries line by line and prints ranked results.
//
// Plain lines search commands. A few prefixed lines do more:
//
//	:p <query>         search pipelines
//	:run <id> [input]  execute a command
//	:save <query>      record a recent search
//	:recent            list recent searches
//	:stats             print service counters
type InputHandler struct {
	svc          *search.Service
	recent       func() []string
	limit        int
	maxQueryLen  int
	noFilter     bool
	requestCount int
	log          *log.Logger
}

// NewInputHandler creates the handler. recent may be nil.
func NewInputHandler(svc *search.Service, recent func() []string, limit, maxQueryLen int, noFilter bool, l *log.Logger) *InputHandler {
	if l == nil {
		l = log.Default()
	}
	return &InputHandler{
		svc:         svc,
		recent:      recent,
		limit:       limit,
		maxQueryLen: maxQueryLen,
		noFilter:    noFilter,
		log:         l,
	}
}

// Start runs the loop until r is exhausted or ctx is cancelled.
func (h *InputHandler) Start(ctx context.Context, r io.Reader) error {
	h.log.Print("Palette CLI [DBG]")
	h.log.Print("type a query and press Enter (Ctrl+C to exit):")

	scanner := bufio.NewScanner(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.log.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h.handleInput(ctx, line)
	}
}

func (h *InputHandler) handleInput(ctx context.Context, line string) {
	h.requestCount++

	if utils.RuneLen(line) > h.maxQueryLen {
		h.log.Errorf("Query too long: %d > %d", utils.RuneLen(line), h.maxQueryLen)
		return
	}
	if !h.noFilter && !utils.IsValidInput(line) {
		h.log.Warnf("Query filtered out: %q", line)
		return
	}

	switch {
	case line == ":recent":
		h.printRecent()
	case line == ":stats":
		h.printStats()
	case strings.HasPrefix(line, ":save "):
		h.svc.RecordSearch(strings.TrimPrefix(line, ":save "))
		h.log.Print("saved")
	case strings.HasPrefix(line, ":p "):
		h.searchPipelines(ctx, strings.TrimPrefix(line, ":p "))
	case strings.HasPrefix(line, ":run "):
		h.run(ctx, strings.TrimPrefix(line, ":run "))
	default:
		h.searchCommands(ctx, line)
	}
}

func (h *InputHandler) searchCommands(ctx context.Context, query string) {
	start := time.Now()
	matches := h.svc.SearchCommands(ctx, query, h.limit)
	elapsed := time.Since(start)
	h.log.Debugf("Took [ %v ] for query '%s'", elapsed, query)

	if len(matches) == 0 {
		h.log.Warnf("No commands found for '%s'", query)
		return
	}

	h.log.Printf("Found %d commands for '%s':", len(matches), query)
	for i, m := range matches {
		line := nameStyle.Render(m.Command.Name)
		if m.Alias != nil {
			line += " " + aliasStyle.Render("via /"+m.Alias.Name)
		}
		h.log.Printf("%3s %-48s (score: %3d, id: %s)", humanize.Ordinal(i+1), line, m.Score, m.Command.ID)
	}
}

func (h *InputHandler) searchPipelines(ctx context.Context, query string) {
	found := h.svc.SearchPipelines(ctx, query, h.limit)
	if len(found) == 0 {
		h.log.Warnf("No pipelines found for '%s'", query)
		return
	}
	h.log.Printf("Found %d pipelines for '%s':", len(found), query)
	for i, s := range found {
		h.log.Printf("%3s %-48s (score: %s)", humanize.Ordinal(i+1),
			nameStyle.Render(s.Pipeline.Key()), humanize.FtoaWithDigits(s.Score, 1))
	}
}

func (h *InputHandler) run(ctx context.Context, args string) {
	id, input, _ := strings.Cut(strings.TrimSpace(args), " ")
	cmd, ok := h.svc.Registry().GetByID(id)
	if !ok {
		h.log.Errorf("Unknown command: %s", id)
		return
	}
	if h.svc.ExecuteCommand(ctx, cmd, strings.TrimSpace(input), search.ExecOptions{}) {
		h.log.Printf("ran %s", id)
		return
	}
	h.log.Errorf("%s failed, see log above", id)
}

func (h *InputHandler) printRecent() {
	if h.recent == nil {
		h.log.Warn("No preference store")
		return
	}
	for i, q := range h.recent() {
		h.log.Printf("%2d. %s", i+1, q)
	}
}

func (h *InputHandler) printStats() {
	st := h.svc.Stats()
	h.log.Print("stats",
		"commands", humanize.Comma(int64(st.Commands)),
		"aliases", humanize.Comma(int64(st.Aliases)),
		"index_keys", humanize.Comma(int64(st.IndexKeys)),
		"score_calls", humanize.Comma(st.ScoreCalls),
		"pipelines", humanize.Comma(int64(st.Pipelines.Pipelines)),
		"requests", humanize.Comma(int64(h.requestCount)),
	)
	if !st.Pipelines.LastRefresh.IsZero() {
		h.log.Print("pipelines refreshed", "when", humanize.Time(st.Pipelines.LastRefresh))
	}
}
