package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/internal/utils"
	"github.com/bastiangx/palette/pkg/search"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultMaxQueryLen caps query length when no limit is configured.
const DefaultMaxQueryLen = 256

// RecentStore lists recent searches.
type RecentStore interface {
	Recent() []string
}

// Server handles the IPC for palette searches
type Server struct {
	svc         *search.Service
	recent      RecentStore
	maxQueryLen int
	log         *log.Logger

	dec      *msgpack.Decoder
	enc      *msgpack.Encoder
	requests int64
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(svc *search.Service, recent RecentStore, maxQueryLen int, l *log.Logger) *Server {
	return NewServerWithIO(svc, recent, maxQueryLen, os.Stdin, os.Stdout, l)
}

// NewServerWithIO creates a server over arbitrary streams.
func NewServerWithIO(svc *search.Service, recent RecentStore, maxQueryLen int, r io.Reader, w io.Writer, l *log.Logger) *Server {
	if maxQueryLen <= 0 {
		maxQueryLen = DefaultMaxQueryLen
	}
	return &Server{
		svc:         svc,
		recent:      recent,
		maxQueryLen: maxQueryLen,
		log:         logger.OrDefault(l, "server"),
		dec:         msgpack.NewDecoder(r),
		enc:         msgpack.NewEncoder(w),
	}
}

// Start signals readiness and serves requests until the input ends or ctx
// is cancelled. A clean end of input returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting server")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.log.Debug("input closed", "requests", s.requests)
				return nil
			}
			s.log.Error("decoding request", "err", err)
			_ = s.sendError("", "invalid msgpack request", 400)
			return fmt.Errorf("decode request: %w", err)
		}

		s.requests++
		if err := s.handle(ctx, req); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

func (s *Server) handle(ctx context.Context, req Request) error {
	switch req.Op {
	case OpCommands:
		return s.handleCommands(ctx, req)
	case OpPipelines:
		return s.handlePipelines(ctx, req)
	case OpExecute:
		return s.handleExecute(ctx, req)
	case OpRefreshAliases:
		err := s.svc.RefreshAliases(ctx)
		return s.sendStatus(req.ID, err, len(s.svc.Resolver().Aliases()))
	case OpRefreshPipelines:
		err := s.svc.Pipelines().Refresh(ctx)
		return s.sendStatus(req.ID, err, len(s.svc.Pipelines().Pipelines()))
	case OpRecent:
		return s.handleRecent(req)
	case OpHealth:
		st := s.svc.Stats()
		return s.send(HealthResponse{
			ID:         req.ID,
			Status:     "ok",
			Commands:   st.Commands,
			Aliases:    st.Aliases,
			Pipelines:  st.Pipelines.Pipelines,
			IndexKeys:  st.IndexKeys,
			ScoreCalls: st.ScoreCalls,
			Requests:   s.requests,
		})
	case "":
		return s.sendError(req.ID, "missing 'op'", 400)
	default:
		return s.sendError(req.ID, fmt.Sprintf("unknown op: %s", req.Op), 400)
	}
}

func (s *Server) validQuery(req Request) (bool, error) {
	if utils.RuneLen(req.Query) > s.maxQueryLen {
		return false, s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d characters", s.maxQueryLen), 400)
	}
	if req.Query != "" && !utils.IsValidInput(req.Query) {
		return false, s.sendError(req.ID, "query contains control characters", 400)
	}
	return true, nil
}

func (s *Server) handleCommands(ctx context.Context, req Request) error {
	if ok, err := s.validQuery(req); !ok {
		return err
	}

	start := time.Now()
	matches := s.svc.SearchCommands(ctx, req.Query, req.Limit)
	elapsed := time.Since(start)

	out := make([]CommandSuggestion, len(matches))
	for i, m := range matches {
		out[i] = CommandSuggestion{
			ID:          m.Command.ID,
			Name:        m.Command.Name,
			Description: m.Command.Description,
			Score:       m.Score,
			Rank:        uint16(i + 1),
			Input:       m.InputParams,
		}
		if m.Alias != nil {
			out[i].Alias = m.Alias.Name
		}
	}
	s.log.Debug("commands", "q", req.Query, "count", len(out), "took", elapsed)
	return s.send(CommandsResponse{
		ID:          req.ID,
		Suggestions: out,
		Count:       len(out),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handlePipelines(ctx context.Context, req Request) error {
	if ok, err := s.validQuery(req); !ok {
		return err
	}

	start := time.Now()
	found := s.svc.SearchPipelines(ctx, req.Query, req.Limit)
	elapsed := time.Since(start)

	out := make([]PipelineSuggestion, len(found))
	for i, sg := range found {
		p := sg.Pipeline
		out[i] = PipelineSuggestion{
			Organization: p.Organization,
			Slug:         p.Slug,
			Name:         p.Name,
			Description:  p.Description,
			Emoji:        p.Emoji,
			Score:        sg.Score,
			Rank:         uint16(i + 1),
		}
	}
	return s.send(PipelinesResponse{
		ID:          req.ID,
		Suggestions: out,
		Count:       len(out),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleExecute(ctx context.Context, req Request) error {
	if req.CommandID == "" {
		return s.sendError(req.ID, "missing 'cmd'", 400)
	}
	cmd, ok := s.svc.Registry().GetByID(req.CommandID)
	if !ok {
		return s.sendError(req.ID, fmt.Sprintf("unknown command: %s", req.CommandID), 404)
	}
	if !cmd.IsAvailable() {
		return s.sendError(req.ID, fmt.Sprintf("command unavailable: %s", req.CommandID), 409)
	}

	start := time.Now()
	done := s.svc.ExecuteCommand(ctx, cmd, req.Input, search.ExecOptions{SkipUsage: req.SkipUsage})
	return s.send(ExecuteResponse{
		ID:        req.ID,
		OK:        done,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleRecent(req Request) error {
	if req.Query != "" {
		s.svc.RecordSearch(req.Query)
	}
	queries := []string{}
	if s.recent != nil {
		queries = s.recent.Recent()
	}
	return s.send(RecentResponse{ID: req.ID, Queries: queries})
}

func (s *Server) sendStatus(id string, err error, count int) error {
	resp := StatusResponse{ID: id, Status: "ok", Count: count}
	if err != nil {
		resp.Status = "error"
		resp.Error = err.Error()
	}
	return s.send(resp)
}

func (s *Server) send(v any) error {
	if err := s.enc.Encode(v); err != nil {
		s.log.Error("encoding response", "err", err)
		return err
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
