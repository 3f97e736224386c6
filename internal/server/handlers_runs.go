package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/recruiting-agent/internal/db"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// RunStore reads recorded workflow runs
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRunDetail(ctx context.Context, runID uuid.UUID) (*db.RunDetail, error)
}

var _ RunStore = (*db.DB)(nil)

func (s *Server) runStore() (RunStore, error) {
	if s.deps.Runs == nil {
		return nil, &APIError{Status: http.StatusServiceUnavailable, Message: "run history is not configured"}
	}
	return s.deps.Runs, nil
}

// handleListRuns returns the most recent runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	store, err := s.runStore()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			s.errorResponse(w, badRequest("limit must be an integer between 1 and 200", nil))
			return
		}
		limit = n
	}

	runs, err := store.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns a run with its steps and artifacts
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	store, err := s.runStore()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, badRequest("invalid run ID", err))
		return
	}

	detail, err := store.GetRunDetail(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if detail == nil {
		s.errorResponse(w, notFound("run not found"))
		return
	}
	s.jsonResponse(w, http.StatusOK, detail)
}
