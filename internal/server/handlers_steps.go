package server

import (
	"net/http"

	"github.com/jonathan/recruiting-agent/internal/pipeline/steps"
)

// StepsResponse lists the workflow steps and, given the completed ones, which can run next
type StepsResponse struct {
	Steps     []steps.StepDefinition `json:"steps"`
	Completed []string               `json:"completed"`
	Available []string               `json:"available"`
	Blocked   []string               `json:"blocked"`
}

// handleListSteps returns the step catalogue. The completed query parameter
// takes a comma-separated list of step names.
func (s *Server) handleListSteps(w http.ResponseWriter, r *http.Request) {
	names := splitList(r.URL.Query().Get("completed"))
	completed := make(map[string]bool, len(names))
	for _, name := range names {
		completed[name] = true
	}

	resp := StepsResponse{
		Steps:     steps.All(),
		Completed: names,
		Available: steps.GetAvailableSteps(completed),
		Blocked:   steps.GetBlockedSteps(completed),
	}
	if resp.Completed == nil {
		resp.Completed = []string{}
	}
	if resp.Available == nil {
		resp.Available = []string{}
	}
	if resp.Blocked == nil {
		resp.Blocked = []string{}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
