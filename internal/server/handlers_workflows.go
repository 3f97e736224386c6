package server

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/batch"
	"github.com/jonathan/recruiting-agent/internal/pipeline"
	"github.com/jonathan/recruiting-agent/internal/types"
	"github.com/jonathan/recruiting-agent/internal/validation"
)

// WorkflowRequest is the body of POST /workflows
type WorkflowRequest struct {
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description" validate:"required"`
	CompanyName    string `json:"company_name"`
	Department     string `json:"department"`
	SalaryFloor    int    `json:"salary_floor" validate:"gte=0"`
	SalaryCeiling  int    `json:"salary_ceiling" validate:"gte=0"`
}

func (r WorkflowRequest) input() types.WorkflowInput {
	return types.JobConfig{
		JobTitle:       r.JobTitle,
		JobDescription: r.JobDescription,
		CompanyName:    r.CompanyName,
		Department:     r.Department,
		SalaryFloor:    r.SalaryFloor,
		SalaryCeiling:  r.SalaryCeiling,
	}.WithDefaults().Input()
}

// WorkflowResponse is a finished workflow run
type WorkflowResponse struct {
	RunID   string               `json:"run_id,omitempty"`
	Outcome string               `json:"outcome"`
	State   *types.WorkflowState `json:"state"`
}

func newWorkflowResponse(state *types.WorkflowState) WorkflowResponse {
	return WorkflowResponse{RunID: state.RunID, Outcome: state.Outcome(), State: state}
}

// BatchResponse summarizes a finished batch
type BatchResponse struct {
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []batch.Result `json:"results"`
}

func newBatchResponse(results []batch.Result) BatchResponse {
	resp := BatchResponse{Results: results}
	for _, r := range results {
		if r.Status == batch.StatusSuccess {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return resp
}

// BatchProgress is streamed before each batch item starts
type BatchProgress struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

// handleWorkflow runs one workflow and returns its final state
func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	var req WorkflowRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	state := s.deps.Workflow.Run(r.Context(), req.input(), nil)
	s.jsonResponse(w, http.StatusOK, newWorkflowResponse(state))
}

// handleValidateWorkflow checks a workflow input without running any stage.
// Rejected input answers 422 with the errors joined into the message.
func (s *Server) handleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req WorkflowRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	result := validation.ValidateInput(req.input())
	if err := validation.AsError("workflow input", result); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleWorkflowStream runs one workflow, streaming progress as SSE
func (s *Server) handleWorkflowStream(w http.ResponseWriter, r *http.Request) {
	var req WorkflowRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	stream, err := openEventStream(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	state := s.deps.Workflow.Run(r.Context(), req.input(), func(event pipeline.ProgressEvent) {
		// the final state is sent once as the result event
		if event.Type == pipeline.EventComplete {
			event.Content = nil
		}
		if err := stream.send(eventProgress, event); err != nil {
			s.logger.Debug("failed to write progress event", zap.Error(err))
		}
	})
	if err := stream.close(r.Context(), newWorkflowResponse(state)); err != nil {
		s.logger.Debug("failed to finish event stream", zap.Error(err))
	}
}

func (s *Server) readBatch(w http.ResponseWriter, r *http.Request) ([]types.JobConfig, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("failed to read request body", err)
	}
	configs, err := batch.ParseConfigs(body)
	if err != nil {
		return nil, badRequest("invalid batch", err)
	}
	if len(configs) == 0 {
		return nil, badRequest("batch is empty", nil)
	}
	return configs, nil
}

// handleBatch runs a batch of workflows and returns every item result
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	configs, err := s.readBatch(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	results := s.deps.Batch.Process(r.Context(), configs, nil)
	s.jsonResponse(w, http.StatusOK, newBatchResponse(results))
}

// handleBatchStream runs a batch, streaming an event before each item
func (s *Server) handleBatchStream(w http.ResponseWriter, r *http.Request) {
	configs, err := s.readBatch(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	stream, err := openEventStream(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	results := s.deps.Batch.Process(r.Context(), configs, func(index, total int, label string) {
		if err := stream.send(eventProgress, BatchProgress{Index: index, Total: total, Label: label}); err != nil {
			s.logger.Debug("failed to write progress event", zap.Error(err))
		}
	})
	if err := stream.close(r.Context(), newBatchResponse(results)); err != nil {
		s.logger.Debug("failed to finish event stream", zap.Error(err))
	}
}
