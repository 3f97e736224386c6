package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/recruiting-agent/internal/fetch"
	"github.com/jonathan/recruiting-agent/internal/ingestion"
	"github.com/jonathan/recruiting-agent/internal/types"
)

// maxTopK bounds the k parameter of candidate searches.
const maxTopK = 100

// DocumentRequest is the body of POST /jobs and POST /resumes
type DocumentRequest struct {
	ID       string            `json:"id"`
	Text     string            `json:"text" validate:"required"`
	Filename string            `json:"filename"`
	Metadata map[string]string `json:"metadata"`
}

// FetchJobRequest is the body of POST /jobs/fetch
type FetchJobRequest struct {
	URL      string            `json:"url" validate:"required,url"`
	Metadata map[string]string `json:"metadata"`
}

// DocumentResponse identifies a stored document
type DocumentResponse struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
}

// FetchJobResponse describes a job posting stored from a URL
type FetchJobResponse struct {
	DocumentResponse
	Title     string         `json:"title,omitempty"`
	Platform  fetch.Platform `json:"platform"`
	FromCache bool           `json:"from_cache"`
	Rendered  bool           `json:"rendered"`
	Chars     int            `json:"chars"`
}

// CandidatesResponse is the ranked result of GET /jobs/{id}/candidates
type CandidatesResponse struct {
	JobID      string            `json:"job_id"`
	Candidates []types.Candidate `json:"candidates"`
}

// CountResponse is the size of a collection
type CountResponse struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
}

func (req DocumentRequest) document() ingestion.Document {
	return ingestion.Document{ID: req.ID, Text: req.Text, Filename: req.Filename, Extra: req.Metadata}
}

// handleIngestJob stores a job description
func (s *Server) handleIngestJob(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	id, err := s.deps.Ingestion.IngestJob(r.Context(), req.document())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, DocumentResponse{ID: id, Collection: s.deps.Ingestion.Collections().Jobs})
}

// handleIngestResume stores a resume
func (s *Server) handleIngestResume(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	id, err := s.deps.Ingestion.IngestResume(r.Context(), req.document())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, DocumentResponse{ID: id, Collection: s.deps.Ingestion.Collections().Resumes})
}

// handleFetchJob fetches a job posting and stores it
func (s *Server) handleFetchJob(w http.ResponseWriter, r *http.Request) {
	var req FetchJobRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	id, posting, err := s.deps.Ingestion.IngestJobFromURL(r.Context(), req.URL, req.Metadata)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, FetchJobResponse{
		DocumentResponse: DocumentResponse{ID: id, Collection: s.deps.Ingestion.Collections().Jobs},
		Title:            posting.Title,
		Platform:         posting.Platform,
		FromCache:        posting.FromCache,
		Rendered:         posting.Rendered,
		Chars:            len(posting.Text),
	})
}

// handleCandidates ranks stored resumes against a stored job
func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	k := s.cfg.DefaultTopK
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopK {
			s.errorResponse(w, badRequest("k must be an integer between 1 and 100", nil))
			return
		}
		k = n
	}

	candidates, err := s.deps.Ranker.RankCandidates(r.Context(), jobID, k)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, CandidatesResponse{JobID: jobID, Candidates: candidates})
}

// collection resolves a configured collection name or one of its aliases.
func (s *Server) collection(name string) (string, error) {
	c := s.deps.Ingestion.Collections()
	switch name {
	case "jobs", "job_descriptions", c.Jobs:
		return c.Jobs, nil
	case "resumes", c.Resumes:
		return c.Resumes, nil
	}
	return "", notFound("unknown collection " + name)
}

// handleCollectionCount returns the number of documents in a collection
func (s *Server) handleCollectionCount(w http.ResponseWriter, r *http.Request) {
	name, err := s.collection(r.PathValue("name"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	n, err := s.deps.Ingestion.Count(r.Context(), name)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, CountResponse{Collection: name, Count: n})
}

// handleClearCollection deletes every document in a collection
func (s *Server) handleClearCollection(w http.ResponseWriter, r *http.Request) {
	name, err := s.collection(r.PathValue("name"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := s.deps.Ingestion.Clear(r.Context(), name); err != nil {
		s.errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
