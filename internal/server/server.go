package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/batch"
	"github.com/jonathan/recruiting-agent/internal/config"
	"github.com/jonathan/recruiting-agent/internal/ingestion"
	"github.com/jonathan/recruiting-agent/internal/logging"
	"github.com/jonathan/recruiting-agent/internal/metrics"
	"github.com/jonathan/recruiting-agent/internal/ranking"
	"github.com/jonathan/recruiting-agent/internal/server/middleware"
	"github.com/jonathan/recruiting-agent/internal/server/ratelimit"
)

// maxBodyBytes caps request bodies; batches of long job descriptions fit comfortably.
const maxBodyBytes = 10 << 20

// Config holds server configuration
type Config struct {
	Port        int
	JWT         config.JWTConfig
	RateLimit   *ratelimit.Config
	CORSOrigins []string
	// DefaultTopK is used when a candidate request has no k parameter
	DefaultTopK int
}

// Deps are the services behind the API. Runs may be nil when no database is configured.
type Deps struct {
	Workflow  batch.Workflow
	Batch     *batch.Processor
	Ingestion *ingestion.Service
	Ranker    *ranking.Ranker
	Runs      RunStore
	Logger    *zap.Logger
}

// Server is the HTTP API
type Server struct {
	cfg         Config
	deps        Deps
	logger      *zap.Logger
	validate    *validator.Validate
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	handler     http.Handler
}

// New creates a server and builds its routes.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Workflow == nil || deps.Batch == nil || deps.Ingestion == nil || deps.Ranker == nil {
		return nil, errors.New("server requires a workflow, batch processor, ingestion service and ranker")
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 10
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		cfg:         cfg,
		deps:        deps,
		logger:      logging.OrNop(deps.Logger),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
	}

	mux := http.NewServeMux()
	s.route(mux, "POST /workflows", s.handleWorkflow)
	s.route(mux, "POST /workflows/stream", s.handleWorkflowStream)
	s.route(mux, "POST /workflows/validate", s.handleValidateWorkflow)
	s.route(mux, "POST /batches", s.handleBatch)
	s.route(mux, "POST /batches/stream", s.handleBatchStream)

	s.route(mux, "POST /jobs", s.handleIngestJob)
	s.route(mux, "POST /jobs/fetch", s.handleFetchJob)
	s.route(mux, "POST /resumes", s.handleIngestResume)
	s.route(mux, "GET /jobs/{id}/candidates", s.handleCandidates)
	s.route(mux, "GET /collections/{name}/count", s.handleCollectionCount)
	s.route(mux, "DELETE /collections/{name}", s.handleClearCollection)

	s.route(mux, "GET /runs", s.handleListRuns)
	s.route(mux, "GET /runs/{id}", s.handleGetRun)
	s.route(mux, "GET /steps", s.handleListSteps)

	s.route(mux, "GET /health", s.handleHealth)
	s.route(mux, "GET /metrics", metrics.Handler().ServeHTTP)

	var handler http.Handler = mux
	if cfg.JWT.Enabled() {
		s.jwtService = NewJWTService(cfg.JWT)
		handler = middleware.AuthMiddleware(s.jwtService.AsTokenValidator(), "/health", "/metrics")(handler)
	}
	s.handler = s.withLogging(s.withCORS(s.withRateLimit(handler)))
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // batch runs stream for a long time
		IdleTimeout:  60 * time.Second,
	}
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", httpServer.Addr), zap.Bool("auth", s.jwtService != nil))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid request body", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return badRequest("invalid request", err)
	}
	return nil
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes err as a JSON error with the status from HTTPStatus.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}

// clientID identifies the caller for rate limiting by remote IP.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
