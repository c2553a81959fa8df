package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yapay-ai/aws-budget-guardian/internal/metrics"
	"github.com/yapay-ai/aws-budget-guardian/pkg/model"
)

// Job is a runnable unit of work that reports how its run went.
type Job interface {
	Run(ctx context.Context) model.RunResult
}

// Server exposes the jobs over HTTP, plus health and metrics endpoints.
type Server struct {
	sync    Job
	harvest Job
	mux     *http.ServeMux
	logger  *slog.Logger
}

// NewServer creates an API server around the two jobs.
func NewServer(sync, harvest Job, logger *slog.Logger) *Server {
	s := &Server{
		sync:    sync,
		harvest: harvest,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/jobs/sync", s.handleJob(model.JobSync, s.sync))
	s.mux.HandleFunc("POST /api/v1/jobs/harvest", s.handleJob(model.JobHarvest, s.harvest))
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleJob runs the job inline and answers with its result. The HTTP status
// tracks the run status so callers can alarm on non-2xx; the server's write
// timeout bounds the run.
func (s *Server) handleJob(name string, job Job) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("job triggered", "job", name, "remote", r.RemoteAddr)

		result := job.Run(r.Context())
		metrics.ObserveRun(result)

		w.Header().Set("Content-Type", "application/json")
		if result.Failed() {
			w.WriteHeader(http.StatusInternalServerError)
		}
		json.NewEncoder(w).Encode(result)
	}
}
