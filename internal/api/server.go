package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sagemaker-client/internal/config"
	"sagemaker-client/internal/history"
	"sagemaker-client/internal/models"
	"sagemaker-client/internal/telemetry"
	"sagemaker-client/smclient"
)

// WatchStore is the slice of the history store the API needs.
type WatchStore interface {
	CreateWatch(ctx context.Context, jobName, kind, tenant string, nextPoll time.Time) (models.JobWatch, bool, error)
	GetWatch(ctx context.Context, jobName string) (models.JobWatch, error)
	CancelWatch(ctx context.Context, jobName string) (bool, error)
	ListTransitions(ctx context.Context, jobName string) ([]models.Transition, error)
}

// WatchQueue is the slice of the poll queue the API needs.
type WatchQueue interface {
	Register(ctx context.Context, jobName, kind string, pollAt time.Time) error
	Retire(ctx context.Context, jobName string) error
}

// Describer serves live status lookups that bypass the watch tables.
type Describer interface {
	DescribeJob(ctx context.Context, name string, kind smclient.JobKind) (*smclient.JobDescription, error)
}

// Limiter gates registration per tenant.
type Limiter interface {
	Allow(ctx context.Context, tenant string) (bool, float64, error)
}

// Server wires HTTP handlers for the watch API.
type Server struct {
	cfg      config.Config
	store    WatchStore
	queue    WatchQueue
	describe Describer
	limiter  Limiter
}

// New constructs the API server.
func New(cfg config.Config, st WatchStore, q WatchQueue, d Describer, limiter Limiter) *Server {
	return &Server{cfg: cfg, store: st, queue: q, describe: d, limiter: limiter}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/metrics", telemetry.Handler())

	r.Post("/watches", s.handleRegister)
	r.Get("/watches/{name}", s.handleGetWatch)
	r.Get("/watches/{name}/transitions", s.handleTransitions)
	r.Delete("/watches/{name}", s.handleCancel)
	r.Get("/jobs/{name}/status", s.handleLiveStatus)
	return r
}

type registerRequest struct {
	JobName      string `json:"job_name"`
	Kind         string `json:"kind"`
	DelaySeconds int    `json:"delay_seconds"`
}

type registerResponse struct {
	Watch    models.JobWatch `json:"watch"`
	Existing bool            `json:"existing"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.JobName == "" {
		http.Error(w, "job_name is required", http.StatusBadRequest)
		return
	}
	if _, err := smclient.ParseJobKind(req.Kind); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tenant := tenantFromRequest(r)
	if s.limiter != nil {
		allowed, _, err := s.limiter.Allow(r.Context(), tenant)
		if err != nil {
			http.Error(w, "rate limit error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			telemetry.RateLimitRejects.Inc()
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
	}

	pollAt := time.Now()
	if req.DelaySeconds > 0 {
		pollAt = pollAt.Add(time.Duration(req.DelaySeconds) * time.Second)
	}

	watch, existing, err := s.store.CreateWatch(r.Context(), req.JobName, req.Kind, tenant, pollAt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !existing {
		if err := s.queue.Register(r.Context(), watch.JobName, watch.Kind, pollAt); err != nil {
			http.Error(w, "register failed", http.StatusInternalServerError)
			return
		}
		telemetry.WatchesRegistered.Inc()
	}

	writeJSON(w, http.StatusAccepted, registerResponse{Watch: watch, Existing: existing})
}

func (s *Server) handleGetWatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	watch, err := s.store.GetWatch(r.Context(), name)
	if err != nil {
		if errors.Is(err, history.ErrWatchNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, watch)
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.store.GetWatch(r.Context(), name); err != nil {
		if errors.Is(err, history.ErrWatchNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	transitions, err := s.store.ListTransitions(r.Context(), name)
	if err != nil {
		http.Error(w, "failed to list transitions", http.StatusInternalServerError)
		return
	}
	if transitions == nil {
		transitions = []models.Transition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transitions": transitions})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cancelled, err := s.store.CancelWatch(r.Context(), name)
	if err != nil {
		http.Error(w, "failed to cancel watch", http.StatusInternalServerError)
		return
	}
	if !cancelled {
		http.Error(w, "watch is not active", http.StatusConflict)
		return
	}
	if err := s.queue.Retire(r.Context(), name); err != nil {
		http.Error(w, "failed to remove watch from queue", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleLiveStatus describes the job directly instead of reading the watch
// tables, for callers that want the freshest status.
func (s *Server) handleLiveStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	kind, err := smclient.ParseJobKind(r.URL.Query().Get("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	desc, err := s.describe.DescribeJob(r.Context(), name, kind)
	if err != nil {
		if errors.Is(err, smclient.ErrDoesNotExist) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_name":       desc.Name,
		"kind":           string(desc.Kind),
		"status":         desc.Status,
		"failure_reason": desc.FailureReason,
		"terminal":       desc.Terminal(),
	})
}

func tenantFromRequest(r *http.Request) string {
	if v := r.Header.Get("X-Tenant-ID"); v != "" {
		return v
	}
	return "default"
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
