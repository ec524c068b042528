package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"hireflow/internal/jobs"
	"hireflow/internal/logger"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JobTrigger runs a named job on demand.
type JobTrigger interface {
	RunJob(name string) error
	JobNames() []string
}

// OpsHandler serves liveness, readiness and manual job triggers.
type OpsHandler struct {
	store        Pinger
	jobs         JobTrigger
	readyTimeout time.Duration
}

func NewOpsHandler(store Pinger, jobs JobTrigger) *OpsHandler {
	return &OpsHandler{store: store, jobs: jobs, readyTimeout: 2 * time.Second}
}

// Router builds the ops routes.
func (h *OpsHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.HandleReady).Methods(http.MethodGet)
	r.HandleFunc("/jobs", h.HandleListJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{name}", h.HandleRunJob).Methods(http.MethodPost)
	return r
}

func (h *OpsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OpsHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		logger.Warn("Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *OpsHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"jobs": h.jobs.JobNames()})
}

func (h *OpsHandler) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	logger.Info("Manual job trigger", "job", name, "remote", r.RemoteAddr)

	err := h.jobs.RunJob(name)
	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		writeJSON(w, http.StatusNotFound, map[string]string{"job": name, "error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"job": name, "error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"job": name, "status": "completed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}
