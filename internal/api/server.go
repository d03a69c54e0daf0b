package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psantana5/tunnelsup/internal/report"
	"github.com/psantana5/tunnelsup/internal/tunnel"
)

// StatusSource is satisfied by *tunnel.Supervisor.
type StatusSource interface {
	Status() tunnel.Status
}

// RunSource is satisfied by *report.History.
type RunSource interface {
	Recent(n int) []report.Result
}

// Handler serves the supervisor's status endpoints
type Handler struct {
	source StatusSource
	runs   RunSource
}

// NewRouter wires /healthz, /status, /runs and /metrics.
func NewRouter(source StatusSource, runs RunSource, gatherer prometheus.Gatherer) *mux.Router {
	h := &Handler{source: source, runs: runs}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/runs", h.Runs).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// NewServer returns an http.Server for handler on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Health always answers ok; it says the supervisor process is up, not the tunnel.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status returns the supervisor snapshot. A tracked tunnel whose pid has
// vanished is reported with 503.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.source.Status()

	code := http.StatusOK
	if st.State == tunnel.StateRunning && !st.Alive {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, st)
}

// Runs lists finished runs, newest first. ?limit=N caps the list.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	runs := h.runs.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
