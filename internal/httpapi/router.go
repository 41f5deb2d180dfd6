package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/services/monitor"
)

// Checker is the part of the monitor service the HTTP surface needs.
type Checker interface {
	Run(ctx context.Context)
	LastCycle() (monitor.CycleStats, bool)
}

type Handler struct {
	checker Checker
}

func NewHandler(checker Checker) *Handler {
	return &Handler{checker: checker}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealthz)
	r.Get("/status", h.handleStatus)
	r.Post("/check", h.handleCheck)
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Post("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/allocs", pprof.Handler("allocs").ServeHTTP)
		r.Get("/block", pprof.Handler("block").ServeHTTP)
		r.Get("/goroutine", pprof.Handler("goroutine").ServeHTTP)
		r.Get("/heap", pprof.Handler("heap").ServeHTTP)
		r.Get("/mutex", pprof.Handler("mutex").ServeHTTP)
		r.Get("/threadcreate", pprof.Handler("threadcreate").ServeHTTP)
	})
	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	last, ok := h.checker.LastCycle()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"message": "no check has completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		LastRun    monitor.CycleStats `json:"last_run"`
		LastRunAgo string             `json:"last_run_ago"`
	}{
		LastRun:    last,
		LastRunAgo: humanize.Time(last.FinishedAt),
	})
}

func (h *Handler) handleCheck(w http.ResponseWriter, _ *http.Request) {
	go h.checker.Run(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "check started"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
