// Package api implements the collector's HTTP receiver.
//
// New(proc, store) returns an http.Handler that serves:
//
//	POST /api/v1/events  process one execution event, same payload as the Lambda
//	GET  /api/v1/health  liveness plus the number of series held
//	GET  /metrics        latest published points in Prometheus text format
//
// Event errors map onto status codes: a malformed payload is 400, a failed
// history fetch or publish is 502. A filtered event is a 200 with outcome
// "filtered". Wrong methods get 405.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/common/expfmt"

	"github.com/pipelinedash/pipelinedash/collector/internal/event"
	"github.com/pipelinedash/pipelinedash/collector/internal/processor"
	"github.com/pipelinedash/pipelinedash/pkg/cloud"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// maxEventBytes bounds a request body; execution events are a few hundred bytes.
const maxEventBytes = 1 << 20

// EventProcessor handles one raw event payload.
type EventProcessor interface {
	Handle(ctx context.Context, raw []byte) (processor.Outcome, error)
}

// MetricsSource renders the collector's held series.
type MetricsSource interface {
	WriteText(w io.Writer) error
	Count() int
}

// Handler is the HTTP handler for the collector's endpoints.
type Handler struct {
	proc    EventProcessor
	metrics MetricsSource
	mux     *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(proc EventProcessor, metrics MetricsSource) http.Handler {
	h := &Handler{proc: proc, metrics: metrics, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/events", h.events)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/metrics", h.exposition)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// events handles POST /api/v1/events.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	out, err := h.proc.Handle(r.Context(), raw)
	switch {
	case err == nil:
	case errors.Is(err, event.ErrMalformed):
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	case cloud.IsUpstream(err):
		jsonErr(w, http.StatusBadGateway, err.Error())
		return
	default:
		slog.Error("api: event processing failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	points := out.Points
	if points == nil {
		points = []types.MetricPoint{}
	}
	jsonResp(w, http.StatusOK, EventResponse{
		Outcome:   out.Status(),
		Reason:    string(out.Reason),
		Points:    points,
		Anomalies: out.Anomalies,
	})
}

// health handles GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok", SeriesCount: h.metrics.Count()})
}

// exposition handles GET /metrics.
func (h *Handler) exposition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	if err := h.metrics.WriteText(w); err != nil {
		slog.Error("api: write exposition", "err", err)
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
