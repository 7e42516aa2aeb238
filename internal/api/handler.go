package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/blockwatch/internal/engine"
	"github.com/gyaneshwarpardhi/blockwatch/internal/event"
)

const maxBatchSize = 1000

// Pinger reports backend reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng     *engine.Engine
	backend Pinger
	mux     *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
// metrics is served at /metrics; pass promhttp.Handler() for the default registry.
func New(eng *engine.Engine, backend Pinger, metrics http.Handler) http.Handler {
	h := &Handler{eng: eng, backend: backend, mux: http.NewServeMux()}
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	h.mux.HandleFunc("POST /v1/events", h.submitEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.submitBatch)
	h.mux.HandleFunc("POST /v1/events/explosion", h.submitExplosion)
	h.mux.HandleFunc("POST /v1/flush", h.flush)
	h.mux.HandleFunc("GET /v1/stats", h.stats)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", metrics)

	return loggingMiddleware(h.mux)
}

// eventRequest is what producers send. Timestamp is optional and defaults to
// the time the request was received.
type eventRequest struct {
	Timestamp *time.Time   `json:"timestamp,omitempty"`
	Actor     string       `json:"actor"`
	Action    event.Action `json:"action"`
	World     int          `json:"world"`
	X         int          `json:"x"`
	Y         int          `json:"y"`
	Z         int          `json:"z"`
	Type      int          `json:"type"`
	Data      string       `json:"data"`
}

func (r eventRequest) toEvent(now time.Time) (event.Event, error) {
	if r.Actor == "" {
		return event.Event{}, fmt.Errorf("actor is required")
	}
	if !r.Action.Known() {
		return event.Event{}, fmt.Errorf("unknown action %s", r.Action)
	}
	ev := event.New(r.Actor, r.Action, r.World, r.X, r.Y, r.Z, r.Type, r.Data)
	ev.Timestamp = now
	if r.Timestamp != nil {
		ev.Timestamp = *r.Timestamp
	}
	return ev, nil
}

// POST /v1/events: queue one event for the next flush cycle.
func (h *Handler) submitEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	ev, err := req.toEvent(time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.eng.Submit(ev)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"queued": 1})
}

// POST /v1/events/batch: queue up to 1000 events.
func (h *Handler) submitBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []eventRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	if len(reqs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(reqs), maxBatchSize))
		return
	}

	now := time.Now()
	evs := make([]event.Event, 0, len(reqs))
	for i, req := range reqs {
		ev, err := req.toEvent(now)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("events[%d]: %s", i, err))
			return
		}
		evs = append(evs, ev)
	}
	h.eng.SubmitAll(evs)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": uuid.New().String(),
		"queued": len(evs),
	})
}

type explosionRequest struct {
	Action event.Action  `json:"action"`
	Actor  string        `json:"actor,omitempty"`
	World  int           `json:"world"`
	Blocks []event.Block `json:"blocks"`
}

// POST /v1/events/explosion: one event per affected block.
func (h *Handler) submitExplosion(w http.ResponseWriter, r *http.Request) {
	var req explosionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if !event.IsExplosion(req.Action) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is not an explosion action", req.Action))
		return
	}
	if len(req.Blocks) == 0 {
		writeError(w, http.StatusBadRequest, "blocks must not be empty")
		return
	}
	if len(req.Blocks) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%d blocks exceeds max %d", len(req.Blocks), maxBatchSize))
		return
	}

	var evs []event.Event
	switch {
	case req.Action == event.CreeperExploded:
		evs = event.CreeperExplosion(req.Blocks, req.World)
	case req.Actor == "":
		evs = event.Explosion(req.Action, event.Environment, req.Blocks, req.World)
	default:
		evs = event.Explosion(req.Action, req.Actor, req.Blocks, req.World)
	}
	h.eng.SubmitAll(evs)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"queued": len(evs)})
}

// POST /v1/flush: run a flush cycle now.
func (h *Handler) flush(w http.ResponseWriter, r *http.Request) {
	res := h.eng.Flush(r.Context())
	status := http.StatusOK
	if res.Failed() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// GET /v1/stats: queue depth, persisted count and the last cycle.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Stats())
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the backend is unreachable or the last cycle failed.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	depth := h.eng.QueueLen()
	if h.backend != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.backend.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":      "backend_unreachable",
				"error":       err.Error(),
				"queue_depth": depth,
			})
			return
		}
	}
	if last, ok := h.eng.LastFlush(); ok && last.Failed() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":      "persisting_failed",
			"error":       last.Error,
			"queue_depth": depth,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ready",
		"queue_depth": depth,
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
