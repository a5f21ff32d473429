package api

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderpulse/orderpulse/internal/engine"
	"github.com/orderpulse/orderpulse/internal/metrics"
	"github.com/orderpulse/orderpulse/internal/order"
	"github.com/orderpulse/orderpulse/internal/store"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	store store.Store
	eng   *engine.Engine
	feed  http.Handler
	mux   *http.ServeMux
}

// New creates an HTTP handler and registers all routes. feed may be nil when
// the websocket dashboard is disabled.
func New(st store.Store, eng *engine.Engine, feed http.Handler) http.Handler {
	h := &Handler{store: st, eng: eng, feed: feed, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/orders", h.ingestOrder)
	h.mux.HandleFunc("POST /v1/orders/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/orders/{key}/metrics", h.orderMetrics)
	h.mux.HandleFunc("POST /v1/passes", h.triggerPass)
	h.mux.HandleFunc("GET /v1/passes/latest", h.latestPass)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())
	if feed != nil {
		h.mux.Handle("GET /v1/feed", feed)
	}

	return loggingMiddleware(h.mux)
}

// POST /v1/orders — synchronous single-order ingestion.
func (h *Handler) ingestOrder(w http.ResponseWriter, r *http.Request) {
	var raw order.Raw
	if err := readJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if raw.SellerNP == "" || raw.NetworkOrderID == "" {
		writeError(w, http.StatusBadRequest, "seller_np and network_order_id are required")
		return
	}

	rec := order.Enrich(raw)
	if err := h.store.Upsert(rec); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.OrdersIngested.WithLabelValues("http").Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":    rec.Key,
		"status": rec.Status,
	})
}

// POST /v1/orders/batch — batch ingestion (up to 100 orders) with per-batch
// order weights.
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var raws []order.Raw
	if err := readJSON(w, r, &raws); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(raws) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one order")
		return
	}
	if len(raws) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(raws), maxBatchSize))
		return
	}

	valid := make([]order.Raw, 0, len(raws))
	rejected := 0
	for _, raw := range raws {
		if raw.SellerNP == "" || raw.NetworkOrderID == "" {
			rejected++
			continue
		}
		valid = append(valid, raw)
	}

	// Duplicate rows inside one batch carry weight 0; skipping them keeps
	// the stored record at weight 1 for each order.
	recs := order.EnrichBatch(valid)
	accepted, duplicates := 0, 0
	for _, rec := range recs {
		if rec.NoKey == 0 {
			duplicates++
			continue
		}
		if err := h.store.Upsert(rec); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		accepted++
	}
	metrics.OrdersIngested.WithLabelValues("http").Add(float64(accepted))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"total":      len(raws),
		"accepted":   accepted,
		"duplicates": duplicates,
		"rejected":   rejected,
	})
}

// GET /v1/orders/{key}/metrics — derive the one record on demand.
func (h *Handler) orderMetrics(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	row, ok, err := h.eng.Evaluate(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no order with key %q", key))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// POST /v1/passes — run a full derivation pass now.
func (h *Handler) triggerPass(w http.ResponseWriter, r *http.Request) {
	sum, err := h.eng.Pass(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /v1/passes/latest — most recent pass summary.
func (h *Handler) latestPass(w http.ResponseWriter, r *http.Request) {
	sum := h.eng.Last()
	if sum == nil {
		writeError(w, http.StatusNotFound, "no pass has run yet")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the store is unavailable or the pass queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
		return
	}
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
