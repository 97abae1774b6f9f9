// Package server implements the HTTP API of searchd: document lifecycle,
// search, stats, and snapshot management.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/searchlite/searchlite/internal/service"
	"github.com/searchlite/searchlite/internal/snapshot"
	"github.com/searchlite/searchlite/pkg/config"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
	"github.com/searchlite/searchlite/pkg/logger"
	"github.com/searchlite/searchlite/pkg/metrics"
	"github.com/searchlite/searchlite/pkg/textindex"
	"github.com/searchlite/searchlite/pkg/tracing"
)

const maxDocumentBytes = 10 << 20

// Handler carries the dependencies of all HTTP endpoints. The snapshot
// store may be nil when PostgreSQL is not configured; snapshot endpoints
// then answer 503.
type Handler struct {
	svc     *service.Service
	store   *snapshot.Store
	cfg     config.ServerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHandler creates the endpoint handler. store and m may be nil.
func NewHandler(svc *service.Service, store *snapshot.Store, cfg config.ServerConfig, m *metrics.Metrics) *Handler {
	return &Handler{
		svc:     svc,
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  logger.WithComponent("http-server"),
	}
}

// SearchResponse is the wire form of one search window.
type SearchResponse struct {
	Query  string            `json:"query"`
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
	Hits   []textindex.Match `json:"hits"`
}

// PutDocument indexes the request body under the path's document ID.
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	if docID == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "document body too large")
		return
	}
	h.svc.Add(r.Context(), docID, string(body))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDocument removes the document; unknown IDs still answer 204.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	if docID == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}
	h.svc.Remove(r.Context(), docID)
	w.WriteHeader(http.StatusNoContent)
}

// ClearIndex discards every document and posting.
func (h *Handler) ClearIndex(w http.ResponseWriter, r *http.Request) {
	h.svc.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Search answers a ranked window over the matches for ?q, honouring
// ?offset and ?limit. Responses are served from the query cache when one
// is attached.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	offset, ok := intParam(r, "offset", 0)
	if !ok || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	limit, ok := intParam(r, "limit", h.cfg.DefaultLimit)
	if !ok || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if limit > h.cfg.MaxLimit {
		limit = h.cfg.MaxLimit
	}

	ctx, span := tracing.StartSpan(ctx, "search", logger.RequestID(ctx))
	span.SetAttr("query", query)

	compute := func() ([]byte, error) {
		results := h.svc.Search(ctx, query)
		resp := SearchResponse{
			Query:  query,
			Total:  results.Count(),
			Offset: offset,
			Limit:  limit,
			Hits:   results.Slice(offset, offset+limit),
		}
		return json.Marshal(resp)
	}

	var payload []byte
	var err error
	cacheStatus := "off"
	if qc := h.svc.Cache(); qc != nil {
		var cached bool
		payload, cached, err = qc.GetOrCompute(ctx, query, offset, limit, compute)
		cacheStatus = "miss"
		if cached {
			cacheStatus = "hit"
		}
		if h.metrics != nil {
			h.metrics.CircuitBreakerState.WithLabelValues("query-cache").Set(float64(qc.BreakerState()))
		}
	} else {
		payload, err = compute()
	}
	span.SetAttr("cache", cacheStatus)
	span.End()

	if err != nil {
		h.logger.Error("search failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		h.recordSearch("error", cacheStatus, 0, time.Since(start))
		return
	}

	var resp SearchResponse
	outcome := "hit"
	if jsonErr := json.Unmarshal(payload, &resp); jsonErr == nil && resp.Total == 0 {
		outcome = "zero_result"
	}
	h.recordSearch(outcome, cacheStatus, resp.Total, time.Since(start))
	logger.FromContext(ctx).Debug("search served",
		"query", query,
		"total", resp.Total,
		"cache", cacheStatus,
	)

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// Stats reports index and cache counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	docs, tokens := h.svc.Counts()
	stats := map[string]any{
		"documents": docs,
		"tokens":    tokens,
	}
	if qc := h.svc.Cache(); qc != nil {
		hits, misses := qc.Stats()
		stats["cacheHits"] = hits
		stats["cacheMisses"] = misses
		stats["cacheBreaker"] = qc.BreakerState().String()
	}
	writeJSON(w, http.StatusOK, stats)
}

// SaveSnapshot serializes the index into the snapshot store.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot store not configured")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if r.Body != nil {
		// An empty body is fine; the name then defaults to a timestamp.
		json.NewDecoder(r.Body).Decode(&req)
	}
	name := req.Name
	if name == "" {
		name = "snapshot-" + time.Now().UTC().Format("20060102T150405Z")
	}

	payload, err := h.svc.SnapshotJSON()
	if err != nil {
		h.snapshotOp("save", "error")
		writeError(w, http.StatusInternalServerError, "serializing index failed")
		return
	}
	if err := h.store.Save(r.Context(), name, textindex.SchemaVersion, payload); err != nil {
		h.logger.Error("snapshot save failed", "name", name, "error", err)
		h.snapshotOp("save", "error")
		writeError(w, apperrors.HTTPStatusCode(err), "saving snapshot failed")
		return
	}
	h.snapshotOp("save", "ok")
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":      name,
		"version":   textindex.SchemaVersion,
		"sizeBytes": len(payload),
	})
}

// ListSnapshots lists stored snapshots, newest first.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot store not configured")
		return
	}
	infos, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("snapshot list failed", "error", err)
		writeError(w, apperrors.HTTPStatusCode(err), "listing snapshots failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": infos})
}

// DeleteSnapshot removes a stored snapshot. Deleting an unknown name
// succeeds with no effect.
func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot store not configured")
		return
	}
	name := r.PathValue("name")
	if err := h.store.Delete(r.Context(), name); err != nil {
		h.logger.Error("snapshot delete failed", "name", name, "error", err)
		h.snapshotOp("delete", "error")
		writeError(w, apperrors.HTTPStatusCode(err), "deleting snapshot failed")
		return
	}
	h.snapshotOp("delete", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// RestoreSnapshot loads the named snapshot and replaces the running index.
// The engine must be configured with the same preprocessor and tokenizer
// settings that produced the snapshot.
func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot store not configured")
		return
	}
	name := r.PathValue("name")
	payload, err := h.store.Load(r.Context(), name)
	if err != nil {
		writeError(w, apperrors.HTTPStatusCode(err), fmt.Sprintf("loading snapshot %q failed", name))
		h.snapshotOp("restore", "error")
		return
	}
	if err := h.svc.RestoreJSON(r.Context(), payload); err != nil {
		h.logger.Error("snapshot restore failed", "name", name, "error", err)
		h.snapshotOp("restore", "error")
		writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.snapshotOp("restore", "ok")
	docs, tokens := h.svc.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"restored":  name,
		"documents": docs,
		"tokens":    tokens,
	})
}

func (h *Handler) recordSearch(outcome, cacheStatus string, total int, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(total))
	if cacheStatus == "hit" {
		h.metrics.CacheHitsTotal.Inc()
	} else if cacheStatus == "miss" {
		h.metrics.CacheMissesTotal.Inc()
	}
}

func (h *Handler) snapshotOp(op, status string) {
	if h.metrics == nil {
		return
	}
	h.metrics.SnapshotOpsTotal.WithLabelValues(op, status).Inc()
}

func intParam(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
