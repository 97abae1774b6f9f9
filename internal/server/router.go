package server

import (
	"net/http"
	"time"

	"github.com/searchlite/searchlite/pkg/health"
	"github.com/searchlite/searchlite/pkg/metrics"
	"github.com/searchlite/searchlite/pkg/middleware"
)

// NewRouter wires up all routes and the middleware chain
// (RequestID → Metrics → Timeout → handler).
//
// Route table:
//
//	PUT    /api/v1/documents/{id}            index a document
//	DELETE /api/v1/documents/{id}            remove a document
//	POST   /api/v1/index/clear               discard the whole index
//	GET    /api/v1/search?q=&offset=&limit=  ranked search window
//	GET    /api/v1/stats                     index and cache counters
//	POST   /api/v1/snapshots                 save a snapshot
//	GET    /api/v1/snapshots                 list snapshots
//	POST   /api/v1/snapshots/{name}/restore  restore a snapshot
//	DELETE /api/v1/snapshots/{name}          delete a snapshot
//	GET    /health                           aggregate health report
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", checker.Handler())

	mux.HandleFunc("PUT /api/v1/documents/{id}", h.PutDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.DeleteDocument)
	mux.HandleFunc("POST /api/v1/index/clear", h.ClearIndex)

	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)

	mux.HandleFunc("POST /api/v1/snapshots", h.SaveSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots", h.ListSnapshots)
	mux.HandleFunc("POST /api/v1/snapshots/{name}/restore", h.RestoreSnapshot)
	mux.HandleFunc("DELETE /api/v1/snapshots/{name}", h.DeleteSnapshot)

	var handler http.Handler = mux
	if requestTimeout > 0 {
		handler = middleware.Timeout(requestTimeout)(handler)
	}
	if m != nil {
		handler = middleware.Metrics(m)(handler)
	}
	handler = middleware.RequestID(handler)
	return handler
}
