package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// StartServer exposes /metrics on its own port, away from the API server,
// and returns a function that shuts it down.
func StartServer(port int) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler())

	srv := &http.Server{
		Addr:        ":" + strconv.Itoa(port),
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: time.Minute,
	}
	go func() {
		slog.Info("metrics endpoint up", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return srv.Shutdown
}
