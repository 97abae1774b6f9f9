package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds handler execution. A handler that has not responded
// within d gets cut off with a 503; its request context is cancelled so
// in-flight work can stop.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	const body = `{"error":"request timed out"}`
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, body)
	}
}
