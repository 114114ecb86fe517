package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"bible-chat/backend/internal/logger"
)

// RequestLogger attaches a request-scoped logger to the context and logs the
// outcome of every request except health checks.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.FromContext(r.Context()).With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		r = r.WithContext(logger.WithContext(r.Context(), log))

		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		latency := time.Since(start)
		log = log.With("status", status, "bytes", ww.BytesWritten(), "latency_ms", latency.Milliseconds())
		switch {
		case status >= 500:
			log.Error("Request completed with server error")
		case status >= 400:
			log.Warn("Request completed with client error")
		default:
			log.Info("Request completed")
		}
	})
}

// Recoverer turns a panic into a 500 response and logs it with the stack.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context()).Error("Panic recovered",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			respondWithJSON(w, r, http.StatusInternalServerError, ErrorResponse{
				Code:  "internal",
				Error: "Internal server error",
			})
		}()
		next.ServeHTTP(w, r)
	})
}
