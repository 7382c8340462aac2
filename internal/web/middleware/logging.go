// Package middleware provides HTTP middleware for the import server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/bizdesk/internal/core"
	"github.com/JonMunkholm/bizdesk/internal/logging"
)

// Logger logs one line per request with its status and duration. The logger
// comes from logging.FromContext, so the chi request ID is included.
//
// Log fields:
//   - method, path, status
//   - duration_ms
//   - ip: client IP after TrustedRealIP
//   - user: caller ID when the request was authenticated
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		// Auth runs after this middleware and stores the caller on a derived
		// request, so it reports back through the wrapper.
		next.ServeHTTP(ww, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", ClientIP(r),
		}
		if ww.user != nil {
			attrs = append(attrs, "user", ww.user.ID.String())
		}

		logger := logging.FromContext(r.Context())
		switch {
		case ww.status >= http.StatusInternalServerError:
			logger.Error("request", attrs...)
		case ww.status >= http.StatusBadRequest:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	})
}

// responseWriter captures the status code and the authenticated caller.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	user        *core.User
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush lets progress streams through the wrapper.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// recordUser tells an enclosing Logger who the caller is.
func recordUser(w http.ResponseWriter, u core.User) {
	for {
		switch ww := w.(type) {
		case *responseWriter:
			ww.user = &u
			return
		case interface{ Unwrap() http.ResponseWriter }:
			w = ww.Unwrap()
		default:
			return
		}
	}
}
