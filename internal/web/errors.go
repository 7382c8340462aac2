package web

// errors.go provides unified error responses for the web layer.
//
// Every error is logged with its technical detail and the request ID, then
// mapped through core.MapError so clients only see a message, an action and
// a support code. API clients get JSON, browsers get an HTML fragment.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	s.writeError(w, r, err, statusCode, wantsJSON(r))
}

// respondErrorPage is respondError for routes that always render HTML.
func (s *Server) respondErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, err, statusFor(err), false)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, statusCode int, asJSON bool) {
	userMsg := core.MapError(err)

	log := slog.Warn
	if statusCode >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		log = slog.Error
	}
	log("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}

	if asJSON {
		respondErrorJSON(w, userMsg, statusCode)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	ErrorAlert(userMsg).Render(r.Context(), w)
}

// respondServiceError picks the status for an error returned by core.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	var (
		fileErr   *core.FileError
		decodeErr *core.DecodeError
		formatErr *core.FormatError
		fatalErr  *core.FatalError
	)

	switch {
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrImportNotFound), errors.Is(err, core.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, core.ErrImportRunning), errors.Is(err, core.ErrImportFailed):
		return http.StatusConflict
	case errors.Is(err, core.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrAdminRequired):
		return http.StatusForbidden
	case errors.As(err, &fileErr):
		if strings.HasPrefix(fileErr.Reason, "file too large") {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.As(err, &decodeErr), errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &fatalErr):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON reports whether the client expects JSON. API routes default to
// JSON unless the client asks for HTML.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
