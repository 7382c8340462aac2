package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// startImportResponse is returned when a file import is accepted.
type startImportResponse struct {
	ImportID string `json:"import_id"`
	Progress string `json:"progress"`
	Report   string `json:"report"`
}

// handleStartImport accepts a .csv/.txt upload and imports it in the
// background. Clients follow it through the progress stream.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	entity, err := pathEntity(r)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if !s.canImport(r, entity) {
		s.respondServiceError(w, r, core.ErrAdminRequired)
		return
	}

	up, err := readUpload(w, r, s.cfg.Import.MaxFileSize)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	ctx := importContext(r)
	id, err := s.service.StartImport(ctx, core.ImportRequest{
		Entity:        entity,
		FileName:      up.FileName,
		Data:          up.Data,
		Format:        up.Format,
		DefaultUserID: defaultUserID(ctx, up.UserID),
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/imports/"+id)
	writeJSON(w, http.StatusAccepted, startImportResponse{
		ImportID: id,
		Progress: "/api/imports/" + id + "/progress",
		Report:   "/api/imports/" + id + "/report",
	})
}

// handlePreview parses the first lines of an upload without persisting.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	entity, err := pathEntity(r)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	up, err := readUpload(w, r, s.cfg.Import.MaxFileSize)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	preview, err := s.service.Preview(entity, up.Data, up.Format, defaultUserID(r.Context(), up.UserID))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// canImport reports whether the caller may import entity.
func (s *Server) canImport(r *http.Request, entity core.Entity) bool {
	info, _ := core.Get(entity)
	if !info.AdminOnly || !s.cfg.Security.RequireAdminForClientImport {
		return true
	}
	u, ok := core.UserFromContext(r.Context())
	return !ok || u.IsAdmin
}

// handleImportProgress streams progress as Server-Sent Events. The event ID
// is the percentage, so a reconnecting client passing lastEventId (or the
// Last-Event-ID header) skips updates it already saw. A final "complete"
// event carries the import status.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	progressCh, unsubscribe, err := s.service.SubscribeProgress(id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	defer unsubscribe()

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, fmt.Errorf("streaming not supported"), http.StatusInternalServerError)
		return
	}

	lastEventID := -1
	if v := r.URL.Query().Get("lastEventId"); v != "" {
		lastEventID, _ = strconv.Atoi(v)
	} else if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastEventID, _ = strconv.Atoi(v)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				st, err := s.service.Status(id)
				if err != nil {
					return
				}
				data, _ := json.Marshal(st)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}

			if !progress.Done() && progress.Percent <= lastEventID {
				continue
			}
			lastEventID = progress.Percent

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Percent, data)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleImportStatus returns progress and, once finished, the report.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Status(chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleImportReport renders the import as an HTML page.
func (s *Server) handleImportReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := s.service.Status(id)
	if err != nil {
		s.respondErrorPage(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := ReportPage(id, st).Render(r.Context(), &buf); err != nil {
		s.respondErrorPage(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleExportErrorsCSV downloads the errors of a finished import as CSV.
func (s *Server) handleExportErrorsCSV(w http.ResponseWriter, r *http.Request) {
	s.exportErrors(w, r, "csv", "text/csv; charset=utf-8", core.WriteErrorsCSV)
}

// handleExportErrorsXLSX downloads the errors of a finished import as a
// workbook.
func (s *Server) handleExportErrorsXLSX(w http.ResponseWriter, r *http.Request) {
	s.exportErrors(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", core.WriteErrorsXLSX)
}

func (s *Server) exportErrors(w http.ResponseWriter, r *http.Request, ext, contentType string,
	write func(io.Writer, core.ImportReport) error) {
	id := chi.URLParam(r, "id")
	report, err := s.service.Report(id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	// Render fully before sending so a failure still gets an error status.
	var buf bytes.Buffer
	if err := write(&buf, *report); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s_errors_%s.%s", report.Entity, time.Now().Format("20060102_150405"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(buf.Bytes())
}

// handleImportQueueStatus reports import slot usage.
func (s *Server) handleImportQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}
