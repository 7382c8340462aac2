package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// templateFile maps a template format to its extension and content type.
var templateFile = map[string]struct {
	ext         string
	contentType string
}{
	core.TemplateSemicolon: {"csv", "text/csv; charset=utf-8"},
	core.TemplateComma:     {"csv", "text/csv; charset=utf-8"},
	core.TemplateXLSX:      {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
}

// handleDownloadTemplate returns a sample import file for an entity.
// ?format= is semicolon (default), comma or xlsx.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	entity, err := pathEntity(r)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	info, _ := core.Get(entity)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = core.TemplateSemicolon
	}
	file, ok := templateFile[format]
	if !ok {
		s.respondError(w, r, fmt.Errorf("unknown template format %q", format), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := core.WriteTemplate(&buf, info, format); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", file.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_template.%s"`, entity, file.ext))
	w.Write(buf.Bytes())
}

// handleListEntities describes the importable entities.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Entities())
}
