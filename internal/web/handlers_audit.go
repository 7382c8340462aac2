package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// handleImportHistory returns recent import runs, newest first.
// ?entity= filters by entity; ?limit= caps the number of entries.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	var entity core.Entity
	if raw := r.URL.Query().Get("entity"); raw != "" {
		e, ok := core.ParseEntity(raw)
		if !ok {
			s.respondServiceError(w, r, fmt.Errorf("%w: %q", core.ErrUnknownEntity, raw))
			return
		}
		entity = e
	}

	entries, err := s.service.ImportHistory(r.Context(), entity, parseIntParam(r, "limit", core.DefaultPageSize))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imports": entries})
}
