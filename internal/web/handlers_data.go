package web

import (
	"net/http"
)

// handleListClients returns a page of clients ordered by name.
func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Clients(r.Context(), listQuery(r, ""))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleSearchClients searches code, name, city and CNPJ.
func (s *Server) handleSearchClients(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Clients(r.Context(), listQuery(r, "q"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleListProducts returns a page of products ordered by product name.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Products(r.Context(), listQuery(r, ""))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleSearchProducts searches product name and application.
func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Products(r.Context(), listQuery(r, "q"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
