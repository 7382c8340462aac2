package web

// handlers_import.go serves the synchronous JSON import endpoints. They run
// the same pipeline as file uploads and answer with the finished report.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// maxDetails caps the error messages listed in a product import response.
const maxDetails = 5

// bulkProductsRequest carries either delimited text or pre-split rows.
type bulkProductsRequest struct {
	Data     string           `json:"data"`
	Format   string           `json:"format"`
	Products []productPayload `json:"products"`
}

type productPayload struct {
	Product     jsonText `json:"product"`
	Stock       jsonText `json:"stock"`
	Price       jsonText `json:"price"`
	Application jsonText `json:"application"`
}

type importClientsRequest struct {
	Clients []clientPayload `json:"clients"`
}

type clientPayload struct {
	Code   jsonText `json:"code"`
	Client jsonText `json:"client"`
	City   jsonText `json:"city"`
	CNPJ   jsonText `json:"cnpj"`
	UserID jsonText `json:"user_id"`
}

// importResponse is the body of both JSON import endpoints. Errors holds the
// line-numbered messages; ImportErrors holds the same entries with their
// category and optional code, original and chunk.
type importResponse struct {
	Success        bool               `json:"success"`
	Count          int                `json:"count"`
	Message        string             `json:"message"`
	TotalProcessed int                `json:"totalProcessed"`
	Errors         []string           `json:"errors"`
	ImportErrors   []core.ImportError `json:"importErrors"`
	DuplicateKeys  []string           `json:"duplicateKeys,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// productImportResponse adds the parse/insert split of product imports.
type productImportResponse struct {
	importResponse
	ParseErrors  int            `json:"parseErrors"`
	InsertErrors int            `json:"insertErrors"`
	Details      productDetails `json:"details"`
}

type productDetails struct {
	ParseErrors  []string `json:"parseErrors"`
	InsertErrors []string `json:"insertErrors"`
}

func newImportResponse(report core.ImportReport) importResponse {
	resp := importResponse{
		Success:        report.Success(),
		Count:          report.SuccessCount,
		Message:        report.Summary(),
		TotalProcessed: report.TotalProcessed,
		Errors:         report.Messages(),
		ImportErrors:   report.Errors,
		DuplicateKeys:  report.DuplicateKeys,
	}
	if !resp.Success && len(report.DuplicateKeys) > 0 {
		resp.Error = "Already registered: " + strings.Join(report.DuplicateKeys, ", ")
	}
	return resp
}

// importStatus is 200 when any row was persisted. Otherwise it is 409 when
// rows collided with existing records and 400 for anything else.
func importStatus(report core.ImportReport) int {
	switch {
	case report.Success():
		return http.StatusOK
	case len(report.DuplicateKeys) > 0:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// handleBulkImportProducts imports products from {data, format} or
// {products: [...]}.
func (s *Server) handleBulkImportProducts(w http.ResponseWriter, r *http.Request) {
	var req bulkProductsRequest
	if err := decodeJSONBody(w, r, s.cfg.Import.MaxFileSize, &req); err != nil {
		s.respondError(w, r, err, bodyErrorStatus(err))
		return
	}

	imp := core.ImportRequest{Entity: core.EntityProducts, Format: req.Format}
	switch {
	case strings.TrimSpace(req.Data) != "":
		imp.Text = req.Data
	case len(req.Products) > 0:
		imp.Products = make([]core.ProductCandidate, len(req.Products))
		for i, p := range req.Products {
			imp.Products[i] = core.NewProductCandidate(i+1, []string{
				p.Product.String(), p.Stock.String(), p.Price.String(), p.Application.String(),
			})
		}
	default:
		s.respondError(w, r, &core.FormatError{Reason: "empty file"}, http.StatusBadRequest)
		return
	}

	report, err := s.service.Import(importContext(r), imp)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	resp := productImportResponse{importResponse: newImportResponse(report)}
	for _, e := range report.Errors {
		if e.Category == core.CategoryPersistence {
			resp.InsertErrors++
			if len(resp.Details.InsertErrors) < maxDetails {
				resp.Details.InsertErrors = append(resp.Details.InsertErrors, e.Message)
			}
			continue
		}
		resp.ParseErrors++
		if len(resp.Details.ParseErrors) < maxDetails {
			resp.Details.ParseErrors = append(resp.Details.ParseErrors, e.Message)
		}
	}
	if resp.Details.ParseErrors == nil {
		resp.Details.ParseErrors = []string{}
	}
	if resp.Details.InsertErrors == nil {
		resp.Details.InsertErrors = []string{}
	}

	writeJSON(w, importStatus(report), resp)
}

// handleImportClients imports {clients: [...]}. Rows without a user_id are
// bound to the caller.
func (s *Server) handleImportClients(w http.ResponseWriter, r *http.Request) {
	var req importClientsRequest
	if err := decodeJSONBody(w, r, s.cfg.Import.MaxFileSize, &req); err != nil {
		s.respondError(w, r, err, bodyErrorStatus(err))
		return
	}
	if len(req.Clients) == 0 {
		s.respondError(w, r, &core.FormatError{Reason: "empty file"}, http.StatusBadRequest)
		return
	}

	ctx := importContext(r)
	fallback := defaultUserID(ctx, "")

	rows := make([]core.ClientCandidate, len(req.Clients))
	for i, c := range req.Clients {
		rows[i] = core.NewClientCandidate(i+1, []string{
			c.Code.String(), c.Client.String(), c.City.String(), c.CNPJ.String(), c.UserID.String(),
		}, fallback)
	}

	report, err := s.service.Import(ctx, core.ImportRequest{Entity: core.EntityClients, Clients: rows})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	writeJSON(w, importStatus(report), newImportResponse(report))
}

// bodyErrorStatus is 413 for an oversized body and 400 otherwise.
func bodyErrorStatus(err error) int {
	var fe *core.FileError
	if errors.As(err, &fe) {
		return statusFor(err)
	}
	return http.StatusBadRequest
}

// decodeJSONBody decodes a JSON body of at most maxSize bytes into v.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, maxSize int64, v any) error {
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &core.FileError{Reason: fmt.Sprintf("file too large: exceeds the %d byte limit", maxSize)}
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
