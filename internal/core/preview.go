package core

import (
	"time"
)

// DefaultPreviewRows is the number of lines shown before an import is run.
const DefaultPreviewRows = 10

// PreviewRow is one parsed line as it would be imported.
type PreviewRow struct {
	Line      int               `json:"line"`
	Values    map[string]string `json:"values"`
	CleanCode string            `json:"cleanCode,omitempty"`
	Valid     bool              `json:"valid"`
	Error     string            `json:"error,omitempty"`
	Category  Category          `json:"category,omitempty"`
}

// PreviewResponse describes the first lines of a file without touching the
// store. Duplicate checks against persisted clients are not part of a preview.
type PreviewResponse struct {
	Entity           Entity       `json:"entity"`
	Encoding         string       `json:"encoding"`
	Delimiter        string       `json:"delimiter"`
	TotalLines       int          `json:"totalLines"`
	Rows             []PreviewRow `json:"rows"`
	ProcessingTimeMs int64        `json:"processingTimeMs"`
}

// BuildPreview decodes data, detects the delimiter and validates the first
// limit rows. It fails with the same DecodeError and FormatError as a real
// import.
func BuildPreview(entity Entity, data []byte, format string, limit int, defaultUserID string) (*PreviewResponse, error) {
	start := time.Now()
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	text, encoding, err := DecodeTextWithEncoding(data)
	if err != nil {
		return nil, err
	}
	delim, err := ResolveDelimiter(text, format)
	if err != nil {
		return nil, err
	}

	resp := &PreviewResponse{
		Entity:    entity,
		Encoding:  encoding,
		Delimiter: DelimiterName(delim),
	}

	switch entity {
	case EntityProducts:
		rows := ParseProducts(text, delim)
		resp.TotalLines = len(rows)
		for _, c := range rows[:min(limit, len(rows))] {
			row := PreviewRow{
				Line: c.Line,
				Values: map[string]string{
					"product":     c.Product,
					"stock":       c.Stock,
					"price":       c.Price,
					"application": c.Application,
				},
				CleanCode: c.CleanCode,
				Valid:     true,
			}
			if _, ie := ValidateProduct(c); ie != nil {
				row.Valid, row.Error, row.Category = false, ie.Message, ie.Category
			}
			resp.Rows = append(resp.Rows, row)
		}

	case EntityClients:
		rows := ParseClients(text, delim, defaultUserID)
		resp.TotalLines = len(rows)
		for _, c := range rows[:min(limit, len(rows))] {
			row := PreviewRow{
				Line: c.Line,
				Values: map[string]string{
					"code":    c.Code,
					"client":  c.Client,
					"city":    c.City,
					"cnpj":    c.CNPJ,
					"user_id": c.UserID,
				},
				Valid: true,
			}
			if _, ie := ValidateClient(c); ie != nil {
				row.Valid, row.Error, row.Category = false, ie.Message, ie.Category
			}
			resp.Rows = append(resp.Rows, row)
		}

	default:
		return nil, ErrUnknownEntity
	}

	if resp.Rows == nil {
		resp.Rows = []PreviewRow{}
	}
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	return resp, nil
}
