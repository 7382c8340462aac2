package core

// parse.go splits decoded text into candidate rows.
//
// Lines are split one at a time so that a malformed line (an unbalanced
// quote, a missing column) stays confined to that line and surfaces later as
// a validation error carrying its original text. The parser itself never
// fails.

import (
	"encoding/csv"
	"strings"
)

// Column layouts, also used for templates and header detection.
var (
	ProductColumns = []string{"product", "stock", "price", "application"}
	ClientColumns  = []string{"code", "client", "city", "cnpj", "user_id"}
)

// SplitRecords splits text into non-blank lines, keeping 1-based physical line
// numbers. "\r\n" and "\n" line endings are both accepted.
func SplitRecords(text string) []RawRecord {
	lines := strings.Split(text, "\n")
	records := make([]RawRecord, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, RawRecord{Line: i + 1, Text: line})
	}
	return records
}

// SplitFields splits one line on delim. Quoted fields may contain the
// delimiter; stray quotes are tolerated and removed. A line with unbalanced
// quotes is split naively. Every field is cleaned with CleanCell.
func SplitFields(line string, delim rune) []string {
	var fields []string
	if strings.Count(line, `"`)%2 == 0 {
		r := csv.NewReader(strings.NewReader(line))
		r.Comma = delim
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		fields, _ = r.Read()
	}
	if len(fields) == 0 {
		fields = strings.Split(line, string(delim))
	}

	for i := range fields {
		fields[i] = CleanCell(fields[i])
	}
	return fields
}

// field returns fields[i] or "" when the line is short.
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// isHeader reports whether the leading fields of a record match the column
// names of an entity (case-insensitive).
func isHeader(fields, columns []string) bool {
	if len(fields) < 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if !strings.EqualFold(fields[i], columns[i]) {
			return false
		}
	}
	return true
}

// ParseProducts builds one ProductCandidate per non-blank line.
//
// Layout: name; stock; price; application. An empty stock or price reads as
// "0". A header row matching ProductColumns on the first line is skipped.
func ParseProducts(text string, delim rune) []ProductCandidate {
	records := SplitRecords(text)
	out := make([]ProductCandidate, 0, len(records))

	for i, rec := range records {
		fields := SplitFields(rec.Text, delim)
		if i == 0 && isHeader(fields, ProductColumns) {
			continue
		}

		c := NewProductCandidate(rec.Line, fields)
		c.Raw = rec.Text
		out = append(out, c)
	}
	return out
}

// ParseClients builds one ClientCandidate per non-blank line.
//
// Layout: code; client; city; cnpj; user_id. The CNPJ and user binding are
// optional; rows without a user binding fall back to defaultUserID. A header
// row matching ClientColumns on the first line is skipped.
func ParseClients(text string, delim rune, defaultUserID string) []ClientCandidate {
	records := SplitRecords(text)
	out := make([]ClientCandidate, 0, len(records))

	for i, rec := range records {
		fields := SplitFields(rec.Text, delim)
		if i == 0 && isHeader(fields, ClientColumns) {
			continue
		}

		c := NewClientCandidate(rec.Line, fields, defaultUserID)
		c.Raw = rec.Text
		out = append(out, c)
	}
	return out
}

// NewProductCandidate builds a product candidate from the fields of one row
// in file layout order. Raw is the fields joined with ';'.
func NewProductCandidate(line int, fields []string) ProductCandidate {
	name := field(fields, 0)
	stock := field(fields, 1)
	if stock == "" {
		stock = "0"
	}
	price := NormalizePrice(field(fields, 2))
	if price == "" {
		price = "0"
	}

	return ProductCandidate{
		Line:        line,
		Raw:         strings.Join(fields, ";"),
		Fields:      len(fields),
		Product:     name,
		Stock:       stock,
		Price:       price,
		Application: field(fields, 3),
		CleanCode:   CleanProductCode(name),
	}
}

// NewClientCandidate builds a client candidate from the fields of one row in
// file layout order. A missing user binding falls back to defaultUserID.
func NewClientCandidate(line int, fields []string, defaultUserID string) ClientCandidate {
	userID := field(fields, 4)
	if userID == "" {
		userID = defaultUserID
	}

	return ClientCandidate{
		Line:   line,
		Raw:    strings.Join(fields, ";"),
		Fields: len(fields),
		Code:   field(fields, 0),
		Client: field(fields, 1),
		City:   field(fields, 2),
		CNPJ:   field(fields, 3),
		UserID: userID,
	}
}
