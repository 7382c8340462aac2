package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entity identifies an importable record type.
type Entity string

const (
	EntityProducts Entity = "products"
	EntityClients  Entity = "clients"
)

// ParseEntity resolves a URL or form value to a known entity.
func ParseEntity(s string) (Entity, bool) {
	switch Entity(s) {
	case EntityProducts, EntityClients:
		return Entity(s), true
	}
	return "", false
}

// Category buckets import errors for display.
type Category string

const (
	CategoryInvalidCode Category = "invalid_code"
	CategoryValidation  Category = "validation"
	CategoryDuplicate   Category = "duplicate"
	CategoryPersistence Category = "persistence"
)

// RawRecord is one non-blank input line with its 1-based physical line number.
type RawRecord struct {
	Line int
	Text string
}

// ProductCandidate is a parsed, not yet validated product line.
type ProductCandidate struct {
	Line        int
	Raw         string
	Fields      int
	Product     string
	Stock       string
	Price       string // dot-decimal
	Application string
	CleanCode   string // display only, never used as identity
}

// ClientCandidate is a parsed, not yet validated client line.
type ClientCandidate struct {
	Line   int
	Raw    string
	Fields int
	Code   string
	Client string
	City   string
	CNPJ   string
	UserID string
}

// Product is a validated product row ready for persistence.
type Product struct {
	Line        int             `json:"-"`
	Name        string          `json:"product"`
	Stock       int32           `json:"stock"`
	Price       decimal.Decimal `json:"price"`
	Application string          `json:"application,omitempty"`
}

// Client is a validated client row ready for persistence.
// Code, Name and City are upper-cased; CNPJ holds digits only.
type Client struct {
	Line   int       `json:"-"`
	Code   string    `json:"code"`
	Name   string    `json:"client"`
	City   string    `json:"city"`
	CNPJ   string    `json:"cnpj,omitempty"`
	UserID uuid.UUID `json:"user_id"`
}

// FormattedCNPJ returns the CNPJ as 00.000.000/0000-00, or "" when unset.
func (c Client) FormattedCNPJ() string {
	return FormatCNPJ(c.CNPJ)
}

// ImportError is one row- or chunk-level failure in an import report.
//
// Invalid-code entries also carry the cleaned code and the product text as
// read; persistence entries carry the 1-based chunk number.
type ImportError struct {
	Line     int      `json:"line"`
	Message  string   `json:"message"`
	Category Category `json:"category"`
	Code     string   `json:"code,omitempty"`
	Original string   `json:"original,omitempty"`
	Chunk    int      `json:"chunk,omitempty"`
}

func (e ImportError) Error() string {
	return e.Message
}

// ImportResult is the outcome of one import invocation. It is built once and
// not modified after the pipeline returns.
type ImportResult struct {
	TotalProcessed int           `json:"totalProcessed"`
	SuccessCount   int           `json:"successCount"`
	Errors         []ImportError `json:"errors"`
	DuplicateKeys  []string      `json:"duplicateKeys"`
}

// ImportPhase indicates the current stage of an import run.
type ImportPhase string

const (
	PhaseStarting   ImportPhase = "starting"
	PhaseDecoding   ImportPhase = "decoding"
	PhaseValidating ImportPhase = "validating"
	PhaseInserting  ImportPhase = "inserting"
	PhaseComplete   ImportPhase = "complete"
	PhaseFailed     ImportPhase = "failed"
)

// ImportProgress is a snapshot of a running import.
type ImportProgress struct {
	ImportID string      `json:"importId"`
	Entity   Entity      `json:"entity"`
	FileName string      `json:"fileName,omitempty"`
	Phase    ImportPhase `json:"phase"`
	Percent  int         `json:"percent"`
	Error    string      `json:"error,omitempty"` // non-empty if Phase is PhaseFailed
}

// Done reports whether the run has finished, successfully or not.
func (p ImportProgress) Done() bool {
	return p.Phase == PhaseComplete || p.Phase == PhaseFailed
}

// ProgressFunc receives progress updates from a running pipeline.
type ProgressFunc func(phase ImportPhase, percent int)
