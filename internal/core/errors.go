package core

// errors.go defines the import error taxonomy.
//
// DecodeError and FormatError stop a run before any row is read. FatalError
// wraps an unexpected panic and also ends the run without a report.
// ValidationError, DuplicateError and PersistenceError are per-row or
// per-chunk; they are converted to ImportError entries and accumulated.

import (
	"errors"
	"fmt"
)

// ErrImportNotFound is returned when an import ID is unknown or expired.
var ErrImportNotFound = errors.New("import not found")

// ErrUnknownEntity is returned for an entity that cannot be imported.
var ErrUnknownEntity = errors.New("unknown entity")

// ErrImportRunning is returned when a finished report is requested for an
// import that has not ended yet.
var ErrImportRunning = errors.New("import still running")

// ErrImportFailed is returned when a report is requested for an import that
// aborted.
var ErrImportFailed = errors.New("import failed")

// Access errors returned by the HTTP layer.
var (
	ErrAuthRequired  = errors.New("authentication required")
	ErrAdminRequired = errors.New("admin role required")
)

// DecodeError reports a file whose bytes cannot be turned into text.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Reason, e.Err)
	}
	return "decode error: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FormatError reports text that does not look like delimited data.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "format error: " + e.Reason
}

// FileError reports an upload rejected before decoding (size, extension).
type FileError struct {
	Reason string
}

func (e *FileError) Error() string {
	return e.Reason
}

// ValidationError is a field constraint violated by one row.
type ValidationError struct {
	Line    int
	Field   string // Field name, empty for whole-row problems
	Value   string // The offending raw value
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
}

// ImportError converts the violation to a report entry.
func (e *ValidationError) ImportError() ImportError {
	return ImportError{Line: e.Line, Message: e.Error(), Category: CategoryValidation}
}

// DuplicateError is an identity collision for a client row.
type DuplicateError struct {
	Line    int
	Kind    string // "code" or "CNPJ"
	Key     string
	InStore bool // false when the collision is with an earlier line of the same file
}

func (e *DuplicateError) Error() string {
	where := "earlier in this file"
	if e.InStore {
		where = "already registered"
	}
	return fmt.Sprintf("Line %d: client %s %q %s", e.Line, e.Kind, e.Key, where)
}

// ImportError converts the collision to a report entry.
func (e *DuplicateError) ImportError() ImportError {
	return ImportError{Line: e.Line, Message: e.Error(), Category: CategoryDuplicate}
}

// PersistenceError is a rejected chunk insert.
type PersistenceError struct {
	Chunk     int // 1-based
	FirstLine int
	LastLine  int
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("chunk %d (lines %d-%d): %v", e.Chunk, e.FirstLine, e.LastLine, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ImportError converts the chunk failure to a report entry anchored at the
// chunk's first line.
func (e *PersistenceError) ImportError() ImportError {
	return ImportError{Line: e.FirstLine, Message: e.Error(), Category: CategoryPersistence, Chunk: e.Chunk}
}

// FatalError wraps an unexpected failure that aborted the whole run.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("import aborted: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsStructural reports whether err ended a run before any row was processed.
func IsStructural(err error) bool {
	var de *DecodeError
	var fe *FormatError
	var fi *FileError
	return errors.As(err, &de) || errors.As(err, &fe) || errors.As(err, &fi)
}
