package core

import (
	"fmt"
	"sort"
)

// ImportReport is the user-facing summary of a finished import: the result
// itself plus presentation helpers derived from its error list.
type ImportReport struct {
	ImportResult

	Entity Entity `json:"entity"`

	// InvalidCodes and OtherErrors partition Errors for products: rows whose
	// code needs manual review versus every other failure.
	InvalidCodes []ImportError `json:"invalidCodes,omitempty"`
	OtherErrors  []ImportError `json:"otherErrors,omitempty"`

	Counts map[Category]int `json:"counts"`
}

// NewImportReport classifies the errors of res. Errors are ordered by line,
// keeping the original order for equal lines.
func NewImportReport(entity Entity, res ImportResult) ImportReport {
	errs := make([]ImportError, len(res.Errors))
	copy(errs, res.Errors)
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Line < errs[j].Line })
	res.Errors = errs

	if res.Errors == nil {
		res.Errors = []ImportError{}
	}
	if res.DuplicateKeys == nil {
		res.DuplicateKeys = []string{}
	}

	r := ImportReport{
		ImportResult: res,
		Entity:       entity,
		Counts:       make(map[Category]int),
	}

	for _, e := range res.Errors {
		r.Counts[e.Category]++
		if entity != EntityProducts {
			continue
		}
		if e.Category == CategoryInvalidCode {
			r.InvalidCodes = append(r.InvalidCodes, e)
		} else {
			r.OtherErrors = append(r.OtherErrors, e)
		}
	}

	return r
}

// Success reports whether at least one row was persisted.
func (r ImportReport) Success() bool {
	return r.SuccessCount > 0
}

// Rejected returns the number of rows that were not persisted.
func (r ImportReport) Rejected() int {
	return r.TotalProcessed - r.SuccessCount
}

// ErrorsOf returns the errors of one category, in report order.
func (r ImportReport) ErrorsOf(cat Category) []ImportError {
	var out []ImportError
	for _, e := range r.Errors {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the error messages in report order.
func (r ImportReport) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Message
	}
	return out
}

// Summary returns a one-line description of the outcome.
func (r ImportReport) Summary() string {
	switch {
	case r.TotalProcessed == 0:
		return fmt.Sprintf("No %s found in the file", r.Entity)
	case r.SuccessCount == r.TotalProcessed:
		return fmt.Sprintf("%d %s imported successfully", r.SuccessCount, r.Entity)
	case r.SuccessCount == 0:
		return fmt.Sprintf("No %s imported: %d of %d rows rejected", r.Entity, r.Rejected(), r.TotalProcessed)
	default:
		return fmt.Sprintf("%d of %d %s imported, %d rejected", r.SuccessCount, r.TotalProcessed, r.Entity, r.Rejected())
	}
}
