package core

import (
	"testing"
)

func TestNewImportReport(t *testing.T) {
	res := ImportResult{
		TotalProcessed: 5,
		SuccessCount:   2,
		Errors: []ImportError{
			{Line: 4, Message: "Line 4: b", Category: CategoryValidation},
			{Line: 2, Message: "Line 2: a", Category: CategoryInvalidCode, Code: "AB*C", Original: "AB*C (X)"},
			{Line: 4, Message: "chunk 1 (lines 4-5): x", Category: CategoryPersistence, Chunk: 1},
		},
	}

	r := NewImportReport(EntityProducts, res)

	wantLines := []int{2, 4, 4}
	for i, e := range r.Errors {
		if e.Line != wantLines[i] {
			t.Errorf("Errors[%d].Line = %d, want %d", i, e.Line, wantLines[i])
		}
	}
	if r.Errors[1].Category != CategoryValidation {
		t.Error("equal lines should keep their original order")
	}

	if len(r.InvalidCodes) != 1 || len(r.OtherErrors) != 2 {
		t.Fatalf("InvalidCodes = %d, OtherErrors = %d; want 1, 2", len(r.InvalidCodes), len(r.OtherErrors))
	}
	if ic := r.InvalidCodes[0]; ic.Code != "AB*C" || ic.Original != "AB*C (X)" {
		t.Errorf("InvalidCodes[0] = %+v, want code and original kept", ic)
	}
	if pe := r.ErrorsOf(CategoryPersistence); len(pe) != 1 || pe[0].Chunk != 1 {
		t.Errorf("persistence errors = %+v, want chunk 1", pe)
	}
	if r.Counts[CategoryPersistence] != 1 || r.Counts[CategoryValidation] != 1 {
		t.Errorf("Counts = %v", r.Counts)
	}
	if r.Rejected() != 3 {
		t.Errorf("Rejected() = %d, want 3", r.Rejected())
	}
	if got := r.ErrorsOf(CategoryInvalidCode); len(got) != 1 || got[0].Line != 2 {
		t.Errorf("ErrorsOf(invalid_code) = %v", got)
	}

	// The input result is not reordered.
	if res.Errors[0].Line != 4 {
		t.Error("NewImportReport modified its input")
	}
}

func TestNewImportReport_ClientsHaveNoPartition(t *testing.T) {
	r := NewImportReport(EntityClients, ImportResult{
		TotalProcessed: 1,
		Errors:         []ImportError{{Line: 1, Message: "x", Category: CategoryDuplicate}},
		DuplicateKeys:  []string{"C1"},
	})
	if r.InvalidCodes != nil || r.OtherErrors != nil {
		t.Errorf("client report should not partition errors: %+v", r)
	}
}

func TestNewImportReport_EmptySlices(t *testing.T) {
	r := NewImportReport(EntityProducts, ImportResult{})
	if r.Errors == nil || r.DuplicateKeys == nil {
		t.Error("Errors and DuplicateKeys should be empty, not nil")
	}
	if len(r.Messages()) != 0 {
		t.Errorf("Messages() = %v", r.Messages())
	}
}

func TestImportReport_Summary(t *testing.T) {
	tests := []struct {
		name string
		res  ImportResult
		want string
	}{
		{name: "nothing", res: ImportResult{}, want: "No products found in the file"},
		{name: "all", res: ImportResult{TotalProcessed: 3, SuccessCount: 3}, want: "3 products imported successfully"},
		{name: "none", res: ImportResult{TotalProcessed: 3}, want: "No products imported: 3 of 3 rows rejected"},
		{name: "some", res: ImportResult{TotalProcessed: 3, SuccessCount: 2}, want: "2 of 3 products imported, 1 rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewImportReport(EntityProducts, tt.res)
			if got := r.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
			if r.Success() != (tt.res.SuccessCount > 0) {
				t.Errorf("Success() = %v", r.Success())
			}
		})
	}
}
