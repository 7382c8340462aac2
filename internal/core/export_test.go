package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sampleReport() ImportReport {
	return NewImportReport(EntityProducts, ImportResult{
		TotalProcessed: 5,
		SuccessCount:   1,
		Errors: []ImportError{
			{Line: 3, Message: `Line 3: stock must be a whole number ("abc")`, Category: CategoryValidation},
			{Line: 2, Message: "Line 2: product name is required", Category: CategoryValidation},
			{Line: 4, Message: "Line 4: stock must be a whole number", Category: CategoryInvalidCode, Code: "AB*C", Original: "AB*C (X)"},
			{Line: 5, Message: "chunk 2 (lines 5-5): deadlock", Category: CategoryPersistence, Chunk: 2},
		},
	})
}

func TestWriteErrorsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteErrorsCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteErrorsCSV() error = %v", err)
	}

	want := "line,category,message,code,original,chunk\n" +
		"2,validation,Line 2: product name is required,,,\n" +
		`3,validation,"Line 3: stock must be a whole number (""abc"")",,,` + "\n" +
		"4,invalid_code,Line 4: stock must be a whole number,AB*C,AB*C (X),\n" +
		"5,persistence,chunk 2 (lines 5-5): deadlock,,,2\n"
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteErrorsXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteErrorsXLSX(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteErrorsXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Errors")
	if err != nil {
		t.Fatalf("GetRows(Errors) error = %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("Errors sheet has %d rows, want 5", len(rows))
	}
	if rows[0][0] != "line" || rows[0][3] != "code" || rows[1][0] != "2" || rows[2][2] != `Line 3: stock must be a whole number ("abc")` {
		t.Errorf("rows = %v", rows)
	}
	if len(rows[3]) < 5 || rows[3][3] != "AB*C" || rows[3][4] != "AB*C (X)" {
		t.Errorf("invalid code row = %v", rows[3])
	}
	if len(rows[4]) < 6 || rows[4][5] != "2" || rows[4][3] != "" {
		t.Errorf("persistence row = %v", rows[4])
	}

	summary, err := f.GetRows("Summary")
	if err != nil {
		t.Fatalf("GetRows(Summary) error = %v", err)
	}
	if summary[3][0] != "Rejected" || summary[3][1] != "4" {
		t.Errorf("summary = %v", summary)
	}
}

func TestWriteTemplate_Delimited(t *testing.T) {
	info, _ := Get(EntityProducts)

	var buf bytes.Buffer
	if err := WriteTemplate(&buf, info, TemplateSemicolon); err != nil {
		t.Fatalf("WriteTemplate() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "product;stock;price;application" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "011338 ENCOMENDA PEDRACON;0;231;" {
		t.Errorf("first sample = %q", lines[1])
	}
}

// Every template must import cleanly.
func TestWriteTemplate_RoundTrip(t *testing.T) {
	for _, info := range All() {
		for _, format := range []string{TemplateSemicolon, TemplateComma} {
			t.Run(string(info.Key)+"/"+format, func(t *testing.T) {
				var buf bytes.Buffer
				if err := WriteTemplate(&buf, info, format); err != nil {
					t.Fatalf("WriteTemplate() error = %v", err)
				}

				im := NewImporter(newMemStore(), ImporterOptions{})
				res, err := im.Run(context.Background(), ImportRequest{
					Entity:        info.Key,
					Data:          buf.Bytes(),
					DefaultUserID: testUserID,
				}, nil)
				if err != nil {
					t.Fatalf("Run() error = %v", err)
				}
				if len(res.Errors) != 0 || res.SuccessCount != len(info.SampleRows) {
					t.Errorf("result = %+v", res)
				}
			})
		}
	}
}

func TestWriteTemplate_XLSX(t *testing.T) {
	info, _ := Get(EntityClients)

	var buf bytes.Buffer
	if err := WriteTemplate(&buf, info, TemplateXLSX); err != nil {
		t.Fatalf("WriteTemplate() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(info.Label)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1+len(info.SampleRows) || rows[0][0] != "code" {
		t.Errorf("rows = %v", rows)
	}
}

func TestWriteTemplate_UnknownFormat(t *testing.T) {
	info, _ := Get(EntityProducts)
	if err := WriteTemplate(&bytes.Buffer{}, info, "pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}
