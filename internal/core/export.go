package core

// export.go renders import errors and blank templates as downloadable files.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Template formats.
const (
	TemplateSemicolon = "semicolon"
	TemplateComma     = "comma"
	TemplateXLSX      = "xlsx"
)

var errorColumns = []string{"line", "category", "message", "code", "original", "chunk"}

// errorRow returns the export cells of e in errorColumns order. Optional
// fields are left blank when unset.
func errorRow(e ImportError) []string {
	chunk := ""
	if e.Chunk > 0 {
		chunk = strconv.Itoa(e.Chunk)
	}
	return []string{strconv.Itoa(e.Line), string(e.Category), e.Message, e.Code, e.Original, chunk}
}

// WriteErrorsCSV writes the report's errors as CSV with a header row.
func WriteErrorsCSV(w io.Writer, r ImportReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(errorColumns); err != nil {
		return err
	}
	for _, e := range r.Errors {
		if err := cw.Write(errorRow(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteErrorsXLSX writes the report's errors as a workbook with an "Errors"
// sheet and a "Summary" sheet.
func WriteErrorsXLSX(w io.Writer, r ImportReport) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Errors"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeHeader(f, sheet, errorColumns, headerStyle); err != nil {
		return err
	}
	for i, e := range r.Errors {
		vals := []any{e.Line, string(e.Category), e.Message, nil, nil, nil}
		if e.Code != "" {
			vals[3], vals[4] = e.Code, e.Original
		}
		if e.Chunk > 0 {
			vals[5] = e.Chunk
		}
		if err := setRow(f, sheet, i+2, vals); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "B", 16)
	_ = f.SetColWidth(sheet, "C", "C", 90)
	_ = f.SetColWidth(sheet, "E", "E", 40)
	_ = f.SetColWidth(sheet, "F", "F", 10)

	if _, err := f.NewSheet("Summary"); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	summary := [][]any{
		{"Entity", string(r.Entity)},
		{"Total processed", r.TotalProcessed},
		{"Imported", r.SuccessCount},
		{"Rejected", r.Rejected()},
	}
	for _, cat := range []Category{CategoryValidation, CategoryInvalidCode, CategoryDuplicate, CategoryPersistence} {
		summary = append(summary, []any{string(cat), r.Counts[cat]})
	}
	for i, vals := range summary {
		if err := setRow(f, "Summary", i+1, vals); err != nil {
			return err
		}
	}
	_ = f.SetColWidth("Summary", "A", "A", 20)

	return f.Write(w)
}

// WriteTemplate writes a sample import file for entity in the given format:
// semicolon or comma separated text, or an xlsx workbook.
func WriteTemplate(w io.Writer, info EntityInfo, format string) error {
	switch format {
	case TemplateSemicolon, "":
		return writeDelimitedTemplate(w, info, Semicolon)
	case TemplateComma:
		return writeDelimitedTemplate(w, info, Comma)
	case TemplateXLSX:
		return writeXLSXTemplate(w, info)
	default:
		return fmt.Errorf("unknown template format %q", format)
	}
}

func writeDelimitedTemplate(w io.Writer, info EntityInfo, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(info.Columns); err != nil {
		return err
	}
	for _, row := range info.SampleRows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSXTemplate(w io.Writer, info EntityInfo) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := info.Label
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeHeader(f, sheet, info.Columns, headerStyle); err != nil {
		return err
	}
	for i, sample := range info.SampleRows {
		vals := make([]any, len(sample))
		for j, v := range sample {
			vals[j] = v
		}
		if err := setRow(f, sheet, i+2, vals); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, columns []string, style int) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, colName, colName, 20)
	}
	return nil
}

// setRow writes vals from column A on; nil values leave their cell blank.
func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	for i, v := range vals {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
