// Package core provides the business logic for bulk client and product imports.
//
// This package has no HTTP or database dependencies. Persistence is reached
// through the [ImportStore] and [CatalogStore] interfaces, so the same pipeline
// runs behind the web handlers and inside unit tests with in-memory fakes.
//
// # Pipeline
//
// Each import runs as one sequential pipeline:
//
//  1. [DecodeText] turns raw bytes into text (UTF-8, UTF-16 with BOM, or
//     Windows-1252 fallback).
//  2. [DetectDelimiter] picks ';' or ',' from the first line.
//  3. [ParseProducts] / [ParseClients] build candidate rows, one per non-blank
//     line, keeping the physical line number.
//  4. [ValidateProduct] / [ValidateClient] check field constraints and produce
//     typed rows.
//  5. [DuplicateDetector] rejects client codes and CNPJs already seen in the
//     file or already persisted.
//  6. [BatchImporter] sends [Partition]ed chunks to the store in order and
//     records one error per failed chunk without stopping.
//  7. [NewImportReport] assembles totals, the ordered error list and the
//     per-category partition shown to users.
//
// Row and chunk failures are accumulated in the report. Only decoding and
// format failures (before any row is processed) and unexpected panics abort a
// run; they surface as a single error instead of a report.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Codes
// are grouped as FILE (uploads), IMP (import runs), DB (store), AUTH and RATE.
package core
