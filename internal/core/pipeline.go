package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ImportStore is the persistence contract consumed by the pipeline: bulk
// inserts that report rows written, and bulk existence lookups.
type ImportStore interface {
	ClientKeyLookup
	InsertProducts(ctx context.Context, products []Product) (int, error)
	InsertClients(ctx context.Context, clients []Client) (int, error)
}

// ImporterOptions tunes the pipeline.
type ImporterOptions struct {
	ClientChunkSize  int
	ProductChunkSize int
	MaxFileSize      int64 // 0 disables the check
}

// ImportRequest describes one import invocation. Exactly one input is used,
// in this order of precedence: Data (raw file bytes), Text (decoded text),
// then the pre-parsed Products or Clients rows.
type ImportRequest struct {
	Entity   Entity
	FileName string

	Data []byte
	Text string

	// Format forces "semicolon" or "comma"; empty means detect.
	Format string

	// DefaultUserID binds client rows that carry no user column.
	DefaultUserID string

	Products []ProductCandidate
	Clients  []ClientCandidate
}

// Importer runs the import pipeline against a store.
type Importer struct {
	store ImportStore
	opts  ImporterOptions
}

// NewImporter creates an Importer. Zero chunk sizes fall back to the defaults.
func NewImporter(store ImportStore, opts ImporterOptions) *Importer {
	if opts.ClientChunkSize <= 0 {
		opts.ClientChunkSize = DefaultClientChunkSize
	}
	if opts.ProductChunkSize <= 0 {
		opts.ProductChunkSize = DefaultProductChunkSize
	}
	return &Importer{store: store, opts: opts}
}

// Run executes one import. Row and chunk failures are part of the result; a
// non-nil error means the run was aborted (decode, format, duplicate pre-check
// or an unexpected panic) and no result is available.
func (im *Importer) Run(ctx context.Context, req ImportRequest, progress ProgressFunc) (res ImportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = ImportResult{}
			err = &FatalError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if _, ok := ParseEntity(string(req.Entity)); !ok {
		return ImportResult{}, fmt.Errorf("%w: %q", ErrUnknownEntity, req.Entity)
	}

	switch {
	case req.Data != nil:
		if im.opts.MaxFileSize > 0 && int64(len(req.Data)) > im.opts.MaxFileSize {
			return ImportResult{}, &FileError{Reason: fmt.Sprintf("file too large: %d bytes exceeds the %d byte limit", len(req.Data), im.opts.MaxFileSize)}
		}
		if progress != nil {
			progress(PhaseDecoding, 0)
		}
		text, err := DecodeText(req.Data)
		if err != nil {
			return ImportResult{}, err
		}
		return im.runText(ctx, req, text, progress)

	case req.Text != "":
		return im.runText(ctx, req, req.Text, progress)

	case req.Entity == EntityProducts:
		return im.ImportProducts(ctx, req.Products, progress)

	default:
		return im.ImportClients(ctx, req.Clients, progress)
	}
}

func (im *Importer) runText(ctx context.Context, req ImportRequest, text string, progress ProgressFunc) (ImportResult, error) {
	delim, err := ResolveDelimiter(text, req.Format)
	if err != nil {
		return ImportResult{}, err
	}

	if req.Entity == EntityProducts {
		return im.ImportProducts(ctx, ParseProducts(text, delim), progress)
	}
	return im.ImportClients(ctx, ParseClients(text, delim, req.DefaultUserID), progress)
}

// ResolveDelimiter checks that text looks like delimited data and returns the
// separator to use: the forced format when given, otherwise the detected one.
func ResolveDelimiter(text, format string) (rune, error) {
	if strings.TrimSpace(text) == "" {
		return 0, &FormatError{Reason: "empty file"}
	}

	first := SplitRecords(text)[0].Text
	if !HasDelimiter(first) {
		return 0, &FormatError{Reason: "no ';' or ',' separator found on the first line"}
	}

	if d, ok := ParseDelimiterName(format); ok {
		return d, nil
	}
	return DetectDelimiter(first), nil
}

// ImportProducts validates and persists product candidates. Duplicate product
// names are legal.
func (im *Importer) ImportProducts(ctx context.Context, rows []ProductCandidate, progress ProgressFunc) (ImportResult, error) {
	tracker := newProgressTracker(progress)
	res := ImportResult{TotalProcessed: len(rows)}

	valid := make([]Product, 0, len(rows))
	for i, row := range rows {
		if p, ie := ValidateProduct(row); ie != nil {
			res.Errors = append(res.Errors, *ie)
		} else {
			valid = append(valid, p)
		}
		tracker.scan(i+1, len(rows))
	}

	if len(valid) > 0 {
		b := &BatchImporter[Product]{
			ChunkSize: im.opts.ProductChunkSize,
			Insert:    im.store.InsertProducts,
			LineOf:    func(p Product) int { return p.Line },
			progress:  tracker,
		}
		im.collect(&res, b.Run(ctx, valid))
	}

	tracker.complete()
	sortErrors(res.Errors)
	return res, nil
}

// ImportClients validates, deduplicates and persists client candidates.
// Codes and CNPJs must be unique within the file and against the store.
func (im *Importer) ImportClients(ctx context.Context, rows []ClientCandidate, progress ProgressFunc) (ImportResult, error) {
	tracker := newProgressTracker(progress)
	res := ImportResult{TotalProcessed: len(rows)}

	valid := make([]Client, 0, len(rows))
	for i, row := range rows {
		if c, ie := ValidateClient(row); ie != nil {
			res.Errors = append(res.Errors, *ie)
		} else {
			valid = append(valid, c)
		}
		tracker.scan(i+1, len(rows))
	}

	dups := NewDuplicateDetector()
	if err := dups.Preload(ctx, im.store, valid); err != nil {
		return ImportResult{}, fmt.Errorf("duplicate pre-check: %w", err)
	}

	accepted := make([]Client, 0, len(valid))
	for _, c := range valid {
		if de := dups.Check(c); de != nil {
			res.Errors = append(res.Errors, de.ImportError())
			res.DuplicateKeys = append(res.DuplicateKeys, de.Key)
			continue
		}
		accepted = append(accepted, c)
	}

	if len(accepted) > 0 {
		b := &BatchImporter[Client]{
			ChunkSize: im.opts.ClientChunkSize,
			Insert:    im.store.InsertClients,
			LineOf:    func(c Client) int { return c.Line },
			progress:  tracker,
		}
		im.collect(&res, b.Run(ctx, accepted))
	}

	tracker.complete()
	sortErrors(res.Errors)
	return res, nil
}

func (im *Importer) collect(res *ImportResult, out BatchOutcome) {
	res.SuccessCount += out.Inserted
	for _, f := range out.Failures {
		res.Errors = append(res.Errors, f.ImportError())
	}
}

func sortErrors(errs []ImportError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Line < errs[j].Line })
}
