package core

import (
	"context"
	"fmt"
)

// ClientKeyLookup answers bulk existence queries against persisted clients.
// Each method returns the subset of the given keys that already exist.
type ClientKeyLookup interface {
	ExistingClientCodes(ctx context.Context, codes []string) ([]string, error)
	ExistingClientCNPJs(ctx context.Context, cnpjs []string) ([]string, error)
}

// DuplicateDetector enforces uniqueness of client codes and CNPJs within one
// import run. It belongs to a single invocation and is not safe for
// concurrent use.
type DuplicateDetector struct {
	seenCodes  map[string]struct{}
	seenCNPJs  map[string]struct{}
	storeCodes map[string]struct{}
	storeCNPJs map[string]struct{}
}

// NewDuplicateDetector returns an empty detector.
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{
		seenCodes:  make(map[string]struct{}),
		seenCNPJs:  make(map[string]struct{}),
		storeCodes: make(map[string]struct{}),
		storeCNPJs: make(map[string]struct{}),
	}
}

// Preload collects every code and CNPJ of clients and issues one bulk
// existence query per key kind, instead of one query per row.
func (d *DuplicateDetector) Preload(ctx context.Context, lookup ClientKeyLookup, clients []Client) error {
	codes := make([]string, 0, len(clients))
	cnpjs := make([]string, 0, len(clients))
	seenCode := make(map[string]struct{}, len(clients))
	seenCNPJ := make(map[string]struct{}, len(clients))

	for _, c := range clients {
		if _, ok := seenCode[c.Code]; !ok {
			seenCode[c.Code] = struct{}{}
			codes = append(codes, c.Code)
		}
		if c.CNPJ == "" {
			continue
		}
		if _, ok := seenCNPJ[c.CNPJ]; !ok {
			seenCNPJ[c.CNPJ] = struct{}{}
			cnpjs = append(cnpjs, c.CNPJ)
		}
	}

	if len(codes) > 0 {
		existing, err := lookup.ExistingClientCodes(ctx, codes)
		if err != nil {
			return fmt.Errorf("look up client codes: %w", err)
		}
		for _, code := range existing {
			d.storeCodes[code] = struct{}{}
		}
	}

	if len(cnpjs) > 0 {
		existing, err := lookup.ExistingClientCNPJs(ctx, cnpjs)
		if err != nil {
			return fmt.Errorf("look up client CNPJs: %w", err)
		}
		for _, cnpj := range existing {
			d.storeCNPJs[OnlyDigits(cnpj)] = struct{}{}
		}
	}

	return nil
}

// Check rejects c if its code or CNPJ collides with an earlier accepted row of
// this run or with a persisted client. Checks run in order: in-file code,
// in-file CNPJ, stored code, stored CNPJ. Accepted rows are remembered.
func (d *DuplicateDetector) Check(c Client) *DuplicateError {
	if _, ok := d.seenCodes[c.Code]; ok {
		return &DuplicateError{Line: c.Line, Kind: "code", Key: c.Code}
	}
	if c.CNPJ != "" {
		if _, ok := d.seenCNPJs[c.CNPJ]; ok {
			return &DuplicateError{Line: c.Line, Kind: "CNPJ", Key: FormatCNPJ(c.CNPJ)}
		}
	}
	if _, ok := d.storeCodes[c.Code]; ok {
		return &DuplicateError{Line: c.Line, Kind: "code", Key: c.Code, InStore: true}
	}
	if c.CNPJ != "" {
		if _, ok := d.storeCNPJs[c.CNPJ]; ok {
			return &DuplicateError{Line: c.Line, Kind: "CNPJ", Key: FormatCNPJ(c.CNPJ), InStore: true}
		}
	}

	d.seenCodes[c.Code] = struct{}{}
	if c.CNPJ != "" {
		d.seenCNPJs[c.CNPJ] = struct{}{}
	}
	return nil
}
