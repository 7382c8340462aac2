package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type panicStore struct {
	*memStore
}

func (panicStore) InsertProducts(context.Context, []Product) (int, error) {
	panic("driver exploded")
}

func TestImporter_ProductsEndToEnd(t *testing.T) {
	store := newMemStore()
	im := NewImporter(store, ImporterOptions{})

	data := []byte("BRAKE-PAD;10;99,90;Front axle\nFILTER-X;0;15,00;\nBAD ROW;abc;10;")
	res, err := im.Run(context.Background(), ImportRequest{Entity: EntityProducts, Data: data}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.TotalProcessed != 3 {
		t.Errorf("TotalProcessed = %d, want 3", res.TotalProcessed)
	}
	if res.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", res.SuccessCount)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want 1", res.Errors)
	}
	e := res.Errors[0]
	if e.Line != 3 || e.Category != CategoryValidation || !strings.Contains(e.Message, "abc") {
		t.Errorf("error = %+v", e)
	}

	if len(store.products) != 2 {
		t.Fatalf("stored %d products, want 2", len(store.products))
	}
	if got := store.products[0].Price.StringFixed(2); got != "99.90" {
		t.Errorf("price = %s, want 99.90", got)
	}
}

func TestImporter_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     ImportRequest
		wantErr any
	}{
		{name: "empty file", req: ImportRequest{Entity: EntityProducts, Data: []byte("  \n\n")}, wantErr: new(*FormatError)},
		{name: "no delimiter", req: ImportRequest{Entity: EntityProducts, Data: []byte("just text\nmore")}, wantErr: new(*FormatError)},
		{name: "binary", req: ImportRequest{Entity: EntityClients, Data: []byte("a;b\x00")}, wantErr: new(*DecodeError)},
		{name: "too large", req: ImportRequest{Entity: EntityProducts, Data: make([]byte, 101)}, wantErr: new(*FileError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			im := NewImporter(store, ImporterOptions{MaxFileSize: 100})

			_, err := im.Run(context.Background(), tt.req, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.As(err, tt.wantErr) {
				t.Errorf("error = %T (%v), want %T", err, err, tt.wantErr)
			}
			if !IsStructural(err) {
				t.Error("IsStructural() = false")
			}
			if store.insertCalls != 0 {
				t.Errorf("insert calls = %d, want 0", store.insertCalls)
			}
		})
	}
}

func TestImporter_UnknownEntity(t *testing.T) {
	im := NewImporter(newMemStore(), ImporterOptions{})
	_, err := im.Run(context.Background(), ImportRequest{Entity: "orders", Text: "a;b;c"}, nil)
	if !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("error = %v, want ErrUnknownEntity", err)
	}
}

func TestImporter_ChunkFailure(t *testing.T) {
	store := newMemStore()
	store.failCalls[2] = errors.New("deadlock detected")
	im := NewImporter(store, ImporterOptions{ProductChunkSize: 2})

	var lines []string
	for i := 1; i <= 5; i++ {
		lines = append(lines, fmt.Sprintf("P%d;1;1", i))
	}

	res, err := im.Run(context.Background(), ImportRequest{Entity: EntityProducts, Text: strings.Join(lines, "\n")}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.SuccessCount != 3 {
		t.Errorf("SuccessCount = %d, want 3", res.SuccessCount)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly 1", res.Errors)
	}
	if e := res.Errors[0]; e.Category != CategoryPersistence || e.Line != 3 || e.Chunk != 2 || !strings.Contains(e.Message, "deadlock") {
		t.Errorf("error = %+v", e)
	}
	if store.insertCalls != 3 {
		t.Errorf("insert calls = %d, want 3", store.insertCalls)
	}
}

func TestImporter_ClientReimportIsIdempotent(t *testing.T) {
	store := newMemStore()
	im := NewImporter(store, ImporterOptions{})
	req := ImportRequest{
		Entity:        EntityClients,
		Text:          "C1;Acme;Campinas;11.222.333/0001-81\nC2;Beta;Santos;",
		DefaultUserID: testUserID,
	}

	first, err := im.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.SuccessCount != 2 || len(first.Errors) != 0 {
		t.Fatalf("first run = %+v", first)
	}

	second, err := im.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.SuccessCount != 0 {
		t.Errorf("SuccessCount = %d, want 0", second.SuccessCount)
	}
	if len(second.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2", second.Errors)
	}
	for _, e := range second.Errors {
		if e.Category != CategoryDuplicate {
			t.Errorf("error = %+v, want duplicate", e)
		}
	}
	if got := strings.Join(second.DuplicateKeys, ","); got != "C1,C2" {
		t.Errorf("DuplicateKeys = %q, want C1,C2", got)
	}
	if store.clientCount() != 2 {
		t.Errorf("stored %d clients, want 2", store.clientCount())
	}
}

func TestImporter_ClientInFileDuplicates(t *testing.T) {
	store := newMemStore()
	im := NewImporter(store, ImporterOptions{})

	res, err := im.Run(context.Background(), ImportRequest{
		Entity:        EntityClients,
		Text:          "c1;Acme;Campinas\nC1;Other;Santos\nC3;Gamma;Rio",
		DefaultUserID: testUserID,
	}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", res.SuccessCount)
	}
	if len(res.Errors) != 1 || res.Errors[0].Line != 2 || !strings.Contains(res.Errors[0].Message, "earlier in this file") {
		t.Errorf("Errors = %+v", res.Errors)
	}
}

func TestImporter_LookupFailureAborts(t *testing.T) {
	store := newMemStore()
	store.lookupErr = errors.New("connection refused")
	im := NewImporter(store, ImporterOptions{})

	_, err := im.Run(context.Background(), ImportRequest{
		Entity:        EntityClients,
		Text:          "C1;Acme;Campinas",
		DefaultUserID: testUserID,
	}, nil)
	if !errors.Is(err, store.lookupErr) {
		t.Fatalf("error = %v, want lookup error", err)
	}
	if store.clientCount() != 0 {
		t.Errorf("stored %d clients, want 0", store.clientCount())
	}
}

func TestImporter_PreParsedRows(t *testing.T) {
	store := newMemStore()
	im := NewImporter(store, ImporterOptions{})

	rows := []ProductCandidate{
		{Line: 1, Fields: 3, Product: "A", Stock: "1", Price: "2.50", CleanCode: "A"},
		{Line: 2, Fields: 3, Product: "", Stock: "1", Price: "2"},
	}
	res, err := im.Run(context.Background(), ImportRequest{Entity: EntityProducts, Products: rows}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.TotalProcessed != 2 || res.SuccessCount != 1 || len(res.Errors) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestImporter_ForcedFormat(t *testing.T) {
	store := newMemStore()
	im := NewImporter(store, ImporterOptions{})

	res, err := im.Run(context.Background(), ImportRequest{
		Entity: EntityProducts,
		Text:   "A,1,2\nB,3,4",
		Format: "comma",
	}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2 (errors: %v)", res.SuccessCount, res.Errors)
	}
}

func TestImporter_Windows1252File(t *testing.T) {
	store := newMemStore()
	im := NewImporter(store, ImporterOptions{})

	res, err := im.Run(context.Background(), ImportRequest{Entity: EntityProducts, Data: []byte("Pe\xe7a;1;2;Cap\xf4")}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.SuccessCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	if store.products[0].Name != "Peça" || store.products[0].Application != "Capô" {
		t.Errorf("product = %+v", store.products[0])
	}
}

func TestImporter_ProgressIsMonotonic(t *testing.T) {
	store := newMemStore()
	im := NewImporter(store, ImporterOptions{ProductChunkSize: 50})

	var b strings.Builder
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "P%d;1;1\n", i)
	}

	type update struct {
		phase ImportPhase
		pct   int
	}
	var updates []update
	_, err := im.Run(context.Background(), ImportRequest{Entity: EntityProducts, Data: []byte(b.String())},
		func(phase ImportPhase, pct int) { updates = append(updates, update{phase, pct}) })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(updates) < 3 {
		t.Fatalf("got %d updates, want several", len(updates))
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].pct < updates[i-1].pct {
			t.Errorf("progress went backwards: %v", updates)
			break
		}
	}
	if last := updates[len(updates)-1]; last.phase != PhaseComplete || last.pct != 100 {
		t.Errorf("last update = %+v, want complete at 100", last)
	}
}

func TestImporter_PanicBecomesFatal(t *testing.T) {
	im := NewImporter(panicStore{newMemStore()}, ImporterOptions{})

	_, err := im.Run(context.Background(), ImportRequest{Entity: EntityProducts, Text: "A;1;1"}, nil)
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("error = %v, want *FatalError", err)
	}
}

func TestResolveDelimiter_SkipsLeadingBlankLines(t *testing.T) {
	d, err := ResolveDelimiter("\n\nA,1,2", "")
	if err != nil {
		t.Fatalf("ResolveDelimiter() error = %v", err)
	}
	if d != Comma {
		t.Errorf("delimiter = %q, want comma", d)
	}
}
