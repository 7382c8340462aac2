package archive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

type fakeObjectStore struct {
	buckets   map[string]bool
	existsErr error
	objects   map[string][]byte
	opts      map[string]minio.PutObjectOptions
	checks    int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		buckets: map[string]bool{},
		objects: map[string][]byte{},
		opts:    map[string]minio.PutObjectOptions{},
	}
}

func (f *fakeObjectStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	f.checks++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.buckets[bucket], nil
}

func (f *fakeObjectStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+object] = data
	f.opts[bucket+"/"+object] = opts
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: int64(len(data))}, nil
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{"plain", "stock.csv", "imports/products/id1/stock.csv"},
		{"unix path", "/tmp/up/stock.csv", "imports/products/id1/stock.csv"},
		{"windows path", `C:\Users\ana\estoque.txt`, "imports/products/id1/estoque.txt"},
		{"spaces and accents", "preços março.csv", "imports/products/id1/pre_os_mar_o.csv"},
		{"empty", "", "imports/products/id1/upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := objectName(core.EntityProducts, "id1", tt.fileName); got != tt.want {
				t.Errorf("objectName(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestArchiver_Archive(t *testing.T) {
	store := newFakeObjectStore()
	a := New(store, "imports")
	ctx := context.Background()

	loc, err := a.Archive(ctx, core.EntityClients, "abc", "clients.csv", []byte("C1;ACME;RECIFE"))
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if loc != "imports/imports/clients/abc/clients.csv" {
		t.Errorf("location = %q", loc)
	}
	if !store.buckets["imports"] {
		t.Error("bucket was not created")
	}
	if got := string(store.objects[loc]); got != "C1;ACME;RECIFE" {
		t.Errorf("stored %q", got)
	}
	opts := store.opts[loc]
	if opts.ContentType != "text/csv" || opts.UserMetadata["import-id"] != "abc" {
		t.Errorf("options = %+v", opts)
	}

	if _, err := a.Archive(ctx, core.EntityClients, "def", "clients.txt", []byte("x")); err != nil {
		t.Fatalf("second Archive() error = %v", err)
	}
	if store.checks != 1 {
		t.Errorf("bucket checked %d times, want 1", store.checks)
	}
}

func TestArchiver_BucketCheckRetried(t *testing.T) {
	store := newFakeObjectStore()
	store.existsErr = errors.New("connection refused")
	a := New(store, "imports")
	ctx := context.Background()

	if _, err := a.Archive(ctx, core.EntityProducts, "1", "a.csv", []byte("x")); err == nil {
		t.Fatal("Archive() succeeded with an unreachable store")
	}

	store.existsErr = nil
	if _, err := a.Archive(ctx, core.EntityProducts, "2", "a.csv", []byte("x")); err != nil {
		t.Fatalf("Archive() after recovery error = %v", err)
	}
	if store.checks != 2 {
		t.Errorf("bucket checked %d times, want 2", store.checks)
	}
}
