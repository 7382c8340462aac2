// Package archive stores a copy of every uploaded import file in an
// S3-compatible bucket (MinIO).
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JonMunkholm/bizdesk/internal/config"
	"github.com/JonMunkholm/bizdesk/internal/core"
)

// objectStore is the subset of *minio.Client used by Archiver.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archiver implements core.Archiver.
type Archiver struct {
	client objectStore
	bucket string

	mu    sync.Mutex
	ready bool
}

var _ core.Archiver = (*Archiver)(nil)

// NewClient creates a MinIO client from the storage settings.
func NewClient(cfg config.StorageConfig) (*minio.Client, error) {
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
}

// New returns an Archiver writing to bucket. The bucket is created on the
// first upload if it does not exist.
func New(client objectStore, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket}
}

// Archive uploads data and returns "bucket/object".
func (a *Archiver) Archive(ctx context.Context, entity core.Entity, importID, fileName string, data []byte) (string, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	name := objectName(entity, importID, fileName)
	_, err := a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(fileName),
		UserMetadata: map[string]string{
			"entity":    string(entity),
			"import-id": importID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return a.bucket + "/" + name, nil
}

func (a *Archiver) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", a.bucket, err)
		}
	}
	a.ready = true
	return nil
}

// objectName returns imports/<entity>/<id>/<file> with the file name reduced
// to its base and stripped of characters that are awkward in object keys.
func objectName(entity core.Entity, importID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "/" || base == "_" {
		base = "upload"
	}
	return fmt.Sprintf("imports/%s/%s/%s", entity, importID, base)
}

func contentType(fileName string) string {
	if strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return "text/csv"
	}
	return "text/plain"
}
