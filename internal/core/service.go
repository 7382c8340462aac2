package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/bizdesk/internal/logging"
)

// Service defaults.
const (
	DefaultImportTimeout   = 10 * time.Minute
	DefaultResultRetention = 30 * time.Minute
)

// Archiver keeps a copy of an uploaded file and returns its location.
type Archiver interface {
	Archive(ctx context.Context, entity Entity, importID, fileName string, data []byte) (string, error)
}

// ServiceConfig holds Service settings.
type ServiceConfig struct {
	Importer      ImporterOptions
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration // per import run
	Retention     time.Duration // how long finished runs stay queryable
	PreviewRows   int
}

// Service is the entry point for imports and catalog reads.
type Service struct {
	importer *Importer
	catalog  CatalogStore
	archiver Archiver
	audit    AuditLog
	limiter  *ImportLimiter
	cfg      ServiceConfig

	mu      sync.RWMutex
	imports map[string]*activeImport
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithArchiver stores every uploaded file before it is imported.
func WithArchiver(a Archiver) ServiceOption {
	return func(s *Service) { s.archiver = a }
}

// WithCatalog replaces the catalog reader, e.g. with a caching decorator.
func WithCatalog(c CatalogStore) ServiceOption {
	return func(s *Service) { s.catalog = c }
}

// NewService creates a Service on top of an import store and a catalog.
func NewService(store ImportStore, catalog CatalogStore, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultResultRetention
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultPreviewRows
	}

	s := &Service{
		importer: NewImporter(store, cfg.Importer),
		catalog:  catalog,
		limiter:  NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:      cfg,
		imports:  make(map[string]*activeImport),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entities returns the importable entities.
func (s *Service) Entities() []EntityInfo {
	return All()
}

// Import runs a synchronous import and returns its report. The call holds an
// import slot for its whole duration.
func (s *Service) Import(ctx context.Context, req ImportRequest) (ImportReport, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return ImportReport{}, err
	}
	defer s.limiter.Release()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	log := logging.WithFields(ctx, "entity", req.Entity)

	id := uuid.NewString()
	res, err := s.importer.Run(runCtx, req, nil)
	if err != nil {
		log.Warn("import failed", "error", err)
		s.recordAudit(ctx, newAuditEntry(ctx, id, req, nil, err, time.Since(start)))
		return ImportReport{}, err
	}

	report := NewImportReport(req.Entity, res)
	log.Info("import finished",
		"total", report.TotalProcessed,
		"imported", report.SuccessCount,
		"rejected", report.Rejected(),
		"duration", time.Since(start),
	)
	s.recordAudit(ctx, newAuditEntry(ctx, id, req, &report, nil, time.Since(start)))
	s.invalidateCatalog(ctx, req.Entity, report.SuccessCount)
	return report, nil
}

// Preview decodes a file and validates its first lines without persisting.
func (s *Service) Preview(entity Entity, data []byte, format, defaultUserID string) (*PreviewResponse, error) {
	if limit := s.cfg.Importer.MaxFileSize; limit > 0 && int64(len(data)) > limit {
		return nil, &FileError{Reason: fmt.Sprintf("file too large: %d bytes exceeds the %d byte limit", len(data), limit)}
	}
	return BuildPreview(entity, data, format, s.cfg.PreviewRows, defaultUserID)
}

// Clients returns a page of clients. Callers that are authenticated but not
// admins only see the clients bound to them.
func (s *Service) Clients(ctx context.Context, q ListQuery) (Page[ClientRecord], error) {
	q = q.Normalize()
	if u, ok := UserFromContext(ctx); ok && !u.IsAdmin {
		q.OwnerID = u.ID
	}

	page, err := s.catalog.ListClients(ctx, q)
	if err != nil {
		return Page[ClientRecord]{}, fmt.Errorf("list clients: %w", err)
	}
	for i := range page.Items {
		page.Items[i].FormattedCNPJ = page.Items[i].Client.FormattedCNPJ()
	}
	return page, nil
}

// Products returns a page of products.
func (s *Service) Products(ctx context.Context, q ListQuery) (Page[ProductRecord], error) {
	page, err := s.catalog.ListProducts(ctx, q.Normalize())
	if err != nil {
		return Page[ProductRecord]{}, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for running imports to finish or ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
