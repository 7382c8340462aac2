package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AuditOutcome is how an import run ended.
type AuditOutcome string

const (
	OutcomeImported AuditOutcome = "imported" // every row persisted
	OutcomePartial  AuditOutcome = "partial"  // some rows rejected
	OutcomeRejected AuditOutcome = "rejected" // no row persisted
	OutcomeFailed   AuditOutcome = "failed"   // aborted without a report
)

// ImportAuditEntry records one import run.
type ImportAuditEntry struct {
	ID         string       `json:"id"`
	Entity     Entity       `json:"entity"`
	FileName   string       `json:"fileName,omitempty"`
	Outcome    AuditOutcome `json:"outcome"`
	Total      int          `json:"total"`
	Imported   int          `json:"imported"`
	Rejected   int          `json:"rejected"`
	Error      string       `json:"error,omitempty"`
	UserID     uuid.UUID    `json:"userId"`
	IPAddress  string       `json:"ipAddress,omitempty"`
	ArchivedAt string       `json:"archivedAt,omitempty"`
	DurationMs int64        `json:"durationMs"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// AuditLog persists import runs.
type AuditLog interface {
	RecordImport(ctx context.Context, e ImportAuditEntry) error
	RecentImports(ctx context.Context, entity Entity, limit int) ([]ImportAuditEntry, error)
	PruneImports(ctx context.Context, olderThan time.Time) (int64, error)
}

// WithAuditLog records every finished import run.
func WithAuditLog(a AuditLog) ServiceOption {
	return func(s *Service) { s.audit = a }
}

func outcomeOf(report *ImportReport) AuditOutcome {
	switch {
	case report == nil:
		return OutcomeFailed
	case report.TotalProcessed > 0 && report.SuccessCount == report.TotalProcessed:
		return OutcomeImported
	case report.SuccessCount == 0:
		return OutcomeRejected
	default:
		return OutcomePartial
	}
}

// newAuditEntry builds the audit record of a run from its report, or from
// runErr when the run aborted.
func newAuditEntry(ctx context.Context, id string, req ImportRequest, report *ImportReport, runErr error, elapsed time.Duration) ImportAuditEntry {
	e := ImportAuditEntry{
		ID:         id,
		Entity:     req.Entity,
		FileName:   req.FileName,
		Outcome:    outcomeOf(report),
		IPAddress:  GetIPAddressFromContext(ctx),
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if u, ok := UserFromContext(ctx); ok {
		e.UserID = u.ID
	}
	if report != nil {
		e.Total = report.TotalProcessed
		e.Imported = report.SuccessCount
		e.Rejected = report.Rejected()
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	return e
}

// recordAudit stores e. Failures are logged and never affect the import.
func (s *Service) recordAudit(ctx context.Context, e ImportAuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordImport(ctx, e); err != nil {
		slog.Warn("failed to record import audit entry", "import_id", e.ID, "error", err)
	}
}

// ImportHistory returns the most recent import runs, newest first. An empty
// entity returns runs of every entity.
func (s *Service) ImportHistory(ctx context.Context, entity Entity, limit int) ([]ImportAuditEntry, error) {
	if s.audit == nil {
		return []ImportAuditEntry{}, nil
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	return s.audit.RecentImports(ctx, entity, limit)
}
