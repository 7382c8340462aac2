package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// RecordImport inserts one audit entry.
func (s *Store) RecordImport(ctx context.Context, e core.ImportAuditEntry) error {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return fmt.Errorf("audit entry id: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO import_audit
			(id, entity, file_name, outcome, total, imported, rejected, error,
			 user_id, ip_address, archived_at, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, string(e.Entity), toPgText(e.FileName), string(e.Outcome),
		e.Total, e.Imported, e.Rejected, toPgText(e.Error),
		toPgUUID(e.UserID), toPgText(e.IPAddress), toPgText(e.ArchivedAt),
		e.DurationMs, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// RecentImports returns up to limit entries, newest first. An empty entity
// matches every entity.
func (s *Store) RecentImports(ctx context.Context, entity core.Entity, limit int) ([]core.ImportAuditEntry, error) {
	wb := newWhereBuilder()
	if entity != "" {
		wb.Add("entity", string(entity))
	}
	where, args := wb.Build()

	query := fmt.Sprintf(`
		SELECT id, entity, COALESCE(file_name, ''), outcome, total, imported, rejected,
		       COALESCE(error, ''), user_id, COALESCE(ip_address, ''), COALESCE(archived_at, ''),
		       duration_ms, created_at
		FROM import_audit%s
		ORDER BY created_at DESC
		LIMIT $%d`, where, wb.NextArgIndex())

	rows, err := s.pool.Query(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []core.ImportAuditEntry{}
	for rows.Next() {
		var (
			e      core.ImportAuditEntry
			id     uuid.UUID
			entity string
			out    string
			user   pgtype.UUID
		)
		if err := rows.Scan(&id, &entity, &e.FileName, &out, &e.Total, &e.Imported, &e.Rejected,
			&e.Error, &user, &e.IPAddress, &e.ArchivedAt, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = id.String()
		e.Entity = core.Entity(entity)
		e.Outcome = core.AuditOutcome(out)
		if user.Valid {
			e.UserID = user.Bytes
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return entries, nil
}

// PruneImports deletes entries created before olderThan.
func (s *Store) PruneImports(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM import_audit WHERE created_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
