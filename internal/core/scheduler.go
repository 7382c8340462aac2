package core

// scheduler.go runs background maintenance for the import audit log.
//
// The pruner deletes audit entries older than the retention period. It runs
// once on start, then every CheckInterval, and stops with its context. A
// failed run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// PruneConfig holds settings for the audit pruner. Zero values fall back to
// the defaults.
type PruneConfig struct {
	RetentionDays int           // Days to keep audit entries (default: 90)
	CheckInterval time.Duration // How often to run (default: 24h)
}

// Pruner defaults.
const (
	DefaultAuditRetentionDays = 90
	DefaultPruneInterval      = 24 * time.Hour
)

func (c PruneConfig) withDefaults() PruneConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = DefaultAuditRetentionDays
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultPruneInterval
	}
	return c
}

// StartAuditPruner blocks, pruning old audit entries until ctx is cancelled.
// It returns immediately when no audit log is configured.
func (s *Service) StartAuditPruner(ctx context.Context, cfg PruneConfig) {
	if s.audit == nil {
		return
	}
	cfg = cfg.withDefaults()

	slog.Info("audit pruner started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval,
	)

	s.runPruneJob(ctx, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit pruner stopped")
			return
		case now := <-ticker.C:
			s.runPruneJob(ctx, cfg, now)
		}
	}
}

// runPruneJob performs one prune cycle relative to now.
func (s *Service) runPruneJob(ctx context.Context, cfg PruneConfig, now time.Time) {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	pruned, err := s.audit.PruneImports(ctx, cutoff)
	if err != nil {
		slog.Error("audit prune failed", "error", err)
		return
	}

	slog.Info("pruned import audit entries",
		"entries_pruned", pruned,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
