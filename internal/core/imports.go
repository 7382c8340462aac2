package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/bizdesk/internal/logging"
)

type activeImport struct {
	ID        string
	Entity    Entity
	FileName  string
	ArchiveAt string
	StartedAt time.Time

	mu        sync.Mutex
	progress  ImportProgress
	report    *ImportReport
	listeners []chan ImportProgress

	done chan struct{}
}

// ImportStatus is the externally visible state of an asynchronous import.
type ImportStatus struct {
	Progress   ImportProgress `json:"progress"`
	Report     *ImportReport  `json:"report,omitempty"`
	ArchivedAt string         `json:"archivedAt,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
}

// StartImport runs req in the background and returns its ID immediately.
// Use SubscribeProgress to follow it and Status or Wait to read the report.
//
// Returns ErrTooManyImports if no import slot frees up within the wait time.
func (s *Service) StartImport(ctx context.Context, req ImportRequest) (string, error) {
	if _, ok := ParseEntity(string(req.Entity)); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntity, req.Entity)
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	id := uuid.NewString()
	imp := &activeImport{
		ID:        id,
		Entity:    req.Entity,
		FileName:  req.FileName,
		StartedAt: time.Now(),
		progress: ImportProgress{
			ImportID: id,
			Entity:   req.Entity,
			FileName: req.FileName,
			Phase:    PhaseStarting,
		},
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.imports[id] = imp
	s.mu.Unlock()

	// Detached from the request; bounded by the import timeout instead.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	runCtx = logging.WithImportID(runCtx, id)

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in import", "import_id", id, "entity", req.Entity, "panic", r)
				imp.finish(nil, &FatalError{Err: fmt.Errorf("panic: %v", r)})
			}
			s.cleanup(id, s.cfg.Retention)
		}()
		s.runImport(runCtx, imp, req)
	}()

	return id, nil
}

func (s *Service) runImport(ctx context.Context, imp *activeImport, req ImportRequest) {
	log := logging.WithFields(ctx, "entity", req.Entity, "file", req.FileName)
	log.Info("import started", "bytes", len(req.Data))

	if s.archiver != nil && req.Data != nil {
		loc, err := s.archiver.Archive(ctx, req.Entity, imp.ID, req.FileName, req.Data)
		if err != nil {
			log.Warn("archive upload failed", "error", err)
		} else {
			imp.mu.Lock()
			imp.ArchiveAt = loc
			imp.mu.Unlock()
		}
	}

	start := time.Now()
	res, err := s.importer.Run(ctx, req, imp.update)
	if err != nil {
		log.Warn("import failed", "error", err, "duration", time.Since(start))
		s.recordRun(ctx, imp, req, nil, err, time.Since(start))
		imp.finish(nil, err)
		return
	}

	report := NewImportReport(req.Entity, res)
	log.Info("import finished",
		"total", report.TotalProcessed,
		"imported", report.SuccessCount,
		"rejected", report.Rejected(),
		"duration", time.Since(start),
	)
	s.recordRun(ctx, imp, req, &report, nil, time.Since(start))
	s.invalidateCatalog(ctx, req.Entity, report.SuccessCount)
	imp.finish(&report, nil)
}

func (s *Service) recordRun(ctx context.Context, imp *activeImport, req ImportRequest, report *ImportReport, runErr error, elapsed time.Duration) {
	e := newAuditEntry(ctx, imp.ID, req, report, runErr, elapsed)
	e.ArchivedAt = imp.status().ArchivedAt
	s.recordAudit(ctx, e)
}

// update records a progress change and fans it out to listeners.
func (imp *activeImport) update(phase ImportPhase, percent int) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	imp.progress.Phase = phase
	imp.progress.Percent = percent
	imp.notifyLocked()
}

// finish stores the final state, closes listeners and marks the run done.
// Only the first call has an effect.
func (imp *activeImport) finish(report *ImportReport, err error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	select {
	case <-imp.done:
		return
	default:
	}

	if err != nil {
		imp.progress.Phase = PhaseFailed
		imp.progress.Error = err.Error()
	} else {
		imp.progress.Phase = PhaseComplete
		imp.progress.Percent = 100
		imp.report = report
	}
	imp.notifyLocked()

	for _, ch := range imp.listeners {
		close(ch)
	}
	imp.listeners = nil
	close(imp.done)
}

func (imp *activeImport) notifyLocked() {
	for _, ch := range imp.listeners {
		select {
		case ch <- imp.progress:
		default:
			// Slow listener; it will catch up on the next update.
		}
	}
}

func (imp *activeImport) status() ImportStatus {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	return ImportStatus{
		Progress:   imp.progress,
		Report:     imp.report,
		ArchivedAt: imp.ArchiveAt,
		StartedAt:  imp.StartedAt,
	}
}

func (s *Service) lookup(id string) (*activeImport, error) {
	s.mu.RLock()
	imp, ok := s.imports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	return imp, nil
}

// SubscribeProgress returns a channel of progress updates for an import. The
// current state is sent first; the channel is closed when the run ends. The
// returned function unsubscribes early.
func (s *Service) SubscribeProgress(id string) (<-chan ImportProgress, func(), error) {
	imp, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan ImportProgress, 16)

	imp.mu.Lock()
	ch <- imp.progress
	select {
	case <-imp.done:
		close(ch)
		imp.mu.Unlock()
		return ch, func() {}, nil
	default:
	}
	imp.listeners = append(imp.listeners, ch)
	imp.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			imp.mu.Lock()
			defer imp.mu.Unlock()
			for i, l := range imp.listeners {
				if l == ch {
					imp.listeners = append(imp.listeners[:i], imp.listeners[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
	return ch, unsubscribe, nil
}

// Status returns the current state of an import without blocking.
func (s *Service) Status(id string) (ImportStatus, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return ImportStatus{}, err
	}
	return imp.status(), nil
}

// Report returns the report of a finished import. It returns
// ErrImportRunning while the run is in progress and the failure message when
// the run aborted.
func (s *Service) Report(id string) (*ImportReport, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	st := imp.status()
	switch {
	case st.Report != nil:
		return st.Report, nil
	case st.Progress.Phase == PhaseFailed:
		return nil, fmt.Errorf("%w: %s", ErrImportFailed, st.Progress.Error)
	default:
		return nil, fmt.Errorf("%s: %w", id, ErrImportRunning)
	}
}

// Wait blocks until the import ends or ctx is done, then returns its report.
// A run that aborted returns an error carrying its failure message.
func (s *Service) Wait(ctx context.Context, id string) (*ImportReport, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	select {
	case <-imp.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	st := imp.status()
	if st.Report == nil {
		return nil, errors.New(st.Progress.Error)
	}
	return st.Report, nil
}

// cleanup forgets an import after delay.
func (s *Service) cleanup(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.imports, id)
		s.mu.Unlock()
	})
}
