// Package dirimport imports the files dropped into an uploads directory.
//
// The root holds one subdirectory per entity (products/, clients/). Every
// .csv and .txt file in a subdirectory is imported as that entity. Files whose
// name already appears in the import history with persisted rows are skipped,
// so a directory can be processed again after new files arrive.
package dirimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// historyLimit is how many audit entries are read per entity to find files
// that were already imported.
const historyLimit = core.MaxPageSize

// Importer is the part of core.Service a directory run needs.
type Importer interface {
	Import(ctx context.Context, req core.ImportRequest) (core.ImportReport, error)
	ImportHistory(ctx context.Context, entity core.Entity, limit int) ([]core.ImportAuditEntry, error)
}

// Options controls a directory run.
type Options struct {
	Entities []core.Entity // subdirectories to process (default: all entities)
	Format   string        // delimiter hint passed to every import
	UserID   string        // user bound to client rows without a user column
	Force    bool          // import files even if they were imported before
}

// FileResult is the outcome of one file.
type FileResult struct {
	Entity  core.Entity
	Path    string
	Skipped bool
	Report  *core.ImportReport
	Err     error
}

// Run imports every pending file under root. A failed file is recorded in its
// result and the run continues; only a missing root or a cancelled context
// stops it.
func Run(ctx context.Context, imp Importer, root string, opts Options) ([]FileResult, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("uploads root: %w", err)
	}

	entities := opts.Entities
	if len(entities) == 0 {
		for _, info := range core.All() {
			entities = append(entities, info.Key)
		}
	}

	var results []FileResult
	for _, entity := range entities {
		files, err := pendingFiles(filepath.Join(root, string(entity)))
		if err != nil {
			return results, err
		}
		if len(files) == 0 {
			continue
		}

		done := map[string]bool{}
		if !opts.Force {
			if done, err = importedFiles(ctx, imp, entity); err != nil {
				return results, err
			}
		}

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return results, fmt.Errorf("operation cancelled: %w", err)
			}

			res := FileResult{Entity: entity, Path: path}
			if done[filepath.Base(path)] {
				res.Skipped = true
				slog.Info("skipping imported file", "entity", entity, "file", path)
				results = append(results, res)
				continue
			}

			res.Report, res.Err = importFile(ctx, imp, entity, path, opts)
			results = append(results, res)
		}
	}
	return results, nil
}

// pendingFiles lists the .csv and .txt files of dir in name order. A missing
// directory has no files.
func pendingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".txt":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// importedFiles returns the names of files with persisted rows in the recent
// history of entity.
func importedFiles(ctx context.Context, imp Importer, entity core.Entity) (map[string]bool, error) {
	entries, err := imp.ImportHistory(ctx, entity, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("import history for %s: %w", entity, err)
	}

	done := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.FileName != "" && e.Imported > 0 {
			done[e.FileName] = true
		}
	}
	return done, nil
}

func importFile(ctx context.Context, imp Importer, entity core.Entity, path string, opts Options) (*core.ImportReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	report, err := imp.Import(ctx, core.ImportRequest{
		Entity:        entity,
		FileName:      filepath.Base(path),
		Data:          data,
		Format:        opts.Format,
		DefaultUserID: opts.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	return &report, nil
}
