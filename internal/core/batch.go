package core

import (
	"context"
)

// Default chunk sizes per entity.
const (
	DefaultClientChunkSize  = 500
	DefaultProductChunkSize = 1000
)

// Partition splits rows into consecutive chunks of at most size elements,
// preserving order. The chunks share rows' backing array.
func Partition[T any](rows []T, size int) [][]T {
	if len(rows) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(rows)
	}

	chunks := make([][]T, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		chunks = append(chunks, rows[start:end:end])
	}
	return chunks
}

// InsertFunc persists one chunk and returns the number of rows actually
// written, which may be lower than len(chunk).
type InsertFunc[T any] func(ctx context.Context, chunk []T) (int, error)

// BatchImporter sends chunks to the store strictly in order, one at a time.
// A failed chunk is recorded as one PersistenceError and the loop continues.
type BatchImporter[T any] struct {
	ChunkSize int
	Insert    InsertFunc[T]
	LineOf    func(T) int

	progress *progressTracker
}

// BatchOutcome aggregates the result of all chunk inserts.
type BatchOutcome struct {
	Inserted int
	Failures []*PersistenceError
}

// Run attempts every chunk of rows and never returns early.
func (b *BatchImporter[T]) Run(ctx context.Context, rows []T) BatchOutcome {
	var out BatchOutcome
	chunks := Partition(rows, b.ChunkSize)

	done := 0
	for i, chunk := range chunks {
		n, err := b.Insert(ctx, chunk)
		if err != nil {
			out.Failures = append(out.Failures, &PersistenceError{
				Chunk:     i + 1,
				FirstLine: b.LineOf(chunk[0]),
				LastLine:  b.LineOf(chunk[len(chunk)-1]),
				Err:       err,
			})
		} else {
			out.Inserted += n
		}

		done += len(chunk)
		b.progress.persist(done, len(rows))
	}

	return out
}
