package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyellow/triangulator-go/internal/catalog"
)

// ChunkRepository defines the evidence corpus operations.
type ChunkRepository interface {
	ReplaceSource(ctx context.Context, source string, chunks []Chunk) error
	SaveChunksBatch(ctx context.Context, chunks []Chunk) error
	GetAllEvidence(ctx context.Context) ([]catalog.EvidenceChunk, error)
	CountChunks(ctx context.Context) (int, error)
}

var _ ChunkRepository = (*DB)(nil)

const upsertChunkQuery = `
	INSERT INTO evidence_chunks (id, source_name, chunk_number, content, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		content = excluded.content,
		updated_at = excluded.updated_at
`

// SaveChunksBatch upserts chunks in a single transaction.
func (db *DB) SaveChunksBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	start := time.Now()
	updatedAt := start.Unix()
	err := db.ExecBatchContext(ctx, upsertChunkQuery, func(stmt *sql.Stmt) error {
		for _, c := range chunks {
			if _, err := stmt.ExecContext(ctx, c.ID(), c.SourceName, c.ChunkNumber, c.Content, updatedAt); err != nil {
				return fmt.Errorf("failed to save chunk %s: %w", c.ID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logBatch(ctx, "SaveChunksBatch", len(chunks), time.Since(start))
	return nil
}

// ReplaceSource atomically swaps every chunk of source for chunks, so a
// shorter re-export leaves no stale tail behind.
func (db *DB) ReplaceSource(ctx context.Context, source string, chunks []Chunk) error {
	start := time.Now()
	updatedAt := start.Unix()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM evidence_chunks WHERE source_name = ?`, source); err != nil {
		return fmt.Errorf("failed to clear source %s: %w", source, err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertChunkQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		c.SourceName = source
		if _, err := stmt.ExecContext(ctx, c.ID(), c.SourceName, c.ChunkNumber, c.Content, updatedAt); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", c.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logBatch(ctx, "ReplaceSource", len(chunks), time.Since(start))
	return nil
}

// GetAllEvidence returns every stored chunk in source and chunk order.
func (db *DB) GetAllEvidence(ctx context.Context) ([]catalog.EvidenceChunk, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT source_name, chunk_number, content FROM evidence_chunks ORDER BY source_name, chunk_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.EvidenceChunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.SourceName, &c.ChunkNumber, &c.Content); err != nil {
			return nil, fmt.Errorf("failed to scan evidence chunk: %w", err)
		}
		out = append(out, c.Evidence())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evidence chunks: %w", err)
	}
	return out, nil
}

// CountChunks returns the number of stored chunks.
func (db *DB) CountChunks(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM evidence_chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count evidence chunks: %w", err)
	}
	return count, nil
}

func logBatch(ctx context.Context, operation string, count int, duration time.Duration) {
	slog.DebugContext(ctx, "batch operation completed",
		"operation", operation,
		"count", count,
		"duration_ms", duration.Milliseconds())

	if duration > 500*time.Millisecond {
		slog.WarnContext(ctx, "slow batch operation",
			"operation", operation,
			"count", count,
			"duration_ms", duration.Milliseconds())
	}
}
