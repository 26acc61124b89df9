package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return createEvidenceChunksTable(ctx, db)
}

func createEvidenceChunksTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS evidence_chunks (
		id TEXT PRIMARY KEY,
		source_name TEXT NOT NULL,
		chunk_number INTEGER NOT NULL,
		content TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_evidence_chunks_source ON evidence_chunks(source_name, chunk_number);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create evidence_chunks table: %w", err)
	}

	return nil
}
