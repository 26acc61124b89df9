// Package corpus loads catalog exports into the evidence store and keeps
// the local BM25 index in step with it.
//
// An export is quasi-CSV text with one record per course. Every record
// opens with a canonical INSTITUTION::SUBJECT::NUMBER token; quoted
// descriptions may wrap onto following lines, so a record runs until the
// next line that opens with a token.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/storage"
)

// DefaultRecordsPerChunk groups records into retrieval-sized chunks.
const DefaultRecordsPerChunk = 5

// maxLineBytes bounds a single physical line of an export.
const maxLineBytes = 4 << 20

// SplitRecords reads an export and returns its records in order. Lines
// before the first record (headers, comments) are dropped.
func SplitRecords(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		records []string
		current strings.Builder
	)
	flush := func() {
		if rec := strings.TrimSpace(current.String()); rec != "" {
			records = append(records, rec)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if catalog.StartsRecord(line) {
			flush()
			current.WriteString(line)
			continue
		}
		if current.Len() == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		current.WriteByte('\n')
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog export: %w", err)
	}
	flush()
	return records, nil
}

// BuildChunks groups records into chunks of perChunk records, numbered
// from 0. perChunk <= 0 selects DefaultRecordsPerChunk.
func BuildChunks(source string, records []string, perChunk int) []storage.Chunk {
	if perChunk <= 0 {
		perChunk = DefaultRecordsPerChunk
	}

	chunks := make([]storage.Chunk, 0, (len(records)+perChunk-1)/perChunk)
	for i := 0; i < len(records); i += perChunk {
		end := min(i+perChunk, len(records))
		chunks = append(chunks, storage.Chunk{
			SourceName:  source,
			ChunkNumber: len(chunks),
			Content:     strings.Join(records[i:end], "\n"),
		})
	}
	return chunks
}
