package storage

import (
	"fmt"

	"github.com/garyellow/triangulator-go/internal/catalog"
)

// Chunk is one stored slice of a catalog export.
type Chunk struct {
	SourceName  string `json:"source_name"`
	ChunkNumber int    `json:"chunk_number"`
	Content     string `json:"content"`
	UpdatedAt   int64  `json:"updated_at"`
}

// ID returns the evidence identifier source::page::chunk. Stored exports
// have no pages, so the page is always 0.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s::0::%d", c.SourceName, c.ChunkNumber)
}

// Evidence converts the chunk to an unscored evidence chunk.
func (c Chunk) Evidence() catalog.EvidenceChunk {
	return catalog.EvidenceChunk{ID: c.ID(), Text: c.Content}
}
