package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/garyellow/triangulator-go/internal/catalog"
	domerrors "github.com/garyellow/triangulator-go/internal/errors"
	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/metrics"
	"github.com/garyellow/triangulator-go/internal/r2client"
	"github.com/garyellow/triangulator-go/internal/storage"
)

// Store persists evidence chunks.
type Store interface {
	ReplaceSource(ctx context.Context, source string, chunks []storage.Chunk) error
	GetAllEvidence(ctx context.Context) ([]catalog.EvidenceChunk, error)
}

// Index is rebuilt from the store after every ingest.
type Index interface {
	Initialize(chunks []catalog.EvidenceChunk) error
}

// ObjectStore serves exports kept in object storage.
type ObjectStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	HeadObject(ctx context.Context, key string) (string, error)
}

// Stats summarizes one ingest.
type Stats struct {
	Source  string `json:"source"`
	Records int    `json:"records"`
	Chunks  int    `json:"chunks"`
	ETag    string `json:"etag,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// Loader ingests catalog exports. Ingests are serialized.
type Loader struct {
	store    Store
	index    Index
	objects  ObjectStore
	perChunk int
	logger   *logger.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	etags map[string]string
}

// Option configures a Loader.
type Option func(*Loader)

// WithObjectStore enables IngestObject.
func WithObjectStore(o ObjectStore) Option {
	return func(l *Loader) { l.objects = o }
}

// WithRecordsPerChunk sets how many records share one chunk.
func WithRecordsPerChunk(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.perChunk = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a loader writing to store. index may be nil when no
// local retrieval is configured.
func NewLoader(store Store, index Index, opts ...Option) *Loader {
	l := &Loader{
		store:    store,
		index:    index,
		perChunk: DefaultRecordsPerChunk,
		logger:   logger.NewWithWriter("error", io.Discard),
		etags:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithModule("corpus")
	return l
}

// IngestReader replaces source with the records read from r and rebuilds
// the index.
func (l *Loader) IngestReader(ctx context.Context, source string, r io.Reader) (Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats, err := l.ingest(ctx, source, r)
	l.record(err)
	return stats, err
}

// IngestFile ingests a local export. Files ending in ".zst" are decompressed.
func (l *Loader) IngestFile(ctx context.Context, filePath string) (Stats, error) {
	f, err := os.Open(filePath)
	if err != nil {
		l.metrics.RecordCorpusIngest("error")
		return Stats{}, fmt.Errorf("failed to open export: %w", err)
	}

	var rc io.ReadCloser = f
	if strings.HasSuffix(filePath, r2client.CompressedSuffix) {
		if rc, err = r2client.NewDecompressReader(f); err != nil {
			_ = f.Close()
			l.metrics.RecordCorpusIngest("error")
			return Stats{}, err
		}
	}
	defer func() { _ = rc.Close() }()

	return l.IngestReader(ctx, SourceName(filePath), rc)
}

// IngestObject ingests an export from object storage. Unless force is set,
// an object whose ETag matches the last ingest is skipped.
func (l *Loader) IngestObject(ctx context.Context, key string, force bool) (Stats, error) {
	if l.objects == nil {
		return Stats{}, errors.New("corpus: object storage is not configured")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	source := SourceName(key)
	if !force {
		etag, err := l.objects.HeadObject(ctx, key)
		if err != nil {
			l.record(err)
			return Stats{}, fmt.Errorf("failed to stat export %s: %w", key, err)
		}
		if etag != "" && etag == l.etags[key] {
			l.metrics.RecordCorpusIngest("skipped")
			return Stats{Source: source, ETag: etag, Skipped: true}, nil
		}
	}

	body, etag, err := l.objects.Open(ctx, key)
	if err != nil {
		l.record(err)
		return Stats{}, fmt.Errorf("failed to download export %s: %w", key, err)
	}
	defer func() { _ = body.Close() }()

	stats, err := l.ingest(ctx, source, body)
	l.record(err)
	if err != nil {
		return stats, err
	}
	stats.ETag = etag
	l.etags[key] = etag
	return stats, nil
}

// Rebuild reloads the index from the store and returns the chunk count.
func (l *Loader) Rebuild(ctx context.Context) (int, error) {
	evidence, err := l.store.GetAllEvidence(ctx)
	if err != nil {
		return 0, err
	}
	if l.index == nil {
		return len(evidence), nil
	}
	if err := l.index.Initialize(evidence); err != nil {
		return 0, fmt.Errorf("failed to rebuild index: %w", err)
	}
	return len(evidence), nil
}

func (l *Loader) ingest(ctx context.Context, source string, r io.Reader) (Stats, error) {
	start := time.Now()

	records, err := SplitRecords(r)
	if err != nil {
		return Stats{}, err
	}
	if len(records) == 0 {
		return Stats{}, fmt.Errorf("%w: export %s has no catalog records", domerrors.ErrInvalidInput, source)
	}

	chunks := BuildChunks(source, records, l.perChunk)
	if err := l.store.ReplaceSource(ctx, source, chunks); err != nil {
		return Stats{}, err
	}
	total, err := l.Rebuild(ctx)
	if err != nil {
		return Stats{}, err
	}

	l.logger.WithFields(map[string]any{
		"source":       source,
		"records":      len(records),
		"chunks":       len(chunks),
		"total_chunks": total,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).InfoContext(ctx, "Catalog export ingested")

	return Stats{Source: source, Records: len(records), Chunks: len(chunks)}, nil
}

func (l *Loader) record(err error) {
	if err != nil {
		l.metrics.RecordCorpusIngest("error")
		return
	}
	l.metrics.RecordCorpusIngest("success")
}

// SourceName derives the stored source name from a path or object key.
func SourceName(p string) string {
	base := path.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, r2client.CompressedSuffix)
}
