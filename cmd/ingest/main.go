// Package main ingests a catalog export into the local corpus store, or
// publishes one to R2 for running servers to pick up.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/garyellow/triangulator-go/internal/config"
	"github.com/garyellow/triangulator-go/internal/corpus"
	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/r2client"
	"github.com/garyellow/triangulator-go/internal/storage"
)

var (
	fileFlag    = flag.String("file", "", "Local catalog export to ingest or publish")
	keyFlag     = flag.String("key", "", "R2 object key of the export (defaults to CORPUS_OBJECT_KEY)")
	publishFlag = flag.Bool("publish", false, "Upload -file to R2 under -key instead of ingesting")
	forceFlag   = flag.Bool("force", false, "Ingest the R2 export even if its ETag is unchanged")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.LogLevel).WithModule("ingest")
	key := *keyFlag
	if key == "" {
		key = cfg.Corpus.ObjectKey
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.CorpusIngest)
	defer cancel()

	if *publishFlag {
		if err := publish(ctx, cfg, *fileFlag, key); err != nil {
			log.WithError(err).Error("Publish failed")
			os.Exit(1)
		}
		log.WithField("key", key).Info("Catalog export published")
		return
	}

	stats, err := ingest(ctx, cfg, log, *fileFlag, key, *forceFlag)
	if err != nil {
		log.WithError(err).Error("Ingest failed")
		os.Exit(1)
	}
	_ = json.NewEncoder(os.Stdout).Encode(stats)
}

func ingest(ctx context.Context, cfg *config.Config, log *logger.Logger, file, key string, force bool) (corpus.Stats, error) {
	if file == "" && key == "" {
		return corpus.Stats{}, fmt.Errorf("one of -file or -key is required")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return corpus.Stats{}, err
	}
	defer func() { _ = db.Close() }()

	opts := []corpus.Option{
		corpus.WithRecordsPerChunk(cfg.Corpus.RecordsPerChunk),
		corpus.WithLogger(log),
	}
	if key != "" && file == "" {
		r2, err := newR2(ctx, cfg)
		if err != nil {
			return corpus.Stats{}, err
		}
		opts = append(opts, corpus.WithObjectStore(r2))
	}
	loader := corpus.NewLoader(db, nil, opts...)

	if file != "" {
		return loader.IngestFile(ctx, file)
	}
	return loader.IngestObject(ctx, key, force)
}

// publish uploads file to key, compressing it when key ends in ".zst".
func publish(ctx context.Context, cfg *config.Config, file, key string) error {
	if file == "" || key == "" {
		return fmt.Errorf("-publish requires -file and -key")
	}

	r2, err := newR2(ctx, cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var body io.Reader = f
	contentType := "text/plain; charset=utf-8"
	if strings.HasSuffix(key, r2client.CompressedSuffix) && !strings.HasSuffix(file, r2client.CompressedSuffix) {
		pr, pw := io.Pipe()
		go func() { pw.CloseWithError(r2client.Compress(pw, f)) }()
		body = pr
		contentType = "application/zstd"
	}

	_, err = r2.Upload(ctx, key, body, contentType)
	return err
}

func newR2(ctx context.Context, cfg *config.Config) (*r2client.Client, error) {
	if !cfg.R2.Enabled() {
		return nil, fmt.Errorf("R2 credentials are not configured")
	}
	return r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2.Endpoint,
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
}
