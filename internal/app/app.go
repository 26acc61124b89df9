// Package app wires the lookup service together and manages its lifecycle:
// retrieval backend, corpus ingest, fallback chain, rate limits and the HTTP
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/config"
	"github.com/garyellow/triangulator-go/internal/corpus"
	"github.com/garyellow/triangulator-go/internal/createai"
	"github.com/garyellow/triangulator-go/internal/genai"
	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/lookup"
	"github.com/garyellow/triangulator-go/internal/metrics"
	"github.com/garyellow/triangulator-go/internal/r2client"
	"github.com/garyellow/triangulator-go/internal/rag"
	"github.com/garyellow/triangulator-go/internal/ratelimit"
	"github.com/garyellow/triangulator-go/internal/sentry"
	"github.com/garyellow/triangulator-go/internal/storage"
	"github.com/garyellow/triangulator-go/internal/tcgpage"
)

// Application manages the service lifecycle and dependencies.
type Application struct {
	cfg       *config.Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	createai  *createai.Client
	completer *genai.FallbackCompleter
	lookup    *lookup.Orchestrator
	server    *http.Server

	// Local retrieval only.
	db     *storage.DB
	bm25   *rag.BM25Index
	loader *corpus.Loader
	poller *corpus.Poller

	globalLimiter *ratelimit.Limiter
	clientLimiter *ratelimit.KeyedLimiter
	llmLimiter    *ratelimit.KeyedLimiter

	wg sync.WaitGroup
}

// Initialize creates the application and all of its dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.Server.LogLevel, os.Stdout, logger.Options{
		BetterstackToken:    cfg.BetterStack.Token,
		BetterstackEndpoint: cfg.BetterStack.Endpoint,
	})
	log = log.WithField("service", "triangulator")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	// Package-level slog calls pick up request and lookup IDs too.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	a := &Application{
		cfg:      cfg,
		logger:   log,
		metrics:  m,
		registry: registry,
		createai: createai.NewClient(buildCreateAIConfig(cfg)),
	}

	retriever, err := a.initRetrieval(ctx)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	a.completer = genai.CreateCompleter(ctx, buildLLMConfig(cfg), a.createai, m)
	var completer lookup.Completer
	if a.completer.Len() > 0 {
		completer = a.completer
		log.WithField("primary", a.completer.Provider()).
			WithField("chain_size", a.completer.Len()).
			Info("LLM fallback enabled")
	} else {
		log.Warn("No LLM provider configured; inconclusive lookups return deterministic results")
	}

	clientCfg := buildClientLimiterConfig(cfg)
	clientCfg.Metrics = m
	llmCfg := buildLLMLimiterConfig(cfg)
	llmCfg.Metrics = m
	a.globalLimiter = ratelimit.New(cfg.RateLimit.GlobalRPS, cfg.RateLimit.GlobalRPS)
	a.clientLimiter = ratelimit.NewKeyedLimiter(clientCfg)
	a.llmLimiter = ratelimit.NewKeyedLimiter(llmCfg)

	opts := []lookup.Option{
		lookup.WithLogger(log),
		lookup.WithMetrics(m),
		lookup.WithFallbackGate(a.llmLimiter),
		lookup.WithErrorReporter(func(ctx context.Context, err error) {
			sentry.CaptureError(ctx, err, map[string]string{"module": "lookup"})
		}),
	}
	if cfg.Retrieval.Mode == config.RetrievalCreateAI {
		opts = append(opts, lookup.WithCredentials(a.createai))
	}
	a.lookup = lookup.New(buildLookupConfig(cfg), retriever, completer, opts...)

	gin.SetMode(gin.ReleaseMode)
	handler := NewHandler(HandlerConfig{
		Lookup:          a.lookup,
		Fetcher:         tcgpage.NewFetcher(nil, config.TCGFetch),
		Ready:           a.readiness,
		LookupTimeout:   cfg.Server.LookupTimeout,
		BatchMaxQueries: cfg.Server.BatchMaxQueries,
		BatchParallel:   cfg.Server.BatchParallel,
		Logger:          log,
		Metrics:         m,
	})
	router := NewRouter(handler, RouterConfig{
		Logger:          log,
		Metrics:         m,
		Registry:        registry,
		MetricsUsername: cfg.Server.MetricsUsername,
		MetricsPassword: cfg.Server.MetricsPassword,
		GlobalLimiter:   a.globalLimiter,
		ClientLimiter:   a.clientLimiter,
		Sentry:          sentry.IsEnabled(),
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return a, nil
}

// initRetrieval builds the evidence retriever for the configured mode. Local
// mode opens the corpus store, loads the BM25 index from it and ingests the
// configured export.
func (a *Application) initRetrieval(ctx context.Context) (rag.Retriever, error) {
	if a.cfg.Retrieval.Mode != config.RetrievalLocal {
		a.logger.Info("Retrieval backend: CreateAI search")
		return rag.NewDeduplicated(rag.NewCreateAIRetriever(a.createai, a.metrics), a.metrics, rag.BackendCreateAI), nil
	}

	db, err := storage.New(ctx, a.cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("corpus store: %w", err)
	}
	a.db = db
	a.logger.WithField("path", a.cfg.SQLitePath()).Info("Corpus store opened")

	a.bm25 = rag.NewBM25Index(a.logger, a.metrics, a.cfg.Retrieval.BM25TopN)
	loaderOpts := []corpus.Option{
		corpus.WithRecordsPerChunk(a.cfg.Corpus.RecordsPerChunk),
		corpus.WithLogger(a.logger),
		corpus.WithMetrics(a.metrics),
	}
	if a.cfg.R2.Enabled() {
		r2, err := r2client.New(ctx, buildR2Config(a.cfg))
		if err != nil {
			return nil, fmt.Errorf("r2: %w", err)
		}
		loaderOpts = append(loaderOpts, corpus.WithObjectStore(r2))
	}
	a.loader = corpus.NewLoader(db, a.bm25, loaderOpts...)

	ingestCtx, cancel := context.WithTimeout(ctx, config.CorpusIngest)
	defer cancel()

	if n, err := a.loader.Rebuild(ingestCtx); err != nil {
		a.logger.WithError(err).Warn("BM25 index rebuild from store failed")
	} else {
		a.logger.WithField("chunks", n).Info("BM25 index loaded from store")
	}
	if a.cfg.Corpus.File != "" {
		if _, err := a.loader.IngestFile(ingestCtx, a.cfg.Corpus.File); err != nil {
			a.logger.WithError(err).WithField("file", a.cfg.Corpus.File).Warn("Catalog export ingest failed")
		}
	}
	if a.cfg.Corpus.ObjectKey != "" {
		a.poller = corpus.NewPoller(a.loader, a.cfg.Corpus.ObjectKey, a.cfg.Corpus.PollInterval)
		a.poller.PollOnce(ingestCtx)
	}

	a.logger.Info("Retrieval backend: local BM25")
	return rag.NewDeduplicated(a.bm25, a.metrics, rag.BackendBM25), nil
}

// readiness reports whether lookups can be answered.
func (a *Application) readiness(ctx context.Context) (map[string]any, error) {
	details := map[string]any{
		"retrieval":          a.cfg.Retrieval.Mode,
		"fallback_providers": a.completer.Len(),
	}

	if a.cfg.Retrieval.Mode != config.RetrievalLocal {
		return details, a.createai.CheckCredentials()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.db.Ping(pingCtx); err != nil {
		return details, fmt.Errorf("corpus store unavailable: %w", err)
	}
	details["chunks"] = a.bm25.Count()
	if !a.bm25.IsEnabled() {
		return details, errors.New("corpus is empty")
	}
	return details, nil
}

// Run serves HTTP and background jobs until SIGINT or SIGTERM, then shuts
// down: background jobs stop first so none of them touches a closed store.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	errCh := a.startHTTPServer()

	select {
	case sig := <-a.waitForShutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-errCh:
		a.logger.WithError(err).Error("HTTP server error")
	}

	cancel()
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Background jobs stopped")

	return a.shutdown()
}

func (a *Application) startBackgroundJobs(ctx context.Context) {
	if a.poller != nil {
		a.wg.Go(func() {
			a.poller.Start(ctx)
			<-ctx.Done()
			a.poller.Stop()
		})
	}
}

func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Server.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown stops accepting requests, waits for in-flight lookups and closes
// resources.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	var serverErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
		serverErr = err
	}

	a.closeResources()
	sentry.Flush(2 * time.Second)

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		serverErr = errors.Join(serverErr, fmt.Errorf("logger shutdown: %w", err))
	}
	return serverErr
}

// Lookup runs one lookup without the HTTP server.
func (a *Application) Lookup(ctx context.Context, q catalog.Query) *lookup.Result {
	return a.lookup.Lookup(ctx, q)
}

// Close releases resources of an application that never ran.
func (a *Application) Close(ctx context.Context) error {
	a.closeResources()
	return a.logger.Shutdown(ctx)
}

func (a *Application) closeResources() {
	if a.completer != nil {
		if err := a.completer.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "completer").Error("Component close error")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "database").Error("Component close error")
		}
	}
	if a.clientLimiter != nil {
		a.clientLimiter.Stop()
	}
	if a.llmLimiter != nil {
		a.llmLimiter.Stop()
	}
}
