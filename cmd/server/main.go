// Package main provides the course lookup server entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/garyellow/triangulator-go/internal/app"
	"github.com/garyellow/triangulator-go/internal/buildinfo"
	"github.com/garyellow/triangulator-go/internal/config"
	"github.com/garyellow/triangulator-go/internal/sentry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.Sentry.Token,
		Host:        cfg.Sentry.Host,
		Environment: cfg.Sentry.Environment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.Sentry.SampleRate,
	}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize sentry: %v\n", err)
		os.Exit(1)
	}

	application, err := app.Initialize(context.Background(), cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Server stopped with error: %v\n", err)
		os.Exit(1)
	}
}
