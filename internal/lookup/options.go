package lookup

import (
	"context"

	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/metrics"
)

// CredentialChecker reports whether a collaborator has what it needs to run.
type CredentialChecker interface {
	CheckCredentials() error
}

// FallbackGate admits or rejects a language-model call for a caller key.
type FallbackGate interface {
	Allow(key string) bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithCredentials makes every lookup verify c before any network call.
func WithCredentials(c CredentialChecker) Option {
	return func(o *Orchestrator) {
		o.credentials = c
	}
}

// WithFallbackGate throttles fallback calls per client. Lookups whose client
// is over its allowance return the deterministic result.
func WithFallbackGate(g FallbackGate) Option {
	return func(o *Orchestrator) {
		o.gate = g
	}
}

// WithErrorReporter registers a hook called with every hard lookup failure.
func WithErrorReporter(fn func(ctx context.Context, err error)) Option {
	return func(o *Orchestrator) {
		o.reportError = fn
	}
}
