package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/garyellow/triangulator-go/internal/errors"
	"github.com/garyellow/triangulator-go/internal/metrics"
)

// FallbackCompleter walks an ordered chain of completers.
// It implements three-layer fallback:
// 1. Model retry with backoff (same completer)
// 2. Next completer in the chain (next model, then next provider)
// 3. Error wrapping ErrFallbackFailed once the chain is exhausted
type FallbackCompleter struct {
	chain       []Completer
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackCompleter creates a chain over the given completers.
// Nil completers are skipped; m may be nil.
func NewFallbackCompleter(cfg RetryConfig, m *metrics.Metrics, completers ...Completer) *FallbackCompleter {
	chain := make([]Completer, 0, len(completers))
	for _, c := range completers {
		if c != nil {
			chain = append(chain, c)
		}
	}
	return &FallbackCompleter{
		chain:       chain,
		retryConfig: cfg.normalized(),
		metrics:     m,
	}
}

// Complete tries each completer in order until one succeeds.
func (f *FallbackCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	if f == nil || len(f.chain) == 0 {
		return nil, domerrors.ErrFallbackUnavailable
	}

	start := time.Now()
	var errs []error

	for i, c := range f.chain {
		if i > 0 {
			prev := f.chain[i-1].Provider()
			slog.InfoContext(ctx, "falling back to next completer",
				"from", prev,
				"to", c.Provider())
			f.metrics.RecordLLMFailover(string(prev), string(c.Provider()))
		}

		result, err := f.completeWithRetry(ctx, c, req)
		if err == nil {
			slog.DebugContext(ctx, "fallback completion succeeded",
				"provider", result.Provider,
				"model", result.Model,
				"chain_position", i,
				"duration_ms", time.Since(start).Milliseconds())
			return result, nil
		}

		errs = append(errs, err)
		action := ClassifyError(err)
		slog.WarnContext(ctx, "completer failed",
			"provider", c.Provider(),
			"error", err,
			"action", action)

		if action == ActionFail {
			break
		}
	}

	return nil, fmt.Errorf("%w: %w", domerrors.ErrFallbackFailed, errors.Join(errs...))
}

// completeWithRetry attempts one completer with retry logic.
func (f *FallbackCompleter) completeWithRetry(ctx context.Context, c Completer, req Request) (*Completion, error) {
	var lastErr error

	for attempt := range f.retryConfig.MaxAttempts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		start := time.Now()
		result, err := c.Complete(ctx, req)
		f.metrics.RecordLLM(string(c.Provider()), classifyErrorType(err), time.Since(start).Seconds())
		if err == nil {
			return result, nil
		}

		lastErr = err
		if ClassifyError(err) != ActionRetry {
			return nil, err
		}

		// Last attempt, don't sleep
		if attempt == f.retryConfig.MaxAttempts-1 {
			break
		}

		backoff := f.retryConfig.Backoff(attempt + 1)
		if !fitsDeadline(ctx, backoff) {
			return nil, fmt.Errorf("timeout during retry: %w", lastErr)
		}

		slog.DebugContext(ctx, "retrying fallback completion",
			"provider", c.Provider(),
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)

		if err := wait(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// Len returns the number of completers in the chain.
func (f *FallbackCompleter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.chain)
}

// Provider returns the first provider in the chain.
func (f *FallbackCompleter) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Close closes every completer in the chain.
func (f *FallbackCompleter) Close() error {
	if f == nil {
		return nil
	}

	var errs []error
	for _, c := range f.chain {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
