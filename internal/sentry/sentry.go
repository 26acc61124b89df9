// Package sentry reports unexpected failures to a Sentry-compatible backend
// (Better Stack errors). Reporting is disabled until Initialize succeeds with
// a token.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/triangulator-go/internal/ctxutil"
	domerrors "github.com/garyellow/triangulator-go/internal/errors"
)

// Config holds Sentry settings.
type Config struct {
	// Token is the Better Stack errors application token. Empty disables reporting.
	Token string
	// Host is the ingesting host, e.g. "errors.betterstack.com".
	Host        string
	Environment string
	Release     string
	// SampleRate defaults to 1.0.
	SampleRate float64
}

// DSN builds https://$TOKEN@$HOST/1. The project ID is ignored by Better Stack.
func (c Config) DSN() string {
	return fmt.Sprintf("https://%s@%s/1", c.Token, c.Host)
}

// Initialize configures the global hub. An empty token leaves reporting off.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return errors.New("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN(),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		AttachStacktrace: true,
	})
}

// Flush waits up to timeout for queued events. It reports true when
// reporting is disabled.
func Flush(timeout time.Duration) bool {
	if !IsEnabled() {
		return true
	}
	return sentry.Flush(timeout)
}

// IsEnabled reports whether the global hub has a client.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// ShouldReport filters out failures caused by the caller rather than the
// service: bad input, throttling and canceled requests.
func ShouldReport(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, domerrors.ErrInvalidInput),
		errors.Is(err, domerrors.ErrRateLimitExceeded),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// CaptureError reports err on the request's hub, tagged with the tracing IDs
// in ctx. It returns false when err was filtered.
func CaptureError(ctx context.Context, err error, tags map[string]string) bool {
	if !ShouldReport(err) {
		return false
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if id, ok := ctxutil.GetRequestID(ctx); ok {
			scope.SetTag("request_id", id)
		}
		if id := ctxutil.GetLookupID(ctx); id != "" {
			scope.SetTag("lookup_id", id)
		}
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
	return true
}
