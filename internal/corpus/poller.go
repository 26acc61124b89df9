package corpus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/garyellow/triangulator-go/internal/r2client"
)

// Poller re-ingests an object-storage export whenever its ETag changes.
type Poller struct {
	loader   *Loader
	key      string
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller for key.
func NewPoller(loader *Loader, key string, interval time.Duration) *Poller {
	return &Poller{loader: loader, key: key, interval: interval}
}

// Start launches background polling. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.interval <= 0 {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				p.loader.logger.Info("Corpus polling stopped")
				return
			case <-ticker.C:
				p.PollOnce(pollCtx)
			}
		}
	}()

	p.loader.logger.WithFields(map[string]any{
		"interval": p.interval.String(),
		"key":      p.key,
	}).Info("Corpus polling started")
}

// PollOnce checks the export once and ingests it when it changed.
func (p *Poller) PollOnce(ctx context.Context) {
	stats, err := p.loader.IngestObject(ctx, p.key, false)
	switch {
	case errors.Is(err, r2client.ErrNotFound):
		return
	case err != nil:
		p.loader.logger.WithError(err).Warn("Corpus poll failed")
	case !stats.Skipped:
		p.loader.logger.WithField("etag", stats.ETag).Info("New catalog export loaded")
	}
}

// Stop stops polling and waits for the goroutine to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
