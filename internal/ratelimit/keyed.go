package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/triangulator-go/internal/metrics"
)

// Limiter names used as the limiter_type metric label.
const (
	NameClient = "client"
	NameLLM    = "llm"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	// Name labels this limiter in metrics.
	Name string

	Burst      float64 // bucket capacity per key
	RefillRate float64 // tokens per second per key

	// DailyLimit caps each key over a rolling 24 hours. Zero disables it.
	DailyLimit int

	// CleanupPeriod is how often idle keys are evicted.
	CleanupPeriod time.Duration

	Metrics *metrics.Metrics
}

// Usage describes one key's remaining allowance.
type Usage struct {
	Available      float64 `json:"available"`
	Burst          float64 `json:"burst"`
	DailyRemaining int     `json:"daily_remaining"`
	DailyLimit     int     `json:"daily_limit"`
}

// KeyedLimiter keeps a token bucket, and optionally a daily counter, per key.
// Keys whose bucket has refilled are evicted by a background loop until Stop.
type KeyedLimiter struct {
	mu      sync.RWMutex
	entries map[string]*keyedEntry
	cfg     KeyedConfig
	stopCh  chan struct{}
	once    sync.Once
}

// keyedEntry.mu makes the check-then-consume across both layers atomic.
type keyedEntry struct {
	mu     sync.Mutex
	bucket *Limiter
	daily  *SlidingWindowCounter
}

// NewKeyedLimiter starts a keyed limiter. Call Stop to end its cleanup loop.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		cfg:     cfg,
		stopCh:  make(chan struct{}),
	}
	go kl.cleanupLoop()
	return kl
}

// Allow admits a request for key when both its bucket and its daily quota
// have room. The empty key is never limited.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	e := kl.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.daily.Check() || !e.bucket.Check() {
		kl.cfg.Metrics.RecordRateLimiterDrop(kl.cfg.Name)
		return false
	}
	e.daily.Consume()
	e.bucket.Consume()
	return true
}

func (kl *KeyedLimiter) entry(key string) *keyedEntry {
	kl.mu.RLock()
	e, ok := kl.entries[key]
	kl.mu.RUnlock()
	if ok {
		return e
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if e, ok = kl.entries[key]; ok {
		return e
	}
	e = &keyedEntry{
		bucket: New(kl.cfg.Burst, kl.cfg.RefillRate),
		daily:  NewSlidingWindowCounter(kl.cfg.DailyLimit, 24*time.Hour),
	}
	kl.entries[key] = e
	return e
}

// Usage reports key's allowance without consuming any of it. DailyRemaining
// is -1 when no daily limit is configured.
func (kl *KeyedLimiter) Usage(key string) Usage {
	u := Usage{Available: kl.cfg.Burst, Burst: kl.cfg.Burst, DailyRemaining: -1, DailyLimit: kl.cfg.DailyLimit}
	if kl.cfg.DailyLimit > 0 {
		u.DailyRemaining = kl.cfg.DailyLimit
	}

	kl.mu.RLock()
	e, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return u
	}
	u.Available = e.bucket.Available()
	if e.daily != nil {
		u.DailyRemaining = e.daily.Remaining()
	}
	return u
}

// ActiveKeys returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveKeys() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.cfg.Metrics.SetRateLimiterKeys(kl.cfg.Name, kl.evictIdle())
		}
	}
}

// evictIdle drops keys whose bucket is full and whose daily window is empty,
// and returns the number of keys left.
func (kl *KeyedLimiter) evictIdle() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	for key, e := range kl.entries {
		if e.bucket.IsFull() && e.daily.Used() == 0 {
			delete(kl.entries, key)
		}
	}
	return len(kl.entries)
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (kl *KeyedLimiter) Stop() {
	kl.once.Do(func() { close(kl.stopCh) })
}
