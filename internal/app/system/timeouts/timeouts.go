// Package timeouts provides the deadlines used for store I/O.
//
// Handlers and core services wrap each operation in context.WithTimeout with
// one of these values. Background work (side effects, the reminder scan) uses
// its own configured deadlines.
//
// Guidelines:
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries, counts, multi-step mutations
//   - Search: one cross-entity search request (all entity types together)
//   - Scan: scheduled scans over many documents
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultSearch = 8 * time.Second
	DefaultScan   = 2 * time.Minute
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	search = DefaultSearch
	scan   = DefaultScan
)

func get(d *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *d
}

// Ping returns the health-check timeout.
func Ping() time.Duration { return get(&ping) }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return get(&short) }

// Medium returns the timeout for lists, counts, and multi-step mutations.
func Medium() time.Duration { return get(&medium) }

// Search returns the timeout for one search request.
func Search() time.Duration { return get(&search) }

// Scan returns the timeout for scheduled scans.
func Scan() time.Duration { return get(&scan) }

// Config holds timeout overrides. Zero values keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Search time.Duration
	Scan   time.Duration
}

// Configure applies non-zero overrides. Call once during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	for _, o := range []struct {
		dst *time.Duration
		v   time.Duration
	}{
		{&ping, cfg.Ping}, {&short, cfg.Short}, {&medium, cfg.Medium},
		{&search, cfg.Search}, {&scan, cfg.Scan},
	} {
		if o.v > 0 {
			*o.dst = o.v
		}
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium, search, scan = DefaultPing, DefaultShort, DefaultMedium, DefaultSearch, DefaultScan
}

// Current returns the active configuration, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Search: search, Scan: scan}
}

// WithTimeout derives a context with timeout whose cancel func logs a
// warning when the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Scan(), log, "due-soon reminder scan")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
