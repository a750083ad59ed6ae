// Package observability provides hooks for metrics, tracing, and logging.
//
// Consumers register hook implementations at startup to receive events about
// source collection, cache operations, and outgoing HTTP requests without
// the library taking a dependency on any particular backend. The default
// implementations are no-ops.
package observability

import (
	"context"
	"sync"
	"time"
)

// CollectorHooks receives events from artifact source collection.
type CollectorHooks interface {
	// OnCollectStart records the start of a source collection run.
	OnCollectStart(ctx context.Context, sourceType string, priority int)

	// OnCollectComplete records a finished collection run with the number of
	// coordinates it produced.
	OnCollectComplete(ctx context.Context, sourceType string, priority, artifacts int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, backend string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, backend string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, backend string, size int)
}

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopCollectorHooks is a no-op implementation of CollectorHooks.
type NoopCollectorHooks struct{}

func (NoopCollectorHooks) OnCollectStart(context.Context, string, int) {}
func (NoopCollectorHooks) OnCollectComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	collectorHooks CollectorHooks = NoopCollectorHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetCollectorHooks registers custom collector hooks.
// This should be called once at application startup before any builds run.
func SetCollectorHooks(h CollectorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		collectorHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Collector returns the registered collector hooks.
func Collector() CollectorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return collectorHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	collectorHooks = NoopCollectorHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
