package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopCollectorHooks{}
	c.OnCollectStart(ctx, "tag", 1)
	c.OnCollectComplete(ctx, "tag", 1, 42, time.Second, nil)

	ch := NoopCacheHooks{}
	ch.OnCacheHit(ctx, "file")
	ch.OnCacheMiss(ctx, "redis")
	ch.OnCacheSet(ctx, "file", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "repo.example", "/api/tags")
	h.OnResponse(ctx, "GET", "repo.example", "/api/tags", 200, time.Second)
	h.OnError(ctx, "GET", "repo.example", "/api/tags", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Collector().(NoopCollectorHooks); !ok {
		t.Error("Collector() should return NoopCollectorHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customCollector := &testCollectorHooks{}
	SetCollectorHooks(customCollector)
	if Collector() != customCollector {
		t.Error("SetCollectorHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Collector().(NoopCollectorHooks); !ok {
		t.Error("Reset() should restore NoopCollectorHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testCollectorHooks{}
	SetCollectorHooks(custom)

	SetCollectorHooks(nil)

	if Collector() != custom {
		t.Error("SetCollectorHooks(nil) should be ignored")
	}

	Reset()
}

type testCollectorHooks struct{ NoopCollectorHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
