package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/leadscout"
)

func TestInMemoryCache_SetAndGet(t *testing.T) {
	c := NewInMemoryCache(1*time.Second, zerolog.Nop())
	ctx := context.Background()

	if err := c.Set(ctx, "selection:abc", "search_engine"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(ctx, "selection:abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "search_engine" {
		t.Errorf("got %v", got)
	}
}

func TestInMemoryCache_Expiration(t *testing.T) {
	c := NewInMemoryCache(50*time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); err == nil {
		t.Error("expected an error for an expired item")
	}
}

func TestInMemoryCache_Miss(t *testing.T) {
	c := NewInMemoryCache(time.Second, zerolog.Nop())
	if _, err := c.Get(context.Background(), "never-set"); err == nil {
		t.Error("expected an error for a missing key")
	}
}

func TestInMemoryCache_CancelledContext(t *testing.T) {
	c := NewInMemoryCache(time.Second, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Set(ctx, "k", "v"); err == nil {
		t.Error("Set should fail on a cancelled context")
	}
	if _, err := c.Get(ctx, "k"); err == nil {
		t.Error("Get should fail on a cancelled context")
	}
}

func TestInMemoryCache_Concurrency(t *testing.T) {
	c := NewInMemoryCache(time.Second, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := "k" + string(rune('a'+n%5))
			_ = c.Set(ctx, key, n)
			_, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()
}

func TestSelectionFileCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selections.json")
	ctx := context.Background()
	inv := leadscout.ToolInvocation{
		Tool:      "search_engine",
		Arguments: map[string]any{"query": "acme news"},
	}

	first := NewSelectionFileCache(time.Hour, path, zerolog.Nop())
	if err := first.Set(ctx, "selection:abc", inv); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh instance must see the persisted selection.
	second := NewSelectionFileCache(time.Hour, path, zerolog.Nop())
	got, err := second.Get(ctx, "selection:abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	loaded, ok := got.(leadscout.ToolInvocation)
	if !ok {
		t.Fatalf("got %T, want ToolInvocation", got)
	}
	if loaded.Tool != "search_engine" || loaded.Arguments["query"] != "acme news" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSelectionFileCache_RejectsForeignValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selections.json")
	c := NewSelectionFileCache(time.Hour, path, zerolog.Nop())
	if err := c.Set(context.Background(), "k", "not an invocation"); err == nil {
		t.Error("expected a type error")
	}
}

func TestSelectionFileCache_ExpiredEntriesDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selections.json")
	ctx := context.Background()

	expiring := NewSelectionFileCache(10*time.Millisecond, path, zerolog.Nop())
	if err := expiring.Set(ctx, "k", leadscout.ToolInvocation{Tool: "search_engine"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	reloaded := NewSelectionFileCache(time.Hour, path, zerolog.Nop())
	if _, err := reloaded.Get(ctx, "k"); err == nil {
		t.Error("expired entry should not survive a reload")
	}
}

func TestSelectionFileCache_IgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selections.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewSelectionFileCache(time.Hour, path, zerolog.Nop())
	if _, err := c.Get(context.Background(), "anything"); err == nil {
		t.Error("corrupt file must start the cache empty")
	}
}
