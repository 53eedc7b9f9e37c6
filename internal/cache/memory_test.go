package cache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
)

func testRequest() fizzbuzz.Request {
	return fizzbuzz.Request{Start: 1, Limit: 15, Divisor1: 3, Divisor2: 5, Str1: "Fizz", Str2: "Buzz"}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	ctx := context.Background()
	req := testRequest()
	seq := []string{"1", "2", "Fizz"}

	if _, ok := c.Get(ctx, req); ok {
		t.Fatalf("expected miss before any set")
	}

	c.Set(ctx, req, seq)
	got, ok := c.Get(ctx, req)
	if !ok {
		t.Fatalf("expected hit after set")
	}
	if !reflect.DeepEqual(got, seq) {
		t.Fatalf("got %v, want %v", got, seq)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	ctx := context.Background()
	req := testRequest()
	c.Set(ctx, req, []string{"1"})

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(ctx, req); ok {
		t.Fatalf("expected miss after TTL expiry")
	}
}

func TestMemoryCacheSetReplaces(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	ctx := context.Background()
	req := testRequest()

	c.Set(ctx, req, []string{"old"})
	c.Set(ctx, req, []string{"new"})

	got, ok := c.Get(ctx, req)
	if !ok || got[0] != "new" {
		t.Fatalf("set must replace the existing entry, got %v", got)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	ctx := context.Background()
	req := testRequest()

	c.Set(ctx, req, []string{"1"})
	c.Clear(ctx, req)
	if _, ok := c.Get(ctx, req); ok {
		t.Fatalf("expected miss after clear")
	}
}

func TestMemoryCacheCopiesSequence(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	ctx := context.Background()
	req := testRequest()

	seq := []string{"1", "2"}
	c.Set(ctx, req, seq)
	seq[0] = "mutated"

	got, _ := c.Get(ctx, req)
	if got[0] != "1" {
		t.Fatalf("cached sequence must not alias the caller's slice")
	}
	got[1] = "mutated"

	again, _ := c.Get(ctx, req)
	if again[1] != "2" {
		t.Fatalf("returned sequence must not alias the cached copy")
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key(testRequest())
	b := Key(testRequest())
	if a != b {
		t.Fatalf("cache key must be deterministic")
	}

	other := testRequest()
	other.Limit = 16
	if Key(other) == a {
		t.Fatalf("different requests must not share a key")
	}
}
