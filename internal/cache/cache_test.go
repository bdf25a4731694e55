package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"finsight/internal/core"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUEviction(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be present")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted as least recently used")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUTTL(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clock.advance(30 * time.Second)
	c.Set("b", "2b")

	clock.advance(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to expire")
	}
	if v, ok := c.Get("b"); !ok || v != "2b" {
		t.Fatalf("expected refreshed b, got %q %v", v, ok)
	}

	clock.advance(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	c, clock := newTestCache(1, 0)
	c.Set("a", "1")
	clock.advance(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected entry without ttl to survive")
	}
}

func TestLRUPurgeAndDelete(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a deleted")
	}
	if n := c.Purge(); n != 1 {
		t.Fatalf("expected purge of 1, got %d", n)
	}
	c.Set("c", "3")
	if c.Size() != 1 {
		t.Fatalf("cache unusable after purge, size %d", c.Size())
	}
}

func TestChartKey(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	if ChartKey(a, core.ChartMonthlyTrends) == ChartKey(b, core.ChartMonthlyTrends) {
		t.Fatal("keys from different sessions must differ")
	}
	if ChartKey(a, core.ChartMonthlyTrends) == ChartKey(a, core.ChartCumulativeSavings) {
		t.Fatal("keys for different charts must differ")
	}
}

func TestManager(t *testing.T) {
	c, clock := newTestCache(4, time.Second)
	c.Set("a", "1")
	clock.advance(2 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 cleaned, got %d", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
