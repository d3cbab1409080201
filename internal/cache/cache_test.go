package cache

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	c, err := New[string, int](100)
	if err != nil {
		t.Fatal(err)
	}
	if c.Capacity() != 100 {
		t.Errorf("expected capacity 100, got %d", c.Capacity())
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}

	for _, n := range []int{0, -3} {
		if _, err := New[string, int](n); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("New(%d) error = %v, want ErrInvalidCapacity", n, err)
		}
	}
}

func TestCacheGetSet(t *testing.T) {
	c, _ := New[string, int](10)
	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok || val != 42 {
		t.Errorf("Get(key1) = %d, %v; want 42, true", val, ok)
	}
	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}

	c.Set("key1", 7)
	if val, _ := c.Get("key1"); val != 7 {
		t.Errorf("overwritten value = %d, want 7", val)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after overwrite, want 1", c.Len())
	}
}

func TestCacheExactLRU(t *testing.T) {
	c, _ := New[int, int](3)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Set(3, 3)
	c.Get(1) // 2 is now the oldest
	c.Set(4, 4)

	if _, ok := c.Get(2); ok {
		t.Error("least recently used entry 2 survived eviction")
	}
	for _, k := range []int{1, 3, 4} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %d was evicted", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Evictions)
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c, _ := New[string, int](10)
	calls := 0
	create := func() (int, error) {
		calls++
		return 100, nil
	}

	v, hit, err := c.GetOrCreate("key1", create)
	if err != nil || hit || v != 100 {
		t.Errorf("first GetOrCreate = %d, hit=%v, err=%v", v, hit, err)
	}
	v, hit, err = c.GetOrCreate("key1", create)
	if err != nil || !hit || v != 100 {
		t.Errorf("second GetOrCreate = %d, hit=%v, err=%v", v, hit, err)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestCacheGetOrCreateError(t *testing.T) {
	c, _ := New[string, int](10)
	boom := errors.New("boom")

	if _, _, err := c.GetOrCreate("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Error("failed creation was cached")
	}
	v, hit, err := c.GetOrCreate("k", func() (int, error) { return 5, nil })
	if err != nil || hit || v != 5 {
		t.Errorf("retry = %d, hit=%v, err=%v", v, hit, err)
	}
}

func TestCacheResize(t *testing.T) {
	c, _ := New[int, int](5)
	for i := range 5 {
		c.Set(i, i)
	}
	if err := c.Resize(2); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 || c.Capacity() != 2 {
		t.Errorf("after Resize(2): Len=%d Capacity=%d", c.Len(), c.Capacity())
	}
	for _, k := range []int{3, 4} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("most recent entry %d was evicted", k)
		}
	}
	if err := c.Resize(0); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("Resize(0) error = %v", err)
	}
	if c.Capacity() != 2 {
		t.Error("failed Resize changed the capacity")
	}
}

func TestCacheDeleteClear(t *testing.T) {
	c, _ := New[string, int](4)
	c.Set("a", 1)
	c.Set("b", 2)

	if !c.Delete("a") || c.Delete("a") {
		t.Error("Delete reported wrong presence")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear", c.Len())
	}
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache unusable after Clear")
	}
}

func TestCacheStats(t *testing.T) {
	c, _ := New[string, int](4)
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Hits=%d Misses=%d, want 2, 1", s.Hits, s.Misses)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("HitRate = %v", s.HitRate)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c, _ := New[string, int](16)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := strconv.Itoa((g + i) % 32)
				v, _, err := c.GetOrCreate(key, func() (int, error) { return (g + i) % 32, nil })
				if err != nil || strconv.Itoa(v) != key {
					t.Errorf("GetOrCreate(%s) = %d, %v", key, v, err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
