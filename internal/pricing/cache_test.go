package pricing

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestCache_MemoizesPerTokenAndSlot(t *testing.T) {
	var calls atomic.Int64
	source := SourceFunc(func(token string, slot uint64) (float64, bool) {
		calls.Add(1)
		return 2.0, true
	})

	c := NewCache(source)
	for i := 0; i < 5; i++ {
		if price, ok := c.Price("mint", 100); !ok || price != 2.0 {
			t.Fatalf("Price = (%f, %v), want (2.0, true)", price, ok)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("Source consulted %d times, want 1", calls.Load())
	}

	c.Price("mint", 101)
	if calls.Load() != 2 {
		t.Errorf("A new slot must hit the source, calls = %d", calls.Load())
	}
}

func TestCache_CachesUnavailableAnswers(t *testing.T) {
	var calls atomic.Int64
	source := SourceFunc(func(token string, slot uint64) (float64, bool) {
		calls.Add(1)
		return 0, false
	})

	c := NewCache(source)
	for i := 0; i < 3; i++ {
		if _, ok := c.Price("unpriced", 100); ok {
			t.Fatal("Price should be unavailable")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("Unavailable answer not cached, calls = %d", calls.Load())
	}
}

func TestCache_ConcurrentReads(t *testing.T) {
	source := SourceFunc(func(token string, slot uint64) (float64, bool) {
		return float64(slot), true
	})
	c := NewCache(source)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for slot := uint64(0); slot < 100; slot++ {
				price, ok := c.Price("mint", slot)
				if !ok || price != float64(slot) {
					t.Errorf("Price = (%f, %v) at slot %d", price, ok, slot)
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() != 100 {
		t.Errorf("Cache holds %d entries, want 100", c.Len())
	}
}

func TestStaticSource(t *testing.T) {
	s := NewStaticSource(map[string]float64{"mint": 3.5})

	if price, ok := s.Price("mint", 1); !ok || price != 3.5 {
		t.Errorf("Price = (%f, %v), want (3.5, true)", price, ok)
	}
	// Slot-independent
	if price, ok := s.Price("mint", 99999); !ok || price != 3.5 {
		t.Errorf("Price = (%f, %v) at other slot", price, ok)
	}
	if _, ok := s.Price("other", 1); ok {
		t.Error("Unlisted token must be unavailable")
	}
}
