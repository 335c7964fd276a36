// internal/ledger/ledger_test.go
package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestObserveOnce(t *testing.T) {
	l := New()
	key := Key{Name: "vol1.cbz", Path: "page1.jpg"}

	if !l.Observe(key) {
		t.Error("First observation should report first")
	}
	if l.Observe(key) {
		t.Error("Second observation should not report first")
	}
	if l.Len() != 1 {
		t.Errorf("Expected 1 key, got %d", l.Len())
	}

	stats := l.Stats()
	if stats.Observed != 2 {
		t.Errorf("Expected 2 observations, got %d", stats.Observed)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Expected 1 duplicate, got %d", stats.Duplicates)
	}
	if stats.DuplicateRatio() != 50 {
		t.Errorf("Expected 50%% duplicates, got %.1f", stats.DuplicateRatio())
	}
}

func TestKeysAreDistinct(t *testing.T) {
	l := New()
	keys := []Key{
		{Name: "a.cbz", Path: "1.jpg"},
		{Name: "b.cbz", Path: "1.jpg"},
		{Name: "a.cbz", Path: "2.jpg"},
		{Name: "ab", Path: "c"},
		{Name: "a", Path: "bc"},
	}
	for _, k := range keys {
		if !l.Observe(k) {
			t.Errorf("Key %+v should be new", k)
		}
	}
	if l.Len() != len(keys) {
		t.Errorf("Expected %d keys, got %d", len(keys), l.Len())
	}
}

func TestConcurrentObserveSingleWinner(t *testing.T) {
	l := New()
	key := Key{Name: "race.cbz", Path: "page.png"}

	const workers = 64
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if l.Observe(key) {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if winners.Load() != 1 {
		t.Fatalf("Expected exactly 1 first observer, got %d", winners.Load())
	}
	if got := l.Stats().Duplicates; got != workers-1 {
		t.Errorf("Expected %d duplicates, got %d", workers-1, got)
	}
}

func TestConcurrentObserveManyKeys(t *testing.T) {
	l := New()
	const keys = 200
	const workers = 8

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < keys; i++ {
				if l.Observe(Key{Name: "vol.cbz", Path: fmt.Sprintf("p%03d.jpg", i)}) {
					firsts.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if firsts.Load() != keys {
		t.Errorf("Expected %d first observations, got %d", keys, firsts.Load())
	}
	if l.Len() != keys {
		t.Errorf("Expected %d keys, got %d", keys, l.Len())
	}
}

func TestSeenAndReset(t *testing.T) {
	l := New()
	key := Key{Name: "x.cbz", Path: "y.jpg"}

	if l.Seen(key) {
		t.Error("Key should not be seen yet")
	}
	l.Observe(key)
	if !l.Seen(key) {
		t.Error("Key should be seen after Observe")
	}
	if l.Stats().Observed != 1 {
		t.Error("Seen must not count as an observation")
	}

	l.Reset()
	if l.Len() != 0 || l.Seen(key) {
		t.Error("Reset should forget all keys")
	}
	if l.Stats().Observed != 0 {
		t.Error("Reset should clear statistics")
	}
	if !l.Observe(key) {
		t.Error("Key should be new again after Reset")
	}
}
