package store

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNextTimestampMonotonic(t *testing.T) {
	t.Cleanup(func() {
		atomic.StoreInt64(&lastTimestamp, 0)
	})
	atomic.StoreInt64(&lastTimestamp, 0)

	prev := nextTimestamp()
	for i := 0; i < 1000; i++ {
		next := nextTimestamp()
		if next <= prev {
			t.Fatalf("expected strictly increasing timestamps, got %d after %d", next, prev)
		}
		prev = next
	}
}

func TestNextTimestampAdvancesPastLast(t *testing.T) {
	t.Cleanup(func() {
		atomic.StoreInt64(&lastTimestamp, 0)
	})

	future := time.Now().Add(time.Second).UnixNano()
	atomic.StoreInt64(&lastTimestamp, future)

	if got := nextTimestamp(); got != future+1 {
		t.Fatalf("expected %d, got %d", future+1, got)
	}
}

func TestNextTimestampConcurrentUnique(t *testing.T) {
	t.Cleanup(func() {
		atomic.StoreInt64(&lastTimestamp, 0)
	})

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ts := nextTimestamp()
				mu.Lock()
				if _, dup := seen[ts]; dup {
					mu.Unlock()
					t.Errorf("duplicate timestamp %d", ts)
					return
				}
				seen[ts] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestNewClientIDFormat(t *testing.T) {
	id := newClientID()
	if !strings.HasPrefix(id, "c_") {
		t.Fatalf("expected c_ prefix, got %q", id)
	}
	if _, err := strconv.ParseInt(strings.TrimPrefix(id, "c_"), 36, 64); err != nil {
		t.Fatalf("expected base36 suffix, got %q: %v", id, err)
	}
	if other := newClientID(); other == id {
		t.Fatalf("expected distinct IDs, got %q twice", id)
	}
}
