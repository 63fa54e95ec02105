package state_test

import (
	"sync"
	"testing"

	"docshelf/internal/platform/state"
)

type snapshot struct {
	loading bool
	items   map[string]int
}

func TestSubscribeIsPrimedWithCurrentValue(t *testing.T) {
	t.Parallel()
	store := state.New(snapshot{items: map[string]int{}})
	ch, cancel := store.Subscribe()
	defer cancel()

	got := <-ch
	if got.loading || len(got.items) != 0 {
		t.Fatalf("unexpected initial snapshot %+v", got)
	}
}

func TestSubscribersSeeLatestSnapshotOnly(t *testing.T) {
	t.Parallel()
	store := state.New(0)
	ch, cancel := store.Subscribe()
	defer cancel()

	for i := 1; i <= 5; i++ {
		store.Update(func(int) int { return i })
	}
	if got := <-ch; got != 5 {
		t.Fatalf("expected conflated latest value 5, got %d", got)
	}
	if store.Version() != 5 {
		t.Fatalf("expected version 5, got %d", store.Version())
	}
}

func TestUpdateReplacesWholeSnapshot(t *testing.T) {
	t.Parallel()
	before := snapshot{items: map[string]int{"a": 1}}
	store := state.New(before)
	store.Update(func(s snapshot) snapshot {
		next := map[string]int{"b": 2}
		return snapshot{loading: s.loading, items: next}
	})
	if _, ok := before.items["b"]; ok {
		t.Fatalf("previous snapshot must not be mutated")
	}
	if got := store.Get(); got.items["b"] != 2 || len(got.items) != 1 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestCloseStopsPublishing(t *testing.T) {
	t.Parallel()
	store := state.New(1)
	ch, cancel := store.Subscribe()
	<-ch
	store.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("subscription should be closed")
	}
	if _, ok := store.Update(func(int) int { return 2 }); ok {
		t.Fatalf("update after close should report false")
	}
	if store.Get() != 1 {
		t.Fatalf("closed store must keep its last value")
	}
	cancel()

	late, _ := store.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscribing to a closed store yields a closed channel")
	}
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	t.Parallel()
	store := state.New(0)
	ch, cancel := store.Subscribe()

	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		last := -1
		for v := range ch {
			if v < last {
				t.Errorf("snapshots went backwards: %d after %d", v, last)
			}
			last = v
		}
	}()

	var writers sync.WaitGroup
	for i := 0; i < 8; i++ {
		writers.Add(1)
		go func() {
			defer writers.Done()
			for j := 0; j < 100; j++ {
				store.Update(func(v int) int { return v + 1 })
			}
		}()
	}
	writers.Wait()
	cancel()
	readers.Wait()
	if store.Get() != 800 {
		t.Fatalf("expected 800 updates, got %d", store.Get())
	}
}
