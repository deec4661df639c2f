package procedure

import (
	"sync"
	"testing"
)

func TestRegistry_SamePathRejected(t *testing.T) {
	r := NewRegistry()

	release, ok := r.TryAcquire("/work/a.tosca")
	if !ok {
		t.Fatal("first acquire should succeed")
	}
	if _, ok := r.TryAcquire("/work/a.tosca"); ok {
		t.Fatal("second acquire of the same path should fail")
	}

	release()
	if r.Active("/work/a.tosca") {
		t.Error("path should be released")
	}
	if _, ok := r.TryAcquire("/work/a.tosca"); !ok {
		t.Error("released path should be available again")
	}
}

func TestRegistry_DistinctPathsAdmitted(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.TryAcquire("/work/a.tosca"); !ok {
		t.Fatal("acquire a")
	}
	if _, ok := r.TryAcquire("/work/b.tosca"); !ok {
		t.Fatal("acquire b")
	}

	got := r.Paths()
	if len(got) != 2 || got[0] != "/work/a.tosca" || got[1] != "/work/b.tosca" {
		t.Errorf("Paths() = %v", got)
	}
}

func TestRegistry_ReleaseIsIdempotent(t *testing.T) {
	r := NewRegistry()

	release, _ := r.TryAcquire("/work/a.tosca")
	release()
	other, ok := r.TryAcquire("/work/a.tosca")
	if !ok {
		t.Fatal("reacquire failed")
	}

	// A stale release must not drop the new holder's entry.
	release()
	if !r.Active("/work/a.tosca") {
		t.Error("stale release removed the active entry")
	}
	other()
}

func TestRegistry_ConcurrentAcquire(t *testing.T) {
	r := NewRegistry()

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.TryAcquire("/work/shared.tosca"); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want 1", winners)
	}
}
