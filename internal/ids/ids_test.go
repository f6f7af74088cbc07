package ids

import (
	"sort"
	"sync"
	"testing"
)

func TestNewSortsByCreation(t *testing.T) {
	generated := make([]string, 100)
	for i := range generated {
		generated[i] = New()
	}
	if !sort.StringsAreSorted(generated) {
		t.Fatal("ids generated in sequence must sort lexicographically")
	}
	seen := make(map[string]bool, len(generated))
	for _, id := range generated {
		if len(id) != 26 {
			t.Fatalf("id %q is not a ULID", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNewConcurrent(t *testing.T) {
	const workers, perWorker = 8, 200
	var (
		mu  sync.Mutex
		all = make(map[string]bool, workers*perWorker)
		wg  sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, perWorker)
			for i := range local {
				local[i] = New()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if all[id] {
					t.Errorf("duplicate id %q", id)
				}
				all[id] = true
			}
		}()
	}
	wg.Wait()
}
