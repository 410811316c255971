package hll

import (
	"sync"
)

// SyncArray guards a CounterArray for concurrent use. Counters are grouped
// such that no two groups share a packed register word, and each group is
// guarded by one of a fixed set of striped mutexes. Adds and Counts of
// counters in different stripes proceed in parallel; Clear, ClearSeed and
// Update are exclusive over the entire array.
type SyncArray struct {
	arr     *CounterArray
	group   int // Counters per word-disjoint group.
	stripes []sync.Mutex
}

// NewSyncArray returns a SyncArray which guards |arr| with |stripes| mutexes.
// |arr| must not be used directly while the SyncArray is in use.
func NewSyncArray(arr *CounterArray, stripes int) *SyncArray {
	if stripes <= 0 {
		stripes = 1
	}
	return &SyncArray{
		arr:     arr,
		group:   64 / gcd(arr.counterSize, 64),
		stripes: make([]sync.Mutex, stripes),
	}
}

// stripe returns the mutex guarding counter |k|.
func (s *SyncArray) stripe(k int) *sync.Mutex {
	return &s.stripes[(k/s.group)%len(s.stripes)]
}

// Spec returns the ArraySpec of the guarded CounterArray.
func (s *SyncArray) Spec() ArraySpec {
	s.lockAll()
	defer s.unlockAll()

	return s.arr.Spec()
}

// Add the element |v| to counter |k|.
func (s *SyncArray) Add(k int, v int64) {
	var mu = s.stripe(k)
	mu.Lock()
	s.arr.Add(k, v)
	mu.Unlock()
}

// Count returns the estimated cardinality of counter |k|.
func (s *SyncArray) Count(k int) float64 {
	var mu = s.stripe(k)
	mu.Lock()
	defer mu.Unlock()

	return s.arr.Count(k)
}

// Clear zeroes all registers.
func (s *SyncArray) Clear() { s.Update(func(a *CounterArray) { a.Clear() }) }

// ClearSeed zeroes all registers and sets a new hash |seed|.
func (s *SyncArray) ClearSeed(seed uint64) { s.Update(func(a *CounterArray) { a.ClearSeed(seed) }) }

// Update invokes |fn| with exclusive access to the guarded CounterArray.
// |fn| must not retain the CounterArray.
func (s *SyncArray) Update(fn func(*CounterArray)) {
	s.lockAll()
	defer s.unlockAll()

	fn(s.arr)
}

func (s *SyncArray) lockAll() {
	for i := range s.stripes {
		s.stripes[i].Lock()
	}
}

func (s *SyncArray) unlockAll() {
	for i := len(s.stripes) - 1; i >= 0; i-- {
		s.stripes[i].Unlock()
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
