package hll

import (
	"sync"

	gc "github.com/go-check/check"
)

type SyncSuite struct{}

func (s *SyncSuite) TestGroupsAreWordDisjoint(c *gc.C) {
	for _, tc := range []struct {
		log2m, registerSize int
		group               int
	}{
		{4, 5, 4},  // 80 bit counters.
		{4, 6, 2},  // 96 bit counters.
		{6, 5, 1},  // 320 bit counters.
		{4, 7, 4},  // 112 bit counters.
		{10, 7, 1}, // Many words per counter.
	} {
		var a, err = NewFromSpec(ArraySpec{ArraySize: 8, Log2m: tc.log2m, RegisterSize: tc.registerSize})
		c.Assert(err, gc.IsNil)

		var sa = NewSyncArray(a, 4)
		c.Check(sa.group, gc.Equals, tc.group)
		// Every group ends on a word boundary.
		c.Check(sa.group*a.counterSize%64, gc.Equals, 0)
	}
}

func (s *SyncSuite) TestConcurrentAddsMatchSequential(c *gc.C) {
	const counters, workers, perWorker = 37, 8, 5000

	var seq, err = NewWithSeed(counters, 1<<20, 4, 17)
	c.Assert(err, gc.IsNil)
	conc, err := NewWithSeed(counters, 1<<20, 4, 17)
	c.Assert(err, gc.IsNil)

	var sa = NewSyncArray(conc, 5)
	var wg sync.WaitGroup

	for w := 0; w != workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i != perWorker; i++ {
				var v = int64(w*perWorker + i)
				sa.Add(int(v%counters), v)
			}
		}(w)
	}
	for v := int64(0); v != workers*perWorker; v++ {
		seq.Add(int(v%counters), v)
	}
	wg.Wait()

	for k := 0; k != counters; k++ {
		c.Check(sa.Count(k), gc.Equals, seq.Count(k))
	}

	sa.Update(func(a *CounterArray) {
		var p1, _ = a.MarshalBinary()
		var p2, _ = seq.MarshalBinary()
		c.Check(p1, gc.DeepEquals, p2)
	})
	c.Check(sa.Spec(), gc.Equals, seq.Spec())

	sa.ClearSeed(18)
	c.Check(sa.Spec().Seed, gc.Equals, uint64(18))
	c.Check(sa.Count(0), gc.Equals, 0.0)

	sa.Add(0, 1)
	sa.Clear()
	c.Check(sa.Count(0), gc.Equals, 0.0)
}

var _ = gc.Suite(&SyncSuite{})
