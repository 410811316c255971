package hll

import (
	"math"

	gc "github.com/go-check/check"
	"github.com/pkg/errors"
)

type StoreSuite struct{}

func (s *StoreSuite) TestAddressingCases(c *gc.C) {
	var l = newLayout(4, 5, ChunkShift)

	var cases = []struct {
		k, j        int
		chunk       int
		offset, pos uint64
	}{
		{k: 0, j: 0, chunk: 0, offset: 0, pos: 0},
		{k: 3, j: 0, chunk: 0, offset: 3 * 16 * 5, pos: 3 * 16 * 5},
		{k: 3, j: 15, chunk: 0, offset: 3 * 16 * 5, pos: (3*16 + 15) * 5},
		{k: 1<<26 - 1, j: 15, chunk: 0, offset: (1<<30 - 16) * 5, pos: (1<<30 - 1) * 5},
		// First counter of the second chunk restarts at bit zero.
		{k: 1 << 26, j: 0, chunk: 1, offset: 0, pos: 0},
		{k: 1<<26 + 2, j: 7, chunk: 1, offset: 2 * 16 * 5, pos: (2*16 + 7) * 5},
		{k: 5<<26 + 1, j: 1, chunk: 5, offset: 16 * 5, pos: 17 * 5},
	}
	for _, tc := range cases {
		c.Check(l.chunk(tc.k), gc.Equals, tc.chunk)
		c.Check(l.offset(tc.k), gc.Equals, tc.offset)
		c.Check(l.position(tc.k, tc.j), gc.Equals, tc.pos)
	}

	// Counters spanning an entire chunk.
	l = newLayout(30, 7, ChunkShift)
	c.Check(l.chunk(12345), gc.Equals, 12345)
	c.Check(l.offset(12345), gc.Equals, uint64(0))
	c.Check(l.position(12345, 1<<30-1), gc.Equals, uint64(1<<30-1)*7)

	// Counter indices well beyond 32 bits.
	l = newLayout(10, 6, ChunkShift)
	c.Check(l.chunk(1<<40+3), gc.Equals, 1<<20)
	c.Check(l.offset(1<<40+3), gc.Equals, uint64(3<<10)*6)
}

func (s *StoreSuite) TestBitFieldsStraddleWords(c *gc.C) {
	var words = []uint64{math.MaxUint64, math.MaxUint64}
	const width, mask = 7, 1<<7 - 1

	// Field [60, 67) straddles both words.
	setBits(words, 60, width, mask, 0x5a)
	c.Check(getBits(words, 60, width, mask), gc.Equals, uint64(0x5a))

	// Neighboring fields are untouched.
	c.Check(getBits(words, 53, width, mask), gc.Equals, uint64(mask))
	c.Check(getBits(words, 67, width, mask), gc.Equals, uint64(mask))

	setBits(words, 60, width, mask, 0)
	c.Check(getBits(words, 60, width, mask), gc.Equals, uint64(0))
	c.Check(words[0], gc.Equals, uint64(1<<60-1))
	c.Check(words[1], gc.Equals, ^uint64(7))

	// A field ending exactly at a word boundary.
	setBits(words, 57, width, mask, 0x7f)
	c.Check(words[0], gc.Equals, uint64(math.MaxUint64))
	c.Check(getBits(words, 57, width, mask), gc.Equals, uint64(0x7f))
}

func (s *StoreSuite) TestSetMaxIsMonotonic(c *gc.C) {
	var st, err = newRegisterStore(3, newLayout(4, 6, ChunkShift))
	c.Assert(err, gc.IsNil)

	c.Check(st.setMax(1, 9, 12), gc.Equals, uint64(0))
	c.Check(st.setMax(1, 9, 7), gc.Equals, uint64(12))
	c.Check(st.get(1, 9), gc.Equals, uint64(12))
	c.Check(st.setMax(1, 9, 40), gc.Equals, uint64(12))
	c.Check(st.get(1, 9), gc.Equals, uint64(40))

	// Other registers and counters are unaffected.
	c.Check(st.get(1, 8), gc.Equals, uint64(0))
	c.Check(st.get(1, 10), gc.Equals, uint64(0))
	c.Check(st.get(0, 9), gc.Equals, uint64(0))
	c.Check(st.get(2, 9), gc.Equals, uint64(0))

	st.clear()
	c.Check(st.get(1, 9), gc.Equals, uint64(0))
}

func (s *StoreSuite) TestSumMatchesRegisterReads(c *gc.C) {
	// Use a width which doesn't evenly divide 64, so that counters and
	// registers regularly straddle words.
	var st, err = newRegisterStore(5, newLayout(4, 7, ChunkShift))
	c.Assert(err, gc.IsNil)

	for k := 0; k != 5; k++ {
		for j := 0; j != 16; j++ {
			st.setMax(k, j, uint64((k*16+j)%9))
		}
	}
	for k := 0; k != 5; k++ {
		var expectZ float64
		var expectZeroes int

		for j := 0; j != 16; j++ {
			var r = st.get(k, j)
			c.Check(r, gc.Equals, uint64((k*16+j)%9))

			if r == 0 {
				expectZeroes++
			}
			expectZ += 1 / math.Pow(2, float64(r))
		}
		var z, zeroes = st.sum(k, 16)
		c.Check(z, gc.Equals, expectZ)
		c.Check(zeroes, gc.Equals, expectZeroes)
	}
}

func (s *StoreSuite) TestChunkSizing(c *gc.C) {
	// 40 counters of 16 registers is 640 registers, over chunks of 256.
	var words, err = chunkWords(40, newLayout(4, 5, 8))
	c.Check(err, gc.IsNil)
	c.Check(words, gc.DeepEquals, []int{20, 20, 10})

	// Exactly one full chunk.
	words, err = chunkWords(16, newLayout(4, 5, 8))
	c.Check(err, gc.IsNil)
	c.Check(words, gc.DeepEquals, []int{20})

	// Partial words are rounded up.
	words, err = chunkWords(1, newLayout(4, 7, ChunkShift))
	c.Check(err, gc.IsNil)
	c.Check(words, gc.DeepEquals, []int{2})

	_, err = chunkWords(0, newLayout(4, 5, ChunkShift))
	c.Check(err, gc.ErrorMatches, "array size 0 is not positive: invalid configuration")

	_, err = chunkWords(math.MaxInt, newLayout(4, 5, ChunkShift))
	c.Check(err, gc.ErrorMatches, ".* overflow the addressable register space: invalid configuration")

	// Sizing is arithmetic, and agrees with the per-chunk words.
	total, err := storeWords(40, newLayout(4, 5, 8))
	c.Check(err, gc.IsNil)
	c.Check(total, gc.Equals, uint64(50))

	// Stores beyond MaxStoreBits are rejected, however small their chunks.
	for _, shift := range []uint{4, 8, ChunkShift} {
		_, err = storeWords(1<<58, newLayout(4, 5, shift))
		c.Check(err, gc.ErrorMatches, ".* exceed the maximum of 1099511627776 bits: invalid configuration")
	}
	total, err = storeWords(1<<30, newLayout(4, 5, ChunkShift))
	c.Check(err, gc.IsNil)
	c.Check(total, gc.Equals, uint64(5<<28))
}

func (s *StoreSuite) TestOversizedArraysAreConfigErrors(c *gc.C) {
	var _, err = NewWithSeed(1<<30, 1000, 30, 0)
	c.Check(errors.Cause(err), gc.Equals, ErrConfig)
	c.Check(err, gc.ErrorMatches, "1152921504606846976 registers of 5 bits exceed .*")

	_, err = NewWithSeed(1<<24, 1<<40, 14, 0)
	c.Check(errors.Cause(err), gc.Equals, ErrConfig)
}

func (s *StoreSuite) TestMultipleChunks(c *gc.C) {
	var spec = ArraySpec{ArraySize: 40, Log2m: 4, RegisterSize: 5, Seed: 1234}

	var small, err = newArray(spec, 8)
	c.Assert(err, gc.IsNil)
	c.Check(small.store.chunks, gc.HasLen, 3)

	big, err := NewFromSpec(spec)
	c.Assert(err, gc.IsNil)
	c.Check(big.store.chunks, gc.HasLen, 1)

	// Arrays of differing chunk sizes have identical logical registers.
	for i := int64(0); i != 5000; i++ {
		var k = int(i % 40)
		small.Add(k, i)
		big.Add(k, i)
	}
	for k := 0; k != 40; k++ {
		for j := 0; j != 16; j++ {
			c.Check(small.Register(k, j), gc.Equals, big.Register(k, j))
		}
		c.Check(small.Count(k), gc.Equals, big.Count(k))
	}
}

var _ = gc.Suite(&StoreSuite{})
