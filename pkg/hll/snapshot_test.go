package hll

import (
	"encoding/binary"

	gc "github.com/go-check/check"
	"github.com/pkg/errors"
)

type SnapshotSuite struct{}

func (s *SnapshotSuite) TestRoundTrip(c *gc.C) {
	var spec = ArraySpec{ArraySize: 40, Log2m: 4, RegisterSize: 7, Seed: 0xfeedbeef}

	for _, chunkShift := range []uint{8, ChunkShift} {
		var a, err = newArray(spec, chunkShift)
		c.Assert(err, gc.IsNil)

		for i := int64(0); i != 2000; i++ {
			a.Add(int(i%40), i)
		}
		p, err := a.MarshalBinary()
		c.Assert(err, gc.IsNil)
		c.Check(string(p[:4]), gc.Equals, "HLLA")
		c.Check(p[7], gc.Equals, byte(chunkShift))

		var b CounterArray
		c.Assert(b.UnmarshalBinary(p), gc.IsNil)

		c.Check(b.Spec(), gc.Equals, spec)
		c.Check(b.store.chunkShift, gc.Equals, chunkShift)
		for k := 0; k != 40; k++ {
			c.Check(b.Count(k), gc.Equals, a.Count(k))
		}
		// The decoded array keeps counting identically.
		a.Add(3, -1)
		b.Add(3, -1)
		c.Check(b.Count(3), gc.Equals, a.Count(3))
	}
}

func (s *SnapshotSuite) TestDecodeErrors(c *gc.C) {
	var a, err = NewWithSeed(3, 1000, 6, 1)
	c.Assert(err, gc.IsNil)
	var p, _ = a.MarshalBinary()
	var b CounterArray

	c.Check(b.UnmarshalBinary(p[:10]), gc.ErrorMatches, "not a marshalled counter array")
	c.Check(b.UnmarshalBinary([]byte("HYLL00000000000000000000")), gc.ErrorMatches, "not a marshalled counter array")

	var bad = append([]byte(nil), p...)
	bad[4] = 0x2
	c.Check(b.UnmarshalBinary(bad), gc.ErrorMatches, "unsupported snapshot version 2")

	c.Check(b.UnmarshalBinary(p[:len(p)-8]), gc.ErrorMatches, "snapshot length mismatch: .*")
	c.Check(b.UnmarshalBinary(append(p, 0x0)), gc.ErrorMatches, "snapshot length mismatch: .*")

	bad = append([]byte(nil), p...)
	bad[5] = 40 // Log2m out of range.
	c.Check(errors.Cause(b.UnmarshalBinary(bad)), gc.Equals, ErrConfig)

	bad = append([]byte(nil), p...)
	bad[7] = 2 // Chunk shift smaller than log2m.
	c.Check(b.UnmarshalBinary(bad), gc.ErrorMatches, "decoding snapshot header: chunk shift 2 .*")

	// Huge array sizes are rejected without allocating, whatever the chunk shift.
	bad = append([]byte(nil), p...)
	binary.BigEndian.PutUint64(bad[8:], 1<<30)
	c.Check(b.UnmarshalBinary(bad), gc.ErrorMatches, "snapshot length mismatch: .*")

	binary.BigEndian.PutUint64(bad[8:], 1<<40)
	c.Check(b.UnmarshalBinary(bad), gc.ErrorMatches, "decoding snapshot header: .* exceed the maximum .*")

	bad[5] = 4
	for _, shift := range []byte{4, 8, ChunkShift} {
		bad[7] = shift
		binary.BigEndian.PutUint64(bad[8:], 1<<58)
		c.Check(errors.Cause(b.UnmarshalBinary(bad)), gc.Equals, ErrConfig)

		// Small enough to pass the bound, but not matching the encoded length.
		binary.BigEndian.PutUint64(bad[8:], 1<<28)
		c.Check(b.UnmarshalBinary(bad), gc.ErrorMatches, "snapshot length mismatch: .*")
	}
	bad[7] = byte(ChunkShift)

	binary.BigEndian.PutUint64(bad[8:], 1<<63)
	c.Check(b.UnmarshalBinary(bad), gc.ErrorMatches, "invalid array size .*")

	// Failed decodes leave the receiver untouched.
	c.Check(b.store.chunks, gc.IsNil)
}

var _ = gc.Suite(&SnapshotSuite{})
