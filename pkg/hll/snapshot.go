package hll

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Layout of the snapshot header, 24 bytes total:
// 'H', 'L', 'L', 'A' (magic prefix).
// version      (uint8, currently 0x1).
// log2m        (uint8).
// registerSize (uint8).
// chunkShift   (uint8).
// arraySize    ([8]uint8, big endian).
// seed         ([8]uint8, big endian).
// Chunk words follow in order, each a big endian uint64.
const (
	SnapshotHeaderSize = 24
	snapshotVersion    = 0x1
)

// MarshalBinary encodes the ArraySpec and registers of the CounterArray.
// Derived state (alpha, the sentinel mask) is not encoded.
func (a *CounterArray) MarshalBinary() ([]byte, error) {
	var words int
	for _, c := range a.store.chunks {
		words += len(c)
	}
	var b = make([]byte, SnapshotHeaderSize, SnapshotHeaderSize+8*words)

	copy(b, "HLLA")
	b[4] = snapshotVersion
	b[5] = byte(a.spec.Log2m)
	b[6] = byte(a.spec.RegisterSize)
	b[7] = byte(a.store.chunkShift)
	binary.BigEndian.PutUint64(b[8:], uint64(a.spec.ArraySize))
	binary.BigEndian.PutUint64(b[16:], a.spec.Seed)

	var w [8]byte
	for _, c := range a.store.chunks {
		for _, word := range c {
			binary.BigEndian.PutUint64(w[:], word)
			b = append(b, w[:]...)
		}
	}
	return b, nil
}

// UnmarshalBinary replaces the CounterArray with that encoded by |p|.
func (a *CounterArray) UnmarshalBinary(p []byte) error {
	if len(p) < SnapshotHeaderSize || string(p[:4]) != "HLLA" {
		return errors.New("not a marshalled counter array")
	} else if p[4] != snapshotVersion {
		return errors.Errorf("unsupported snapshot version %d", p[4])
	}

	var arraySize = binary.BigEndian.Uint64(p[8:])
	if int64(arraySize) <= 0 || arraySize != uint64(int(arraySize)) {
		return errors.Errorf("invalid array size %d", arraySize)
	}
	var spec = ArraySpec{
		ArraySize:    int(arraySize),
		Log2m:        int(p[5]),
		RegisterSize: int(p[6]),
		Seed:         binary.BigEndian.Uint64(p[16:]),
	}
	var chunkShift = uint(p[7])

	// Verify the encoded length before allocating the store.
	var l, err = specLayout(spec, chunkShift)
	if err != nil {
		return errors.WithMessage(err, "decoding snapshot header")
	}
	words, err := storeWords(spec.ArraySize, l)
	if err != nil {
		return errors.WithMessage(err, "decoding snapshot header")
	}
	if uint64(len(p)-SnapshotHeaderSize) != 8*words {
		return errors.Errorf("snapshot length mismatch: %d vs %d", len(p), 8*words+SnapshotHeaderSize)
	}

	out, err := newArray(spec, chunkShift)
	if err != nil {
		return err
	}
	var r = p[SnapshotHeaderSize:]
	for _, c := range out.store.chunks {
		for i := range c {
			c[i] = binary.BigEndian.Uint64(r[8*i:])
		}
		r = r[8*len(c):]
	}

	*a = *out
	return nil
}
