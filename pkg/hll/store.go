package hll

import (
	"math"

	"github.com/pkg/errors"
)

const (
	ChunkShift = 30              // Log2 of the maximum number of registers in a chunk.
	ChunkSize  = 1 << ChunkShift // Maximum number of registers in a chunk.

	// MaxStoreBits bounds the register bits of a CounterArray (128GiB).
	MaxStoreBits = 1 << 40
)

// layout maps a (counter, register) pair to a chunk and a bit position within
// it. It's pure arithmetic and holds no storage.
type layout struct {
	log2m        uint   // Log2 of registers per counter.
	width        uint   // Bits per register.
	mask         uint64 // (1 << width) - 1.
	chunkShift   uint   // Log2 of registers per chunk.
	chunkMask    uint64 // (1 << chunkShift) - 1.
	counterShift uint   // chunkShift - log2m: selects the chunk of a counter.
}

func newLayout(log2m, width, chunkShift uint) layout {
	return layout{
		log2m:        log2m,
		width:        width,
		mask:         (1 << width) - 1,
		chunkShift:   chunkShift,
		chunkMask:    (1 << chunkShift) - 1,
		counterShift: chunkShift - log2m,
	}
}

// chunk returns the chunk holding counter |k|.
func (l layout) chunk(k int) int { return k >> l.counterShift }

// offset returns the first bit of counter |k| within its chunk.
func (l layout) offset(k int) uint64 {
	return (uint64(k) << l.log2m & l.chunkMask) * uint64(l.width)
}

// position returns the bit position of register |j| of counter |k| within
// the chunk of |k|.
func (l layout) position(k, j int) uint64 {
	return ((uint64(k)<<l.log2m + uint64(j)) & l.chunkMask) * uint64(l.width)
}

// registerStore holds the registers of every counter of an array, split
// across chunks of at most 1<<chunkShift registers. Each chunk is a flat bit
// array of |width|-bit unsigned fields.
type registerStore struct {
	layout
	chunks [][]uint64
}

func newRegisterStore(counters int, l layout) (registerStore, error) {
	var words, err = chunkWords(counters, l)
	if err != nil {
		return registerStore{}, err
	}
	var s = registerStore{layout: l, chunks: make([][]uint64, len(words))}

	for i, n := range words {
		s.chunks[i] = make([]uint64, n)
	}
	return s, nil
}

// storeWords returns the total number of 64-bit words needed to hold
// |counters| counters of layout |l|, without allocating. Stores of more than
// MaxStoreBits register bits are a configuration error.
func storeWords(counters int, l layout) (uint64, error) {
	if counters <= 0 {
		return 0, errors.WithMessagef(ErrConfig, "array size %d is not positive", counters)
	} else if uint64(counters) > uint64(math.MaxInt64)>>l.log2m {
		return 0, errors.WithMessagef(ErrConfig,
			"%d counters of %d registers overflow the addressable register space", counters, 1<<l.log2m)
	}
	var total = uint64(counters) << l.log2m

	if total > MaxStoreBits/uint64(l.width) {
		return 0, errors.WithMessagef(ErrConfig,
			"%d registers of %d bits exceed the maximum of %d bits", total, l.width, uint64(MaxStoreBits))
	}
	var full, tail = total >> l.chunkShift, total & l.chunkMask
	var fullWords = (uint64(1)<<l.chunkShift*uint64(l.width) + 63) / 64

	return full*fullWords + (tail*uint64(l.width)+63)/64, nil
}

// chunkWords returns the number of 64-bit words of each chunk needed to hold
// |counters| counters of layout |l|.
func chunkWords(counters int, l layout) ([]int, error) {
	if _, err := storeWords(counters, l); err != nil {
		return nil, err
	}
	var total = uint64(counters) << l.log2m
	var out = make([]int, (total+l.chunkMask)>>l.chunkShift)

	for i := range out {
		out[i] = int((chunkRegisters(total, l.chunkShift, i)*uint64(l.width) + 63) / 64)
	}
	return out, nil
}

// chunkRegisters returns the number of registers held by chunk |i| of a store
// of |total| registers. Every chunk but the last is full.
func chunkRegisters(total uint64, chunkShift uint, i int) uint64 {
	var registers = total - uint64(i)<<chunkShift
	if registers > 1<<chunkShift {
		registers = 1 << chunkShift
	}
	return registers
}

// get returns register |j| of counter |k|.
func (s *registerStore) get(k, j int) uint64 {
	return getBits(s.chunks[s.chunk(k)], s.position(k, j), s.width, s.mask)
}

// setMax updates register |j| of counter |k| to the maximum of its current
// value and |v|, returning the previous value.
func (s *registerStore) setMax(k, j int, v uint64) uint64 {
	var words, pos = s.chunks[s.chunk(k)], s.position(k, j)

	var prev = getBits(words, pos, s.width, s.mask)
	if v > prev {
		setBits(words, pos, s.width, s.mask, v)
	}
	return prev
}

// clear zeroes every register.
func (s *registerStore) clear() {
	for _, words := range s.chunks {
		for i := range words {
			words[i] = 0 // Compiler optimizes to memclr.
		}
	}
}

// sum walks the |m| registers of counter |k| in order, returning
// SUM(2^-reg) and the number of zero-valued registers.
func (s *registerStore) sum(k, m int) (z float64, zeroes int) {
	var words = s.chunks[s.chunk(k)]
	var offset = s.offset(k)

	var word = offset / 64
	var curr = words[word] >> (offset % 64)
	var remaining = 64 - uint(offset%64)
	var r uint64

	for j := m; j != 0; j-- {
		if remaining >= s.width {
			r = curr & s.mask
			curr >>= s.width
			remaining -= s.width
		} else {
			// Register straddles |word| and its successor.
			word++
			r = (curr | words[word]<<remaining) & s.mask
			curr = words[word] >> (s.width - remaining)
			remaining += 64 - s.width
		}

		if r == 0 {
			zeroes++
		}
		z += pow2neg(r)
	}
	return
}

// getBits returns the |width|-bit field beginning at bit |pos| of |words|.
func getBits(words []uint64, pos uint64, width uint, mask uint64) uint64 {
	var w, o = pos / 64, uint(pos % 64)

	var v = words[w] >> o
	if o+width > 64 {
		v |= words[w+1] << (64 - o)
	}
	return v & mask
}

// setBits stores |value| into the |width|-bit field beginning at bit |pos|.
func setBits(words []uint64, pos uint64, width uint, mask, value uint64) {
	var w, o = pos / 64, uint(pos % 64)

	words[w] = words[w]&^(mask<<o) | value<<o
	if o+width > 64 {
		var hi = 64 - o
		words[w+1] = words[w+1]&^(mask>>hi) | value>>hi
	}
}

// PE is a pre-computed table of 2^-reg, indexed by reg.
var PE [64]float64

func init() {
	PE[0] = 1 // 2^(-reg) is 1 when reg is 0.
	for j := uint(1); j < 64; j++ {
		PE[j] = 1.0 / float64(uint64(1)<<j)
	}
}

func pow2neg(r uint64) float64 {
	if r < uint64(len(PE)) {
		return PE[r]
	}
	return math.Ldexp(1, -int(r))
}
