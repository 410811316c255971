/* Package `hll` implements arrays of HyperLogLog approximate distinct-element
 * counters, as introduced by Flajolet, Fusy, Gandouet & Meunier in
 * "HyperLogLog: the analysis of a near-optimal cardinality estimation
 * algorithm" (AofA 07).
 *
 * A CounterArray holds |ArraySize| independent counters, each of 2^Log2m
 * registers of RegisterSize bits, all sharing one hash function. Registers of
 * every counter are bit-packed into chunks of at most ChunkSize registers,
 * which allows an array to address far more registers than a single slice
 * could hold.
 *
 * Counters having Log2m == 14 use the register semantics of Redis dense HLLs,
 * and may be exported to (or reduced from) the Redis & PipelineDB formats.
 */
package hll

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

const (
	MinLog2m = 4  // Smallest supported log2 of registers per counter.
	MaxLog2m = 30 // Largest supported log2 of registers per counter.

	MinRegisterSize = 5  // Smallest register size returned by RegisterSize.
	MaxRegisterSize = 63 // Largest representable register size.
)

// ErrConfig is the cause of errors returned for invalid array configurations.
var ErrConfig = errors.New("invalid configuration")

// ArraySpec is the configuration of a CounterArray: the state which, together
// with register contents, fully describes it.
type ArraySpec struct {
	// Number of counters in the array.
	ArraySize int `yaml:"arraySize" json:"arraySize"`
	// Log2 of the number of registers of each counter.
	Log2m int `yaml:"log2m" json:"log2m"`
	// Size of each register, in bits.
	RegisterSize int `yaml:"registerSize" json:"registerSize"`
	// Seed of the hash function.
	Seed uint64 `yaml:"seed" json:"seed"`
}

// Validate returns an error if the ArraySpec is not well-formed.
func (s ArraySpec) Validate() error {
	if s.ArraySize <= 0 {
		return errors.WithMessagef(ErrConfig, "array size %d is not positive", s.ArraySize)
	} else if s.Log2m < MinLog2m || s.Log2m > MaxLog2m {
		return errors.WithMessagef(ErrConfig, "log2m %d not in range [%d, %d]", s.Log2m, MinLog2m, MaxLog2m)
	} else if s.RegisterSize <= 0 || s.RegisterSize > MaxRegisterSize {
		return errors.WithMessagef(ErrConfig, "register size %d not in range [1, %d]", s.RegisterSize, MaxRegisterSize)
	}
	return nil
}

// CounterArray is an array of HyperLogLog counters. A CounterArray is not
// safe for concurrent use: see SyncArray.
type CounterArray struct {
	spec ArraySpec

	m            int     // Registers per counter.
	counterSize  int     // Bits per counter.
	alphaMM      float64 // Bias correction alpha, multiplied by m^2.
	sentinelMask uint64  // OR'd with hashes to bound the lowest set bit.

	store registerStore
}

// New returns a CounterArray of |arraySize| counters, each expected to count
// up to |n| distinct elements with relative standard deviation |rsd|. The
// hash seed is chosen at random, so the array can't be merged with others:
// arrays to be merged must be built by NewWithSeed with a common seed.
func New(arraySize int, n int64, rsd float64) (*CounterArray, error) {
	if !(rsd > 0) || math.IsInf(rsd, 0) {
		return nil, errors.WithMessagef(ErrConfig, "relative standard deviation %v is not positive", rsd)
	}
	return NewWithLog2m(arraySize, n, Log2NumberOfRegisters(rsd))
}

// NewWithLog2m returns a CounterArray of |arraySize| counters of 2^|log2m|
// registers, each expected to count up to |n| distinct elements. As with New,
// the hash seed is chosen at random and the array merges only with itself.
func NewWithLog2m(arraySize int, n int64, log2m int) (*CounterArray, error) {
	return NewWithSeed(arraySize, n, log2m, RandomSeed())
}

// NewWithSeed returns a CounterArray of |arraySize| counters of 2^|log2m|
// registers, each expected to count up to |n| distinct elements, which hashes
// using |seed|. Arrays built with equal arguments and fed identical
// sequences of Adds have identical registers.
func NewWithSeed(arraySize int, n int64, log2m int, seed uint64) (*CounterArray, error) {
	if n <= 0 {
		return nil, errors.WithMessagef(ErrConfig, "expected cardinality %d is not positive", n)
	}
	return NewFromSpec(ArraySpec{
		ArraySize:    arraySize,
		Log2m:        log2m,
		RegisterSize: RegisterSize(n),
		Seed:         seed,
	})
}

// NewFromSpec returns a zeroed CounterArray of the ArraySpec.
func NewFromSpec(spec ArraySpec) (*CounterArray, error) {
	return newArray(spec, ChunkShift)
}

func newArray(spec ArraySpec, chunkShift uint) (*CounterArray, error) {
	var l, err = specLayout(spec, chunkShift)
	if err != nil {
		return nil, err
	}
	store, err := newRegisterStore(spec.ArraySize, l)
	if err != nil {
		return nil, err
	}

	var a = &CounterArray{
		spec:        spec,
		m:           1 << uint(spec.Log2m),
		counterSize: spec.RegisterSize << uint(spec.Log2m),
		store:       store,
	}
	a.alphaMM = alphaMM(spec.Log2m)
	a.sentinelMask = 1 << sentinelBit(spec.RegisterSize)

	return a, nil
}

// specLayout validates |spec| and returns its register layout.
func specLayout(spec ArraySpec, chunkShift uint) (layout, error) {
	if err := spec.Validate(); err != nil {
		return layout{}, err
	} else if chunkShift < uint(spec.Log2m) || chunkShift > ChunkShift {
		return layout{}, errors.WithMessagef(ErrConfig, "chunk shift %d not in range [%d, %d]",
			chunkShift, spec.Log2m, ChunkShift)
	}
	return newLayout(uint(spec.Log2m), uint(spec.RegisterSize), chunkShift), nil
}

// alphaMM returns the bias-correction constant alpha for 2^|log2m| registers,
// multiplied by m^2. Small register counts use the constants published with
// the algorithm.
func alphaMM(log2m int) float64 {
	var m = float64(uint64(1) << uint(log2m))

	switch log2m {
	case 4:
		return 0.673 * m * m
	case 5:
		return 0.697 * m * m
	case 6:
		return 0.709 * m * m
	default:
		return (0.7213 / (1 + 1.079/m)) * m * m
	}
}

// sentinelBit returns the bit OR'd into shifted hashes so that their lowest
// set bit, plus one, is representable in |registerSize| bits.
func sentinelBit(registerSize int) uint {
	if registerSize >= 6 {
		return 62
	}
	return (1 << uint(registerSize)) - 2
}

// Spec returns the current ArraySpec of the CounterArray.
func (a *CounterArray) Spec() ArraySpec { return a.spec }

// Add the element |v| to counter |k|. Add panics if |k| is out of range.
func (a *CounterArray) Add(k int, v int64) {
	a.checkCounter(k)

	var j, count = a.rho(jenkins(v, a.spec.Seed))
	a.store.setMax(k, j, count)
}

// rho returns the register and candidate count for hash |x|: the register is
// selected by the low log2m bits of |x|, and the count is one plus the
// position of the lowest set bit of the remainder.
func (a *CounterArray) rho(x uint64) (int, uint64) {
	var j = int(x & uint64(a.m-1))
	var r = bits.TrailingZeros64(x>>uint(a.spec.Log2m) | a.sentinelMask)
	return j, uint64(r + 1)
}

// Count returns an estimate of the number of distinct elements added to
// counter |k|. Count panics if |k| is out of range.
func (a *CounterArray) Count(k int) float64 {
	a.checkCounter(k)
	return a.estimate(a.store.sum(k, a.m))
}

// estimate maps the harmonic sum |z| and number of zero registers to a
// cardinality, applying small-range correction where the raw estimate is
// unreliable.
func (a *CounterArray) estimate(z float64, zeroes int) float64 {
	var m = float64(a.m)
	var e = a.alphaMM / z

	if zeroes != 0 && e <= 2.5*m {
		return m * math.Log(m/float64(zeroes))
	}
	return e
}

// Register returns the value of register |j| of counter |k|.
func (a *CounterArray) Register(k, j int) uint64 {
	a.checkCounter(k)
	if j < 0 || j >= a.m {
		panic(fmt.Sprintf("register %d out of range [0, %d)", j, a.m))
	}
	return a.store.get(k, j)
}

// Clear zeroes all registers.
func (a *CounterArray) Clear() { a.store.clear() }

// ClearSeed zeroes all registers and sets a new hash |seed|.
func (a *CounterArray) ClearSeed(seed uint64) {
	a.Clear()
	a.spec.Seed = seed
}

func (a *CounterArray) checkCounter(k int) {
	if k < 0 || k >= a.spec.ArraySize {
		panic(fmt.Sprintf("counter %d out of range [0, %d)", k, a.spec.ArraySize))
	}
}

// RegisterSize returns the register size in bits needed for counters of at
// most |n| distinct elements.
func RegisterSize(n int64) int {
	if n <= 2 {
		return MinRegisterSize // log2(log2(n)) is not positive.
	}
	var s = int(math.Ceil(math.Log2(math.Log2(float64(n)))))
	if s < MinRegisterSize {
		return MinRegisterSize
	}
	return s
}

// Log2NumberOfRegisters returns the log2 of the number of registers per
// counter needed to attain relative standard deviation |rsd|.
func Log2NumberOfRegisters(rsd float64) int {
	// 1.106 is valid for 16 registers or more.
	return int(math.Ceil(math.Log2((1.106 / rsd) * (1.106 / rsd))))
}

// RelativeStandardDeviation returns the relative standard deviation of
// counters having 2^|log2m| registers.
func RelativeStandardDeviation(log2m int) float64 {
	var c float64

	switch log2m {
	case 4:
		c = 1.106
	case 5:
		c = 1.070
	case 6:
		c = 1.054
	case 7:
		c = 1.046
	default:
		c = 1.04
	}
	return c / math.Sqrt(float64(uint64(1)<<uint(log2m)))
}
