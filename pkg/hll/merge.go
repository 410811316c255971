package hll

import (
	"github.com/pkg/errors"
)

// ErrIncompatible is the cause of errors returned when merging CounterArrays
// of differing configurations.
var ErrIncompatible = errors.New("incompatible counter arrays")

// Compatible returns nil if registers of |q| may be merged into those of |a|.
// Both must share Log2m and RegisterSize, and must hash with the same Seed
// (or equal elements would select different registers).
func (a *CounterArray) Compatible(q *CounterArray) error {
	if a.spec.Log2m != q.spec.Log2m || a.spec.RegisterSize != q.spec.RegisterSize {
		return errors.WithMessagef(ErrIncompatible, "log2m %d & register size %d vs log2m %d & register size %d",
			a.spec.Log2m, a.spec.RegisterSize, q.spec.Log2m, q.spec.RegisterSize)
	} else if a.spec.Seed != q.spec.Seed {
		return errors.WithMessagef(ErrIncompatible, "seed %d vs %d", a.spec.Seed, q.spec.Seed)
	}
	return nil
}

// MergeCounter folds counter |qk| of |q| into counter |k| of |a|, such that
// each register of |k| becomes the maximum of itself and its peer in |qk|.
// |q| is not modified, and may be |a|. MergeCounter panics if |k| or |qk| is
// out of range.
func (a *CounterArray) MergeCounter(k int, q *CounterArray, qk int) error {
	if err := a.Compatible(q); err != nil {
		return err
	}
	a.checkCounter(k)
	q.checkCounter(qk)

	for j := 0; j != a.m; j++ {
		a.store.setMax(k, j, q.store.get(qk, j))
	}
	return nil
}

// Reduce folds every counter of |q| into the corresponding counter of |a|.
// |q| is not modified.
func (a *CounterArray) Reduce(q *CounterArray) error {
	if err := a.Compatible(q); err != nil {
		return err
	} else if a.spec.ArraySize != q.spec.ArraySize {
		return errors.WithMessagef(ErrIncompatible, "array size %d vs %d", a.spec.ArraySize, q.spec.ArraySize)
	} else if a.store.chunkShift != q.store.chunkShift {
		return errors.WithMessagef(ErrIncompatible, "chunk shift %d vs %d", a.store.chunkShift, q.store.chunkShift)
	}

	// Layouts are identical, so registers may be walked chunk-by-chunk.
	var total = uint64(a.spec.ArraySize) << uint(a.spec.Log2m)
	for i := range a.store.chunks {
		reduceChunk(a.store.chunks[i], q.store.chunks[i],
			chunkRegisters(total, a.store.chunkShift, i), a.store.width, a.store.mask)
	}
	return nil
}

// reduceChunk sets each of the |registers| fields of |p| to the maximum of
// itself and the corresponding field of |q|.
func reduceChunk(p, q []uint64, registers uint64, width uint, mask uint64) {
	var end = registers * uint64(width)

	for pos := uint64(0); pos != end; pos += uint64(width) {
		if cp, cq := getBits(p, pos, width, mask), getBits(q, pos, width, mask); cp < cq {
			setBits(p, pos, width, mask, cq)
		}
	}
}

// Merge returns a new CounterArray having the configuration of the first of
// |estimators|, and registers which are the register-wise maximum over all
// of |estimators|. Each counter of the result estimates the cardinality of
// the union of the sets tracked by that counter across |estimators|, which
// are not modified.
func Merge(estimators ...*CounterArray) (*CounterArray, error) {
	if len(estimators) == 0 {
		return nil, errors.New("no estimators to merge")
	}
	var out, err = newArray(estimators[0].spec, estimators[0].store.chunkShift)
	if err != nil {
		return nil, err
	}
	for _, e := range estimators {
		if err = out.Reduce(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MergeCount returns the estimated cardinality of the union of counter 0
// across |estimators|. Unlike Merge, |estimators| may differ in ArraySize.
func MergeCount(estimators ...*CounterArray) (float64, error) {
	if len(estimators) == 0 {
		return 0, errors.New("no estimators to merge")
	}
	var spec = estimators[0].spec
	spec.ArraySize = 1

	var out, err = NewFromSpec(spec)
	if err != nil {
		return 0, err
	}
	for _, e := range estimators {
		if err = out.MergeCounter(0, e, 0); err != nil {
			return 0, err
		}
	}
	return out.Count(0), nil
}
