// Package store persists named CounterArrays. Arrays are stored as
// snappy-compressed snapshots under order-preserving keys, in a local
// directory, a Redis server, or (with the rocksdb build tag) a RocksDB.
package store

import (
	"context"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get and Delete of a name which isn't stored.
var ErrNotFound = errors.New("array not found")

// Store is a repository of named CounterArrays.
type Store interface {
	// Put stores |arr| under |name|, replacing any current array.
	Put(ctx context.Context, name string, arr *hll.CounterArray) error
	// Get returns the array stored under |name|.
	Get(ctx context.Context, name string) (*hll.CounterArray, error)
	// List returns stored names having |prefix|, in sorted order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the array stored under |name|.
	Delete(ctx context.Context, name string) error
	// Close releases resources of the Store.
	Close() error
}

// EncodeSnapshot returns the compressed snapshot of |arr|.
func EncodeSnapshot(arr *hll.CounterArray) ([]byte, error) {
	var b, err = arr.MarshalBinary()
	if err != nil {
		return nil, errors.WithMessage(err, "marshalling array")
	}
	return snappy.Encode(nil, b), nil
}

// DecodeSnapshot returns the CounterArray of compressed snapshot |p|.
func DecodeSnapshot(p []byte) (*hll.CounterArray, error) {
	var b, err = snappy.Decode(nil, p)
	if err != nil {
		return nil, errors.WithMessage(err, "decompressing snapshot")
	}
	var arr = new(hll.CounterArray)
	if err = arr.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return arr, nil
}
