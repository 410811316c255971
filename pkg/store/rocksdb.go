//go:build rocksdb
// +build rocksdb

package store

import (
	"bytes"
	"context"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tecbot/gorocksdb"
)

// RocksStore stores arrays within a RocksDB, keyed by ArrayKey.
type RocksStore struct {
	db *gorocksdb.DB
	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions
}

// formatKey is the metadata key holding the store format version.
var formatKey = []byte{metadataPrefix, 'v'}

// OpenRocks opens (or creates) the RocksStore of directory |dir|.
func OpenRocks(dir string) (Store, error) {
	var opts = gorocksdb.NewDefaultOptions()
	defer opts.Destroy()
	opts.SetCreateIfMissing(true)

	var db, err = gorocksdb.OpenDb(opts, dir)
	if err != nil {
		return nil, errors.WithMessagef(err, "opening rocksdb %s", dir)
	}
	var s = &RocksStore{
		db: db,
		ro: gorocksdb.NewDefaultReadOptions(),
		wo: gorocksdb.NewDefaultWriteOptions(),
	}

	// Verify, or initialize, the format version of the DB.
	v, err := db.GetBytes(s.ro, formatKey)
	if err != nil {
		s.Close()
		return nil, errors.WithMessage(err, "reading format version")
	} else if v == nil {
		err = db.Put(s.wo, formatKey, []byte{rocksFormatVersion})
	} else if !bytes.Equal(v, []byte{rocksFormatVersion}) {
		err = errors.Errorf("unsupported rocksdb format version (%x)", v)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	log.WithField("dir", dir).Debug("opened rocksdb store")
	return s, nil
}

const rocksFormatVersion = 0x1

func (s *RocksStore) Put(_ context.Context, name string, arr *hll.CounterArray) error {
	var b, err = EncodeSnapshot(arr)
	if err != nil {
		return err
	}
	if err = s.db.Put(s.wo, ArrayKey(name), b); err != nil {
		return errors.WithMessagef(err, "storing array %q", name)
	}
	return nil
}

func (s *RocksStore) Get(_ context.Context, name string) (*hll.CounterArray, error) {
	var b, err = s.db.GetBytes(s.ro, ArrayKey(name))
	if err != nil {
		return nil, errors.WithMessagef(err, "fetching array %q", name)
	} else if b == nil {
		return nil, errors.WithMessagef(ErrNotFound, "array %q", name)
	}
	arr, err := DecodeSnapshot(b)
	if err != nil {
		return nil, errors.WithMessagef(err, "decoding array %q", name)
	}
	return arr, nil
}

// List iterates keys beginning with the encoded |prefix|, which RocksDB
// returns in name order.
func (s *RocksStore) List(_ context.Context, prefix string) ([]string, error) {
	var from = arrayKeyPrefix(prefix)
	var to = arrayKeyEnd(from)

	var it = s.db.NewIterator(s.ro)
	defer it.Close()

	var out []string
	for it.Seek(from); it.Valid(); it.Next() {
		var key = it.Key()
		if to != nil && bytes.Compare(to, key.Data()) <= 0 {
			key.Free()
			break
		}
		var name, err = DecodeArrayKey(key.Data())
		key.Free()

		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	if err := it.Err(); err != nil {
		return nil, errors.WithMessage(err, "iterating arrays")
	}
	return out, nil
}

func (s *RocksStore) Delete(_ context.Context, name string) error {
	var key = ArrayKey(name)

	if v, err := s.db.GetBytes(s.ro, key); err != nil {
		return errors.WithMessagef(err, "fetching array %q", name)
	} else if v == nil {
		return errors.WithMessagef(ErrNotFound, "array %q", name)
	}
	return s.db.Delete(s.wo, key)
}

func (s *RocksStore) Close() error {
	s.ro.Destroy()
	s.wo.Destroy()
	s.db.Close()
	return nil
}
