//go:build !rocksdb
// +build !rocksdb

package store

import (
	"github.com/pkg/errors"
)

// OpenRocks fails, as this binary was built without RocksDB support.
func OpenRocks(dir string) (Store, error) {
	return nil, errors.Errorf("cannot open %s: built without rocksdb support (use -tags rocksdb)", dir)
}
