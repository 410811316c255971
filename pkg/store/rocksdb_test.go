//go:build rocksdb
// +build rocksdb

package store

import (
	"context"

	gc "github.com/go-check/check"
)

type RocksSuite struct{}

func (s *RocksSuite) TestStoreCases(c *gc.C) {
	var dir = c.MkDir()

	var st, err = OpenRocks(dir)
	c.Assert(err, gc.IsNil)
	exerciseStore(c, st)
	c.Assert(st.Close(), gc.IsNil)

	// Re-open, verifying the format version and surviving arrays.
	st, err = OpenRocks(dir)
	c.Assert(err, gc.IsNil)
	defer st.Close()

	var rs = st.(*RocksStore)
	names, err := rs.List(context.Background(), "")
	c.Check(err, gc.IsNil)
	c.Check(names, gc.DeepEquals, []string{"clicks/2020", "views*[x]"})

	// The metadata key isn't listed, and isn't an array.
	v, err := rs.db.GetBytes(rs.ro, formatKey)
	c.Check(err, gc.IsNil)
	c.Check(v, gc.DeepEquals, []byte{rocksFormatVersion})
}

var _ = gc.Suite(&RocksSuite{})
