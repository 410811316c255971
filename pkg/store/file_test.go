package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	gc "github.com/go-check/check"
)

type FileSuite struct{}

func (s *FileSuite) TestStoreCases(c *gc.C) {
	var st, err = NewFileStore(filepath.Join(c.MkDir(), "nested", "dir"))
	c.Assert(err, gc.IsNil)
	defer st.Close()

	exerciseStore(c, st)
}

func (s *FileSuite) TestForeignFilesAreIgnored(c *gc.C) {
	var dir = c.MkDir()
	var st, err = NewFileStore(dir)
	c.Assert(err, gc.IsNil)

	c.Assert(st.Put(context.Background(), "one", buildFixture(c, 1, 4, 1)), gc.IsNil)

	for _, name := range []string{"README", "zz.hlla", "00aa.hlla", ".put-123"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644), gc.IsNil)
	}
	c.Assert(os.Mkdir(filepath.Join(dir, "sub"+FileSuffix), 0755), gc.IsNil)

	names, err := st.List(context.Background(), "")
	c.Check(err, gc.IsNil)
	c.Check(names, gc.DeepEquals, []string{"one"})

	// No temp files remain from Put.
	matches, err := filepath.Glob(filepath.Join(dir, ".put-*"))
	c.Check(err, gc.IsNil)
	c.Check(matches, gc.DeepEquals, []string{filepath.Join(dir, ".put-123")})
}

func (s *FileSuite) TestCorruptSnapshot(c *gc.C) {
	var st, err = NewFileStore(c.MkDir())
	c.Assert(err, gc.IsNil)

	path, err := st.path("bad")
	c.Assert(err, gc.IsNil)
	c.Assert(os.WriteFile(path, []byte("not snappy"), 0644), gc.IsNil)

	_, err = st.Get(context.Background(), "bad")
	c.Check(err, gc.ErrorMatches, `decoding array "bad": decompressing snapshot: .*`)
}

func (s *FileSuite) TestNameLengthLimit(c *gc.C) {
	var st, err = NewFileStore(c.MkDir())
	c.Assert(err, gc.IsNil)
	var ctx = context.Background()
	var arr = buildFixture(c, 1, 4, 1)

	// 1 prefix byte, 120 name bytes and a 2 byte terminator, hex encoded with suffix.
	var longest = strings.Repeat("a", 120)
	c.Check(st.Put(ctx, longest, arr), gc.IsNil)
	_, err = st.Get(ctx, longest)
	c.Check(err, gc.IsNil)

	var tooLong = strings.Repeat("a", 200)
	c.Check(st.Put(ctx, tooLong, arr), gc.ErrorMatches,
		`name "a+" is too long for the file store \(411 byte file name; max 255\)`)
	_, err = st.Get(ctx, tooLong)
	c.Check(err, gc.ErrorMatches, `name "a+" is too long .*`)
	c.Check(st.Delete(ctx, tooLong), gc.ErrorMatches, `name "a+" is too long .*`)

	names, err := st.List(ctx, "")
	c.Check(err, gc.IsNil)
	c.Check(names, gc.DeepEquals, []string{longest})
}

var _ = gc.Suite(&FileSuite{})
