package store

import (
	"context"
	"math"
	"strconv"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/alicebob/miniredis/v2"
	gc "github.com/go-check/check"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisSuite struct {
	mr     *miniredis.Miniredis
	client *redis.Client
}

func (s *RedisSuite) SetUpTest(c *gc.C) {
	var err error
	s.mr, err = miniredis.Run()
	c.Assert(err, gc.IsNil)
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
}

func (s *RedisSuite) TearDownTest(c *gc.C) {
	s.client.Close()
	s.mr.Close()
}

func (s *RedisSuite) TestStoreCases(c *gc.C) {
	exerciseStore(c, NewRedisStore(s.client, "test:"))

	// Keys of other prefixes are not listed.
	c.Check(s.mr.Set("other:clicks/1", "x"), gc.IsNil)
	var names, err = NewRedisStore(s.client, "test:").List(context.Background(), "clicks/")
	c.Check(err, gc.IsNil)
	c.Check(names, gc.DeepEquals, []string{"clicks/2020"})
	c.Check(s.mr.Exists("test:views*[x]"), gc.Equals, true)
}

func (s *RedisSuite) TestPublish(c *gc.C) {
	var ctx = context.Background()
	var arr = buildFixture(c, 70, hll.RedisP, 5)

	c.Assert(Publish(ctx, s.client, "pub:", arr), gc.IsNil)

	for _, k := range []int{0, 1, 63, 64, 69} {
		var p, err = s.client.Get(ctx, "pub:"+strconv.Itoa(k)).Bytes()
		c.Assert(err, gc.IsNil)
		c.Check(hll.IsRedisFormat(p), gc.Equals, true)

		cnt, err := hll.RedisCount(p)
		c.Assert(err, gc.IsNil)
		c.Check(math.Abs(float64(cnt)-arr.Count(k))/arr.Count(k) < 0.03, gc.Equals, true)
	}
	c.Check(s.mr.Exists("pub:70"), gc.Equals, false)

	// Only arrays of the Redis precision may be published.
	var err = Publish(ctx, s.client, "bad:", buildFixture(c, 1, 12, 5))
	c.Check(errors.Cause(err), gc.Equals, hll.ErrIncompatible)
}

func (s *RedisSuite) TestGlobEscapes(c *gc.C) {
	c.Check(escapeGlob(`a*b?c[d]e\f`), gc.Equals, `a\*b\?c\[d\]e\\f`)
}

var _ = gc.Suite(&RedisSuite{})
