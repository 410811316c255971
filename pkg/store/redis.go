package store

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisStore stores each array as a string value of a Redis server, keyed by
// Prefix and the array name.
type RedisStore struct {
	Client redis.UniversalClient
	Prefix string
}

// NewRedisStore returns a RedisStore using |client| and key |prefix|.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{Client: client, Prefix: prefix}
}

func (s *RedisStore) key(name string) string { return s.Prefix + name }

func (s *RedisStore) Put(ctx context.Context, name string, arr *hll.CounterArray) error {
	var b, err = EncodeSnapshot(arr)
	if err != nil {
		return err
	}
	if err = s.Client.Set(ctx, s.key(name), b, 0).Err(); err != nil {
		return errors.WithMessagef(err, "storing array %q", name)
	}
	log.WithFields(log.Fields{"key": s.key(name), "bytes": len(b)}).Debug("stored array")
	return nil
}

func (s *RedisStore) Get(ctx context.Context, name string) (*hll.CounterArray, error) {
	var b, err = s.Client.Get(ctx, s.key(name)).Bytes()
	if err == redis.Nil {
		return nil, errors.WithMessagef(ErrNotFound, "array %q", name)
	} else if err != nil {
		return nil, errors.WithMessagef(err, "fetching array %q", name)
	}
	arr, err := DecodeSnapshot(b)
	if err != nil {
		return nil, errors.WithMessagef(err, "decoding array %q", name)
	}
	return arr, nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	var iter = s.Client.Scan(ctx, 0, escapeGlob(s.Prefix+prefix)+"*", 256).Iterator()

	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), s.Prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.WithMessage(err, "scanning arrays")
	}
	sort.Strings(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	var n, err = s.Client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return errors.WithMessagef(err, "deleting array %q", name)
	} else if n == 0 {
		return errors.WithMessagef(ErrNotFound, "array %q", name)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.Client.Close() }

// Publish writes each counter of |arr| as a native Redis HLL, under key
// |prefix| followed by the counter index. Published keys may be read with
// PFCOUNT, or merged with PFMERGE. |arr| must have Log2m of hll.RedisP.
func Publish(ctx context.Context, client redis.UniversalClient, prefix string, arr *hll.CounterArray) error {
	var spec = arr.Spec()
	var pipe = client.Pipeline()

	for k := 0; k != spec.ArraySize; k++ {
		var b, err = arr.AppendRedis(nil, k)
		if err != nil {
			return err
		}
		pipe.Set(ctx, prefix+strconv.Itoa(k), b, 0)

		if pipe.Len() == publishBatchSize {
			if _, err = pipe.Exec(ctx); err != nil {
				return errors.WithMessage(err, "publishing counters")
			}
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.WithMessage(err, "publishing counters")
	}
	log.WithFields(log.Fields{"prefix": prefix, "counters": spec.ArraySize}).Info("published counters")
	return nil
}

const publishBatchSize = 64

// escapeGlob escapes Redis glob metacharacters of |s|.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
