package internal

import (
	"strconv"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/LiveRamp/hllarray/pkg/store"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ArrayConfig configures a new CounterArray, and is shared by commands
// which create arrays.
type ArrayConfig struct {
	ArraySize int     `long:"array-size" default:"1" description:"Number of counters in the array"`
	N         int64   `long:"n" default:"1000000000" description:"Upper bound of distinct elements counted by each counter"`
	Log2m     int     `long:"log2m" default:"0" description:"Log2 of registers per counter. If zero, derived from --rsd"`
	RSD       float64 `long:"rsd" default:"0.01" description:"Target relative standard deviation of counters"`
	Seed      string  `long:"seed" description:"Hash seed, decimal or 0x-prefixed hex. Arrays to be merged must share a seed. If empty, a random seed is used"`
}

// Validate returns an error if the ArrayConfig is not well-formed.
func (cfg ArrayConfig) Validate() error {
	if cfg.ArraySize <= 0 {
		return errors.Errorf("array-size must be positive (%d)", cfg.ArraySize)
	} else if cfg.N <= 0 {
		return errors.Errorf("n must be positive (%d)", cfg.N)
	} else if cfg.Log2m == 0 && !(cfg.RSD > 0 && cfg.RSD < 1) {
		return errors.Errorf("rsd must be in range (0, 1) (%v)", cfg.RSD)
	} else if cfg.Log2m != 0 && (cfg.Log2m < hll.MinLog2m || cfg.Log2m > hll.MaxLog2m) {
		return errors.Errorf("log2m must be in range [%d, %d] (%d)", hll.MinLog2m, hll.MaxLog2m, cfg.Log2m)
	} else if _, err := cfg.ParseSeed(); err != nil {
		return err
	}
	return nil
}

// Log2M returns the configured log2m, or that derived from the RSD.
func (cfg ArrayConfig) Log2M() int {
	if cfg.Log2m != 0 {
		return cfg.Log2m
	}
	return hll.Log2NumberOfRegisters(cfg.RSD)
}

// ParseSeed returns the configured seed, or a random seed if none is set.
func (cfg ArrayConfig) ParseSeed() (uint64, error) {
	if cfg.Seed == "" {
		return hll.RandomSeed(), nil
	}
	var seed, err = strconv.ParseUint(cfg.Seed, 0, 64)
	if err != nil {
		return 0, errors.WithMessagef(err, "parsing seed %q", cfg.Seed)
	}
	return seed, nil
}

// Build returns a new CounterArray of the ArrayConfig.
func (cfg ArrayConfig) Build() (*hll.CounterArray, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var seed, _ = cfg.ParseSeed()
	return hll.NewWithSeed(cfg.ArraySize, cfg.N, cfg.Log2M(), seed)
}

// StoreConfig selects and configures the Store of named arrays.
type StoreConfig struct {
	Backend     string `long:"backend" default:"file" choice:"file" choice:"redis" choice:"rocksdb" description:"Store backend"`
	Dir         string `long:"dir" default:"hllarrays" description:"Directory of the file or rocksdb store"`
	RedisAddr   string `long:"redis-addr" default:"localhost:6379" description:"Address of the Redis server"`
	RedisDB     int    `long:"redis-db" default:"0" description:"Redis database number"`
	RedisPrefix string `long:"redis-prefix" default:"hllarray:" description:"Prefix of Redis keys holding stored arrays"`
}

// Validate returns an error if the StoreConfig is not well-formed.
func (cfg StoreConfig) Validate() error {
	switch cfg.Backend {
	case "file", "rocksdb":
		if cfg.Dir == "" {
			return errors.Errorf("dir cannot be empty for the %s backend", cfg.Backend)
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return errors.New("redis-addr cannot be empty")
		}
	default:
		return errors.Errorf("unknown store backend %q", cfg.Backend)
	}
	return nil
}

// RedisClient returns a client of the configured Redis server.
func (cfg StoreConfig) RedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
}

// Open returns the configured Store.
func (cfg StoreConfig) Open() (store.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "redis":
		return store.NewRedisStore(cfg.RedisClient(), cfg.RedisPrefix), nil
	case "rocksdb":
		return store.OpenRocks(cfg.Dir)
	default:
		var fs, err = store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
}
