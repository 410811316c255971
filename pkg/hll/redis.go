
/* hyperloglog.c - Redis HyperLogLog probabilistic cardinality approximation.
 * This file implements the algorithm and the exported Redis commands.
 *
 * Copyright (c) 2014, Salvatore Sanfilippo <antirez at gmail dot com>
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions are met:
 *
 *   * Redistributions of source code must retain the above copyright notice,
 *     this list of conditions and the following disclaimer.
 *   * Redistributions in binary form must reproduce the above copyright
 *     notice, this list of conditions and the following disclaimer in the
 *     documentation and/or other materials provided with the distribution.
 *   * Neither the name of Redis nor the names of its contributors may be used
 *     to endorse or promote products derived from this software without
 *     specific prior written permission.
 *
 * THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
 * AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
 * IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
 * ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT OWNER OR CONTRIBUTORS BE
 * LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
 * CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
 * SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
 * INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
 * CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
 * ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

// Portions of this file Copyright (c) 2017, LiveRamp / Acxiom Inc.

package hll

import (
	"math"

	"github.com/pkg/errors"
)

const (
	RedisP         = 14          // Precision of Redis HLLs.
	RedisRegisters = 1 << RedisP // With P=14, 16384 registers.

	redisCountBits = 6 // Enough to count up to 63 trailing zeros.
	redisCountMax  = (1 << redisCountBits) - 1

	RedisHeaderSize = 16
	RedisDenseSize  = (RedisRegisters*redisCountBits+7)/8 + 1 + RedisHeaderSize

	redisAlpha = 0.7213 / (1 + 1.079/RedisRegisters)
)

// Layout of the Redis header, 16 bytes total:
// 'H', 'Y', 'L', 'L' (magic prefix).
// encoding    (uint8, 0x0 for dense, 0x1 for sparse).
// _           ([3]uint8, not used and must be zero).
// cardinality ([8]uint8, cached cardinality in little endian)
const (
	redisEncodingOffset    = 4
	redisCardinalityOffset = 8

	redisDense  = 0x0
	redisSparse = 0x1
)

// Sparse opcodes.
const (
	opcodeMask  = 0xc0 // 11000000
	opcodeZERO  = 0x00 // 00xxxxxx
	opcodeXZERO = 0x40 // 01xxxxxx
)

// AppendRedis appends counter |k| to |b| as a dense Redis HLL, which Redis
// will accept for PFCOUNT and PFMERGE. The counter must have Log2m of RedisP.
func (a *CounterArray) AppendRedis(b []byte, k int) ([]byte, error) {
	if a.spec.Log2m != RedisP {
		return b, errors.WithMessagef(ErrIncompatible, "log2m %d is not the Redis precision %d", a.spec.Log2m, RedisP)
	}
	a.checkCounter(k)

	var begin = len(b)
	b = append(b, make([]byte, RedisDenseSize)...)
	var p = b[begin:]

	_ = append(p[:0],
		'H', 'Y', 'L', 'L',
		redisDense,
		0x0, 0x0, 0x0, // Unused.
		0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, // Cached cardinality.
	)
	// The cached cardinality MSB signals the cached value is stale, and Redis
	// must recompute it from registers.
	p[redisCardinalityOffset+7] |= 1 << 7

	for j := 0; j != RedisRegisters; j++ {
		var v = a.store.get(k, j)
		if v > redisCountMax {
			v = redisCountMax
		}
		setDenseRegister(p, j, uint8(v))
	}
	return b, nil
}

// ReduceRedis folds the dense or sparse Redis HLL |p| into counter |k|, such
// that each register of |k| becomes the maximum of itself and its peer in |p|.
// The counter must have Log2m of RedisP.
func (a *CounterArray) ReduceRedis(k int, p []byte) error {
	if a.spec.Log2m != RedisP {
		return errors.WithMessagef(ErrIncompatible, "log2m %d is not the Redis precision %d", a.spec.Log2m, RedisP)
	}
	a.checkCounter(k)

	return walkRedis(p, func(reg int, value uint8) {
		a.store.setMax(k, reg, uint64(value))
	})
}

// IsRedisFormat returns whether |p| is in the standard Redis wire format.
func IsRedisFormat(p []byte) bool {
	return len(p) >= RedisHeaderSize && p[0] == 'H' && p[1] == 'Y' && p[2] == 'L' && p[3] == 'L'
}

// walkRedis invokes |fn| with every non-zero register of Redis HLL |p|.
func walkRedis(p []byte, fn func(reg int, value uint8)) error {
	if !IsRedisFormat(p) {
		return errors.New("not a Redis HLL")
	}

	switch p[redisEncodingOffset] {
	case redisDense:
		if len(p) != RedisDenseSize {
			return errors.Errorf("dense length mismatch: %d vs %d", len(p), RedisDenseSize)
		}
		for reg := 0; reg != RedisRegisters; reg++ {
			if v := getDenseRegister(p, reg); v != 0 {
				fn(reg, v)
			}
		}
		return nil

	case redisSparse:
		var reg int

		for i, plen := RedisHeaderSize, len(p); i != plen; {
			switch p[i] & opcodeMask {
			case opcodeZERO:
				i, reg = i+1, reg+sparseZeroLen(p, i)
			case opcodeXZERO:
				if i+1 == plen {
					return errors.New("truncated XZERO opcode")
				}
				i, reg = i+2, reg+sparseXZeroLen(p, i)
			default: // opcodeVALUE.
				var run, value = sparseValLen(p, i), sparseValValue(p, i)

				if reg+run > RedisRegisters {
					return errors.Errorf("large register (%d)", reg+run)
				}
				for end := reg + run; reg != end; reg++ {
					fn(reg, value)
				}
				i++
			}
		}
		if reg != RedisRegisters {
			return errors.Errorf("wrong # of sparse registers (got %d)", reg)
		}
		return nil

	default:
		return errors.Errorf("unknown Redis encoding %d", p[redisEncodingOffset])
	}
}

// Retrieve the value of the Register at |reg|.
func getDenseRegister(p []byte, reg int) (value uint8) {
	var _byte = RedisHeaderSize + (reg*redisCountBits)/8
	var _fb = uint(reg*redisCountBits) & 7
	var _fb8 = 8 - _fb
	var b0, b1 = p[_byte], p[_byte+1]

	return ((b0 >> _fb) | (b1 << _fb8)) & redisCountMax
}

// Set the value of the Register at |reg| to |value|.
func setDenseRegister(p []byte, reg int, value uint8) {
	var _byte = RedisHeaderSize + (reg*redisCountBits)/8
	var _fb = uint(reg*redisCountBits) & 7
	var _fb8 = 8 - _fb

	p[_byte] &= ^(redisCountMax << _fb)
	p[_byte] |= value << _fb
	p[_byte+1] &= ^(redisCountMax >> _fb8)
	p[_byte+1] |= value >> _fb8
}

func sparseZeroLen(p []byte, i int) int {
	// Extract 00xxxxxx + 1.
	return int(p[i]&0x3f) + 1
}
func sparseXZeroLen(p []byte, i int) int {
	// Extract (00xxxxxx yyyyyyyy) + 1.
	return (int(p[i]&0x3f)<<8 | int(p[i+1])) + 1
}
func sparseValLen(p []byte, i int) int {
	// Extract 000000xx + 1.
	return int(p[i]&0x3) + 1
}
func sparseValValue(p []byte, i int) uint8 {
	// Extract 0xxxxx00 + 1.
	return (p[i]>>2)&0x1f + 1
}

// RedisCount returns the cardinality of the Redis HLL |p|, estimated exactly
// as Redis does.
func RedisCount(p []byte) (int, error) {
	var E float64
	var ez int

	if err := walkRedis(p, func(_ int, value uint8) {
		E += PE[value] // Precomputed 2^(-reg[j]).
		ez++
	}); err != nil {
		return 0, err
	}
	// |ez| counted non-zero registers. Add 2^0 for each zero register.
	ez = RedisRegisters - ez
	E += float64(ez)

	var fez = float64(ez)

	/* Apply loglog-beta to the raw estimate. See:
	 * "LogLog-Beta and More: A New Algorithm for Cardinality Estimation
	 * Based on LogLog Counting" Jason Qin, Denys Kim, Yumei Tung
	 * arXiv:1612.02284 */
	var zl = math.Log(fez + 1)
	var beta = -0.370393911*fez +
		0.070471823*zl +
		0.17393686*math.Pow(zl, 2.0) +
		0.16339839*math.Pow(zl, 3.0) +
		-0.09237745*math.Pow(zl, 4.0) +
		0.03738027*math.Pow(zl, 5.0) +
		-0.005384159*math.Pow(zl, 6.0) +
		0.00042419*math.Pow(zl, 7.0)

	return int(math.Floor(redisAlpha*RedisRegisters*(RedisRegisters-fez)*(1/(E+beta)) + 0.5)), nil
}
