package hll

import (
	"crypto/rand"
	"encoding/binary"
)

// goldenRatio is an arbitrary initial value for the third accumulator.
const goldenRatio = 0x9e3779b97f4a7c13

// jenkins is Bob Jenkins' 64-bit integer mix, seeded by |seed|. It's fast
// and avalanches well, but makes no claim of collision resistance.
func jenkins(x int64, seed uint64) uint64 {
	var a, b, c uint64 = seed + uint64(x), seed, goldenRatio

	a -= b
	a -= c
	a ^= c >> 43
	b -= c
	b -= a
	b ^= a << 9
	c -= a
	c -= b
	c ^= b >> 8

	a -= b
	a -= c
	a ^= c >> 38
	b -= c
	b -= a
	b ^= a << 23
	c -= a
	c -= b
	c ^= b >> 5

	a -= b
	a -= c
	a ^= c >> 35
	b -= c
	b -= a
	b ^= a << 49
	c -= a
	c -= b
	c ^= b >> 11

	a -= b
	a -= c
	a ^= c >> 12
	b -= c
	b -= a
	b ^= a << 18
	c -= a
	c -= b
	c ^= b >> 22

	return c
}

// RandomSeed returns a seed drawn from the system's secure random source.
func RandomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err) // crypto/rand does not fail on supported platforms.
	}
	return binary.LittleEndian.Uint64(b[:])
}
