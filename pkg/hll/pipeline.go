package hll

import (
	"encoding/binary"
)

const (
	PipelineDenseDirty  = 'd'
	PipelineDenseClean  = 'D'
	PipelineSparseClean = 'S'
	PipelineSparseDirty = 's'

	PipelineHeaderSize = 20
)

// AppendPipeline appends counter |k| to |b| as a PipelineDB-formatted HLL.
// PipelineDB shares the Redis register wire format, but has a slightly
// differing header which also carries the cached cardinality.
func (a *CounterArray) AppendPipeline(b []byte, k int) ([]byte, error) {
	var p, err = a.AppendRedis(nil, k)
	if err != nil {
		return b, err
	}

	var cnt [8]byte
	if c, err := RedisCount(p); err != nil {
		return b, err
	} else {
		binary.LittleEndian.PutUint64(cnt[:], uint64(c))
	}

	var blen [4]byte
	binary.LittleEndian.PutUint32(blen[:], uint32(len(p)-RedisHeaderSize))

	// Append PipelineDB HLL header, then register bytes.
	b = append(b,
		PipelineDenseClean, // Encoding.
		0x0, 0x0, 0x0,      // Unused.
		cnt[0], cnt[1], cnt[2], cnt[3], cnt[4], cnt[5], cnt[6], cnt[7], // Cardinality.
		RedisP,        // Precision.
		0x0, 0x0, 0x0, // Unused.
		blen[0], blen[1], blen[2], blen[3], // Register byte length.
	)
	return append(b, p[RedisHeaderSize:]...), nil
}
