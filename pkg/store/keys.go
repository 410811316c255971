package store

import (
	"github.com/cockroachdb/cockroach/util/encoding"
	"github.com/pkg/errors"
)

const (
	// Keys beginning with metadataPrefix are reserved for Store metadata.
	metadataPrefix = 0x00
	// Keys beginning with arrayPrefix hold array snapshots.
	arrayPrefix = 0x01
)

// ArrayKey returns the key of array |name|. Keys order as their names do.
func ArrayKey(name string) []byte {
	return encoding.EncodeStringAscending([]byte{arrayPrefix}, name)
}

// DecodeArrayKey returns the array name encoded by |key|.
func DecodeArrayKey(key []byte) (string, error) {
	if len(key) == 0 || key[0] != arrayPrefix {
		return "", errors.Errorf("not an array key (%x)", key)
	}
	var rem, name, err = encoding.DecodeStringAscending(key[1:], nil)
	if err != nil {
		return "", errors.WithMessage(err, "decoding array key")
	} else if len(rem) != 0 {
		return "", errors.Errorf("unexpected array key suffix (%x)", rem)
	}
	return name, nil
}

// arrayKeyPrefix returns the prefix shared by keys of every name having
// |prefix|: the encoding of |prefix| without its terminator.
func arrayKeyPrefix(prefix string) []byte {
	var b = ArrayKey(prefix)
	return b[:len(b)-2]
}

// arrayKeyEnd returns the first key following every key having |prefix|.
func arrayKeyEnd(prefix []byte) []byte {
	var end = append([]byte(nil), prefix...)

	for i := len(end) - 1; i >= 0; i-- {
		if end[i]++; end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // |prefix| is all 0xff, and has no end.
}
