package store

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LiveRamp/hllarray/pkg/hll"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FileSuffix is the file extension of stored snapshots.
const FileSuffix = ".hlla"

// MaxFileNameLen is the longest file name accepted by common filesystems.
const MaxFileNameLen = 255

// FileStore stores each array as a file of directory Dir, named by the hex
// encoding of its ArrayKey. As the hex ArrayKey and suffix must fit in
// MaxFileNameLen bytes, names are limited to about 120 bytes (fewer if they
// contain 0x00 or 0xff bytes, which are escaped).
type FileStore struct {
	Dir string
}

// NewFileStore returns a FileStore of |dir|, which is created if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WithMessagef(err, "creating store directory %s", dir)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(name string) (string, error) {
	var fname = hex.EncodeToString(ArrayKey(name)) + FileSuffix
	if len(fname) > MaxFileNameLen {
		return "", errors.Errorf("name %q is too long for the file store (%d byte file name; max %d)",
			name, len(fname), MaxFileNameLen)
	}
	return filepath.Join(s.Dir, fname), nil
}

// Put writes |arr| to a temporary file which is then renamed into place,
// such that readers never observe a partial snapshot.
func (s *FileStore) Put(_ context.Context, name string, arr *hll.CounterArray) error {
	var path, err = s.path(name)
	if err != nil {
		return err
	}
	b, err := EncodeSnapshot(arr)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(s.Dir, ".put-*")
	if err != nil {
		return errors.WithMessage(err, "creating temp file")
	}
	defer os.Remove(f.Name()) // Fails harmlessly after a successful rename.

	if _, err = f.Write(b); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(f.Name(), path)
	}
	if err != nil {
		return errors.WithMessagef(err, "writing array %q", name)
	}

	log.WithFields(log.Fields{
		"name":  name,
		"bytes": len(b),
		"path":  path,
	}).Debug("stored array")
	return nil
}

func (s *FileStore) Get(_ context.Context, name string) (*hll.CounterArray, error) {
	var path, err = s.path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.WithMessagef(ErrNotFound, "array %q", name)
	} else if err != nil {
		return nil, errors.WithMessagef(err, "reading array %q", name)
	}
	arr, err := DecodeSnapshot(b)
	if err != nil {
		return nil, errors.WithMessagef(err, "decoding array %q", name)
	}
	return arr, nil
}

func (s *FileStore) List(_ context.Context, prefix string) ([]string, error) {
	var entries, err = os.ReadDir(s.Dir)
	if err != nil {
		return nil, errors.WithMessage(err, "reading store directory")
	}
	var out []string

	for _, e := range entries {
		var fname = e.Name()
		if e.IsDir() || !strings.HasSuffix(fname, FileSuffix) {
			continue
		}
		key, err := hex.DecodeString(strings.TrimSuffix(fname, FileSuffix))
		if err != nil {
			continue // Not a store file.
		}
		name, err := DecodeArrayKey(key)
		if err != nil {
			log.WithFields(log.Fields{"file": fname, "err": err}).Warn("skipping malformed store file")
			continue
		}
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	var path, err = s.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return errors.WithMessagef(ErrNotFound, "array %q", name)
	}
	return err
}

func (s *FileStore) Close() error { return nil }
