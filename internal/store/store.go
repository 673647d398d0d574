// Package store implements the content store (C2): a flat per-snapshot
// directory of blob files named by their content hash, adapted from
// the teacher's registry/storage/driver/filesystem Driver — the same
// "root directory, path-joined subpaths, atomic write via temp file +
// rename" idiom, reduced to the single local backend this spec needs
// (the teacher's pluggable storagedriver.StorageDriver factory exists
// to support many remote backends, which is out of scope here: see
// SPEC_FULL.md section 4.3).
package store

import (
	"os"
	"path/filepath"

	"github.com/KingTimer12/saveme-config/internal/blobchain"
	"github.com/KingTimer12/saveme-config/internal/errs"
)

// ContentStore is rooted at storeRoot/snapshotName/blobs.
type ContentStore struct {
	storeRoot    string
	snapshotName string
}

// New returns a ContentStore for the given snapshot under storeRoot.
func New(storeRoot, snapshotName string) *ContentStore {
	return &ContentStore{storeRoot: storeRoot, snapshotName: snapshotName}
}

func (s *ContentStore) blobsDir() string {
	return filepath.Join(s.storeRoot, s.snapshotName, "blobs")
}

// Path returns the on-disk path for a blob id in the given format.
func (s *ContentStore) Path(blobID string, format blobchain.Format) string {
	return filepath.Join(s.blobsDir(), blobID+"."+string(format))
}

// Exists reports whether a blob file for blobID/format is already on
// disk.
func (s *ContentStore) Exists(blobID string, format blobchain.Format) (bool, error) {
	_, err := os.Stat(s.Path(blobID, format))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errs.Wrap(errs.IOError, s.Path(blobID, format), err)
}

// Put writes data under blobID/format, creating parent directories as
// needed. Put is idempotent: if the file already exists it is left
// untouched (write-once content addressing, spec.md section 4.3).
func (s *ContentStore) Put(blobID string, format blobchain.Format, data []byte) error {
	if err := os.MkdirAll(s.blobsDir(), 0o755); err != nil {
		return errs.Wrap(errs.IOError, s.blobsDir(), err)
	}

	path := s.Path(blobID, format)
	exists, err := s.Exists(blobID, format)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.IOError, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.IOError, path, err)
	}
	return nil
}

// Get reads the blob file for blobID/format.
func (s *ContentStore) Get(blobID string, format blobchain.Format) ([]byte, error) {
	data, err := os.ReadFile(s.Path(blobID, format))
	if err != nil {
		return nil, errs.Wrap(errs.IOError, s.Path(blobID, format), err)
	}
	return data, nil
}
