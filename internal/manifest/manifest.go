// Package manifest implements the per-snapshot manifest (C7) and the
// snapshot chain (C8), grounded on original_source's storage/
// manifest.rs Manifest.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KingTimer12/saveme-config/internal/blobchain"
	"github.com/KingTimer12/saveme-config/internal/errs"
	"github.com/KingTimer12/saveme-config/internal/perfconfig"
)

// Manifest is the per-snapshot record described in spec.md section 3.
type Manifest struct {
	Name                string                        `json:"name"`
	CreatedAt           string                        `json:"created_at"`
	OSSource            string                        `json:"os_source"`
	Entries            []Entry                       `json:"entries"`
	Blobs              map[string]*blobchain.Payload `json:"blobs"`
	PreviousBackupHash *string                       `json:"previous_backup_hash"`
	BackupChainHash    *string                       `json:"backup_chain_hash"`
}

// New returns an empty manifest for a new snapshot.
func New(name, createdAt, osSource string) *Manifest {
	return &Manifest{
		Name:      name,
		CreatedAt: createdAt,
		OSSource:  osSource,
		Blobs:     map[string]*blobchain.Payload{},
	}
}

func manifestPath(storeRoot, name string) string {
	return filepath.Join(storeRoot, name, "manifest.json")
}

func snapshotDir(storeRoot, name string) string {
	return filepath.Join(storeRoot, name)
}

// Load reads a manifest by name from storeRoot, then — per
// SPEC_FULL.md section 3's supplemental rehydration rule — scans the
// snapshot's blobs/ directory and adds every blob file missing from the
// inline Blobs map, whether or not an entry references it.
func Load(storeRoot, name string) (*Manifest, error) {
	path := manifestPath(storeRoot, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, path, err)
	}

	var m Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, errs.Wrap(errs.IOError, path, err)
	}
	if m.Blobs == nil {
		m.Blobs = map[string]*blobchain.Payload{}
	}

	if err := m.ingestBlobsDir(storeRoot); err != nil {
		return nil, err
	}
	return &m, nil
}

// ingestBlobsDir rehydrates m.Blobs from any <blob_id>.tar[.zst] files
// present under the snapshot's blobs/ directory that aren't already
// present in the inline map.
func (m *Manifest) ingestBlobsDir(storeRoot string) error {
	blobsDir := filepath.Join(snapshotDir(storeRoot, m.Name), "blobs")
	entries, err := os.ReadDir(blobsDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errs.Wrap(errs.IOError, blobsDir, err)
	}

	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()

		var format blobchain.Format
		switch {
		case strings.HasSuffix(name, ".tar.zst"):
			format = blobchain.FormatTarZst
		case strings.HasSuffix(name, ".tar"):
			format = blobchain.FormatTar
		default:
			continue
		}

		blobID := strings.SplitN(name, ".", 2)[0]
		if _, already := m.Blobs[blobID]; already {
			continue
		}

		data, err := os.ReadFile(filepath.Join(blobsDir, name))
		if err != nil {
			return errs.Wrap(errs.IOError, name, err)
		}
		m.Blobs[blobID] = blobchain.New(format, data)
	}
	return nil
}

// Save finalizes the snapshot chain hash (FinalizeChainHash) and
// writes the manifest as pretty-printed JSON to
// <store_root>/<name>/manifest.json.
func (m *Manifest) Save(storeRoot string) error {
	if err := FinalizeChainHash(storeRoot, m); err != nil {
		return err
	}

	dir := snapshotDir(storeRoot, m.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.IOError, dir, err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errs.Wrap(errs.IOError, "marshal manifest", err)
	}

	path := manifestPath(storeRoot, m.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.IOError, path, err)
	}
	return nil
}

// blobByContent scans blobs for a payload whose ContentSHA256 matches
// contentHash, with no metrics side effect — the shared, uninstrumented
// core used by both dedup tiers below.
func blobByContent(blobs map[string]*blobchain.Payload, contentHash string) (string, bool) {
	for blobID, blob := range blobs {
		if blob.ContentSHA256 == contentHash {
			return blobID, true
		}
	}
	return "", false
}

// FindExistingBlobByContent scans m.Blobs for a payload whose
// ContentSHA256 matches contentHash (within-manifest dedup, C5 tier 1).
// A hit here is resolved entirely in memory, with no disk scan.
func (m *Manifest) FindExistingBlobByContent(contentHash string) (string, bool) {
	blobID, ok := blobByContent(m.Blobs, contentHash)
	if ok {
		perfconfig.GlobalMetrics().CacheHits.Inc()
	} else {
		perfconfig.GlobalMetrics().CacheMisses.Inc()
	}
	return blobID, ok
}

// FindExistingBlobAcrossSnapshots implements the cross-snapshot dedup
// tier (C5 tier 2): it iterates every snapshot directory under
// storeRoot in sorted order and returns the first (snapshot, blob_id)
// whose manifest contains a blob with the given content hash.
func FindExistingBlobAcrossSnapshots(storeRoot, contentHash string) (snapshotName, blobID string, found bool, err error) {
	names, err := ListAllBackupsSorted(storeRoot)
	if err != nil {
		return "", "", false, err
	}

	for _, name := range names {
		m, loadErr := Load(storeRoot, name)
		if loadErr != nil {
			return "", "", false, loadErr
		}
		if id, ok := blobByContent(m.Blobs, contentHash); ok {
			perfconfig.GlobalMetrics().CacheHits.Inc()
			return name, id, true, nil
		}
	}
	perfconfig.GlobalMetrics().CacheMisses.Inc()
	return "", "", false, nil
}

// ListAllBackupsSorted discovers every snapshot directory under
// storeRoot (those containing a manifest.json) and returns their names
// sorted by created_at ascending, per spec.md section 4.7.
func ListAllBackupsSorted(storeRoot string) ([]string, error) {
	des, err := os.ReadDir(storeRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.IOError, storeRoot, err)
	}

	type candidate struct {
		name      string
		createdAt string
	}
	var candidates []candidate
	for _, de := range des {
		if !de.IsDir() {
			continue
		}
		if _, statErr := os.Stat(manifestPath(storeRoot, de.Name())); statErr != nil {
			continue
		}
		m, loadErr := Load(storeRoot, de.Name())
		createdAt := ""
		if loadErr == nil {
			createdAt = m.CreatedAt
		}
		candidates = append(candidates, candidate{name: de.Name(), createdAt: createdAt})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].createdAt < candidates[j].createdAt
	})

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names, nil
}
