package manifest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/KingTimer12/saveme-config/internal/errs"
)

// CanonicalBackupHash computes H_b, the deterministic, order-
// independent hash over a manifest's metadata, entries, and blob
// descriptors (spec.md section 4.7).
func (m *Manifest) CanonicalBackupHash() string {
	h := sha256.New()
	h.Write([]byte(m.Name))
	h.Write([]byte(m.CreatedAt))
	h.Write([]byte(m.OSSource))

	sortedEntries := append([]Entry(nil), m.Entries...)
	sort.Slice(sortedEntries, func(i, j int) bool { return sortedEntries[i].BlobID < sortedEntries[j].BlobID })
	for _, e := range sortedEntries {
		h.Write([]byte(e.BlobID))
		h.Write([]byte(e.TargetHint))
		h.Write([]byte(e.LogicalPath))
		if e.TarMember != nil {
			h.Write([]byte(*e.TarMember))
		}
	}

	blobIDs := make([]string, 0, len(m.Blobs))
	for id := range m.Blobs {
		blobIDs = append(blobIDs, id)
	}
	sort.Strings(blobIDs)
	for _, id := range blobIDs {
		blob := m.Blobs[id]
		h.Write([]byte(id))
		h.Write([]byte(blob.Format))
		h.Write([]byte(blob.ContentSHA256))
		var sizeLE [8]byte
		binary.LittleEndian.PutUint64(sizeLE[:], blob.Size)
		h.Write(sizeLE[:])
	}

	return hex.EncodeToString(h.Sum(nil))
}

func snapshotChainHash(previous *string, canonical string) string {
	h := sha256.New()
	if previous != nil {
		h.Write([]byte(*previous))
	}
	h.Write([]byte(canonical))
	return hex.EncodeToString(h.Sum(nil))
}

// SetPreviousBackup adopts the chain hash of an already-saved snapshot
// as this manifest's previous_backup_hash.
func SetPreviousBackup(storeRoot string, m *Manifest, previousName string) error {
	previous, err := Load(storeRoot, previousName)
	if err != nil {
		return err
	}
	if previous.BackupChainHash == nil {
		return errs.New(errs.BrokenChain, previousName+" has no chain hash")
	}
	m.PreviousBackupHash = previous.BackupChainHash
	return nil
}

// FinalizeChainHash implements spec.md section 4.7's save algorithm:
// if m has no previous_backup_hash yet, it discovers the latest
// snapshot already in the store (by created_at ascending) and, if one
// exists and isn't this same snapshot, adopts its backup_chain_hash.
// It then computes H_b and H_c and stores H_c into backup_chain_hash.
func FinalizeChainHash(storeRoot string, m *Manifest) error {
	if m.PreviousBackupHash == nil {
		names, err := ListAllBackupsSorted(storeRoot)
		if err != nil {
			return err
		}
		if len(names) > 0 {
			latest := names[len(names)-1]
			if latest != m.Name {
				if err := SetPreviousBackup(storeRoot, m, latest); err != nil {
					return err
				}
			}
		}
	}

	canonical := m.CanonicalBackupHash()
	chainHash := snapshotChainHash(m.PreviousBackupHash, canonical)
	m.BackupChainHash = &chainHash
	return nil
}

// VerifyBackupIntegrity recomputes H_b and the expected chain hash and
// reports whether they reproduce m.BackupChainHash (property P4).
func (m *Manifest) VerifyBackupIntegrity() bool {
	if m.BackupChainHash == nil {
		return false
	}
	canonical := m.CanonicalBackupHash()
	expected := snapshotChainHash(m.PreviousBackupHash, canonical)
	return expected == *m.BackupChainHash
}

// VerifyChainFrom implements spec.md section 4.7's verify_chain_from:
// starting at startName, verify each manifest's integrity and follow
// previous_backup_hash to the snapshot whose backup_chain_hash matches
// it, until the genesis snapshot (no previous_backup_hash) is reached.
func VerifyChainFrom(storeRoot, startName string) (bool, error) {
	visited := map[string]bool{}
	currentName := startName

	for {
		if visited[currentName] {
			return false, errs.New(errs.CycleError, currentName)
		}
		visited[currentName] = true

		m, err := Load(storeRoot, currentName)
		if err != nil {
			return false, err
		}

		if !m.VerifyBackupIntegrity() {
			return false, nil
		}

		if m.PreviousBackupHash == nil {
			return true, nil
		}

		names, err := ListAllBackupsSorted(storeRoot)
		if err != nil {
			return false, err
		}

		found := false
		for _, candidateName := range names {
			candidate, err := Load(storeRoot, candidateName)
			if err != nil {
				return false, err
			}
			if candidate.BackupChainHash != nil && *candidate.BackupChainHash == *m.PreviousBackupHash {
				currentName = candidate.Name
				found = true
				break
			}
		}
		if !found {
			return false, errs.New(errs.BrokenChain, "previous backup not found for "+currentName)
		}
	}
}
