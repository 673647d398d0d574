// Package chainsidecar implements the per-snapshot blob chain (C6): the
// in-memory BlobChainMetadata structure and its encrypted on-disk
// sidecar, grounded on original_source's storage/blob_chain.rs
// BlobChainMetadata/BlobChainManager.
package chainsidecar

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/KingTimer12/saveme-config/internal/blobchain"
)

// Metadata is the per-snapshot blob chain sidecar structure (spec.md
// section 3, C6).
type Metadata struct {
	ChainOrder        []string          `json:"chain_order"`
	BlobPositions     map[string]uint64 `json:"blob_positions"`
	BlobChainHashes   map[string]string `json:"blob_chain_hashes"`
	ChainIntegrityHash string           `json:"chain_integrity_hash"`
	LastUpdated       string            `json:"last_updated"`

	// now is overridable for deterministic tests; nil means time.Now.
	now func() time.Time
}

// NewMetadata returns an empty sidecar structure.
func NewMetadata() *Metadata {
	m := &Metadata{
		BlobPositions:   map[string]uint64{},
		BlobChainHashes: map[string]string{},
	}
	m.touch()
	m.updateIntegrityHash()
	return m
}

func (m *Metadata) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *Metadata) touch() {
	m.LastUpdated = m.clock().UTC().Format(time.RFC3339)
}

// AddBlob appends blobID to the chain with its (already finalized)
// blob_chain_hash, updates the reverse index, and recomputes the
// integrity hash.
func (m *Metadata) AddBlob(blobID, blobChainHash string) {
	position := uint64(len(m.ChainOrder))
	m.BlobPositions[blobID] = position
	m.ChainOrder = append(m.ChainOrder, blobID)
	m.BlobChainHashes[blobID] = blobChainHash
	m.touch()
	m.updateIntegrityHash()
}

func (m *Metadata) updateIntegrityHash() {
	h := sha256.New()
	for _, blobID := range m.ChainOrder {
		h.Write([]byte(blobID))
	}
	m.ChainIntegrityHash = hex.EncodeToString(h.Sum(nil))
}

// PreviousChainHash returns the blob_chain_hash expected to precede the
// blob at the given chain position, or nil for position 0.
func (m *Metadata) PreviousChainHash(position uint64) *string {
	if position == 0 {
		return nil
	}
	prevID := m.ChainOrder[position-1]
	hash, ok := m.BlobChainHashes[prevID]
	if !ok {
		return nil
	}
	return &hash
}

// VerifyIntegrity recomputes chain_integrity_hash from chain_order and
// reports whether it matches the stored value (invariant C6-1).
func (m *Metadata) VerifyIntegrity() bool {
	h := sha256.New()
	for _, blobID := range m.ChainOrder {
		h.Write([]byte(blobID))
	}
	return hex.EncodeToString(h.Sum(nil)) == m.ChainIntegrityHash
}

// VerifyBlobChain implements spec.md section 4.8's verify_blob_chain
// algorithm: metadata integrity, blob presence, and per-position chain
// linkage and hash consistency.
func VerifyBlobChain(m *Metadata, blobs map[string]*blobchain.Payload) bool {
	if !m.VerifyIntegrity() {
		return false
	}

	for _, blobID := range m.ChainOrder {
		if _, ok := blobs[blobID]; !ok {
			return false
		}
	}

	for i, blobID := range m.ChainOrder {
		blob := blobs[blobID]

		if !blob.VerifyIntegrity() {
			return false
		}

		expectedPrev := m.PreviousChainHash(uint64(i))
		if !equalOptionalString(blob.PreviousBlobHash, expectedPrev) {
			return false
		}

		if blob.BlobChainHash == nil {
			return false
		}
		storedHash, ok := m.BlobChainHashes[blobID]
		if !ok || storedHash != *blob.BlobChainHash {
			return false
		}
	}

	return true
}

func equalOptionalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
