// Package blobchain implements the content-addressed blob payload (C1)
// and its per-snapshot chain hash, grounded on original_source's
// storage/blobs.rs BlobPayload and the teacher's use of
// opencontainers/go-digest for canonical content hashing.
package blobchain

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	digest "github.com/opencontainers/go-digest"
)

// Format identifies a blob's packaging.
type Format string

const (
	FormatTar    Format = "tar"
	FormatTarZst Format = "tar.zst"
)

// Valid reports whether f is one of the formats the restore pipeline
// understands.
func (f Format) Valid() bool {
	return f == FormatTar || f == FormatTarZst
}

// Payload is an immutable-once-finalized content-addressed blob, as
// specified in spec.md section 3 (C1).
type Payload struct {
	Format           Format
	ContentSHA256    string
	Size             uint64
	Data             []byte
	PreviousBlobHash *string
	BlobChainHash    *string
}

// New builds a Payload from its packaged (and possibly compressed)
// bytes. The chain hash is not yet finalized; call Finalize to chain it
// behind a predecessor.
func New(format Format, data []byte) *Payload {
	dgst := digest.FromBytes(data)
	return &Payload{
		Format:        format,
		ContentSHA256: dgst.Encoded(),
		Size:          uint64(len(data)),
		Data:          data,
	}
}

// contentIdentityHash computes SHA256(format ‖ content_sha256 ‖
// size_little_endian_u64 ‖ payload_base64), as specified in section 3.
func (p *Payload) contentIdentityHash() string {
	h := sha256.New()
	h.Write([]byte(p.Format))
	h.Write([]byte(p.ContentSHA256))
	var sizeLE [8]byte
	binary.LittleEndian.PutUint64(sizeLE[:], p.Size)
	h.Write(sizeLE[:])
	h.Write([]byte(base64.StdEncoding.EncodeToString(p.Data)))
	return hex.EncodeToString(h.Sum(nil))
}

func chainHash(previous *string, identity string) string {
	h := sha256.New()
	if previous != nil {
		h.Write([]byte(*previous))
	}
	h.Write([]byte(identity))
	return hex.EncodeToString(h.Sum(nil))
}

// Finalize computes and stores the blob's chain hash given the chain
// hash of the preceding blob in this snapshot's blob chain (nil for the
// genesis blob). Finalize must be called exactly once; calling it again
// is a programming error since blob_chain_hash is immutable once set
// (invariant B1).
func (p *Payload) Finalize(previousBlobHash *string) error {
	if p.BlobChainHash != nil {
		return fmt.Errorf("blobchain: payload already finalized")
	}
	p.PreviousBlobHash = previousBlobHash
	hash := chainHash(previousBlobHash, p.contentIdentityHash())
	p.BlobChainHash = &hash
	return nil
}

// VerifyIntegrity recomputes the blob's chain hash from its other
// fields and reports whether it reproduces the stored value
// (invariant B1, property P3).
func (p *Payload) VerifyIntegrity() bool {
	if p.BlobChainHash == nil {
		return false
	}
	expected := chainHash(p.PreviousBlobHash, p.contentIdentityHash())
	return expected == *p.BlobChainHash
}
