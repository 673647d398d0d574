package chainsidecar

import (
	"testing"

	"github.com/KingTimer12/saveme-config/internal/blobchain"
)

func chainedBlob(t *testing.T, data string, previous *blobchain.Payload) *blobchain.Payload {
	t.Helper()
	p := blobchain.New(blobchain.FormatTarZst, []byte(data))
	var prevHash *string
	if previous != nil {
		prevHash = previous.BlobChainHash
	}
	if err := p.Finalize(prevHash); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := NewMetadata()
	b1 := chainedBlob(t, "one", nil)
	m.AddBlob("blob1", *b1.BlobChainHash)
	b2 := chainedBlob(t, "two", b1)
	m.AddBlob("blob2", *b2.BlobChainHash)

	if err := Save(dir, "snap-1", m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir, "snap-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.ChainOrder) != 2 || loaded.ChainOrder[0] != "blob1" || loaded.ChainOrder[1] != "blob2" {
		t.Fatalf("ChainOrder = %v", loaded.ChainOrder)
	}
	if !loaded.VerifyIntegrity() {
		t.Fatal("VerifyIntegrity() = false after round trip")
	}
}

func TestLoadMissingReturnsFreshMetadata(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir, "does-not-exist")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.ChainOrder) != 0 {
		t.Fatalf("expected empty chain, got %v", m.ChainOrder)
	}
}

func TestVerifyBlobChainThreeBlobs(t *testing.T) {
	m := NewMetadata()
	b1 := chainedBlob(t, "A contents", nil)
	m.AddBlob("A", *b1.BlobChainHash)
	b2 := chainedBlob(t, "B contents", b1)
	m.AddBlob("B", *b2.BlobChainHash)
	b3 := chainedBlob(t, "C contents", b2)
	m.AddBlob("C", *b3.BlobChainHash)

	blobs := map[string]*blobchain.Payload{"A": b1, "B": b2, "C": b3}
	if !VerifyBlobChain(m, blobs) {
		t.Fatal("VerifyBlobChain() = false for a valid chain")
	}

	// S4: replace B's payload bytes with a different but validly-shaped
	// tar.zst blob, leaving the manifest's stored sha256/chain hash
	// fields untouched.
	tampered := blobchain.New(blobchain.FormatTarZst, []byte("completely different contents"))
	tampered.PreviousBlobHash = b2.PreviousBlobHash
	tampered.BlobChainHash = b2.BlobChainHash // stale, now inconsistent with recomputed content identity
	blobs["B"] = tampered

	if VerifyBlobChain(m, blobs) {
		t.Fatal("VerifyBlobChain() = true after tampering with blob B's payload")
	}
}

func TestVerifyBlobChainMissingBlob(t *testing.T) {
	m := NewMetadata()
	b1 := chainedBlob(t, "one", nil)
	m.AddBlob("blob1", *b1.BlobChainHash)
	b2 := chainedBlob(t, "two", b1)
	m.AddBlob("blob2", *b2.BlobChainHash)

	blobs := map[string]*blobchain.Payload{"blob1": b1}
	if VerifyBlobChain(m, blobs) {
		t.Fatal("VerifyBlobChain() = true with a blob missing from the map")
	}
}
