package blobchain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestNewComputesContentSHA256(t *testing.T) {
	data := []byte("hello world")
	p := New(FormatTar, data)

	sum := sha256.Sum256(data)
	want := hex.EncodeToString(sum[:])
	if p.ContentSHA256 != want {
		t.Fatalf("ContentSHA256 = %q, want %q", p.ContentSHA256, want)
	}
	if p.Size != uint64(len(data)) {
		t.Fatalf("Size = %d, want %d", p.Size, len(data))
	}
}

func TestFinalizeAndVerifyIntegrity(t *testing.T) {
	p := New(FormatTarZst, []byte("payload bytes"))
	if err := p.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if p.BlobChainHash == nil {
		t.Fatal("BlobChainHash not set after Finalize")
	}
	if !p.VerifyIntegrity() {
		t.Fatal("VerifyIntegrity() = false for a freshly finalized payload")
	}

	// finalizing twice is a programming error
	if err := p.Finalize(nil); err == nil {
		t.Fatal("expected error finalizing an already-finalized payload")
	}
}

func TestFinalizeChainsToPrevious(t *testing.T) {
	first := New(FormatTar, []byte("one"))
	if err := first.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	second := New(FormatTar, []byte("two"))
	if err := second.Finalize(first.BlobChainHash); err != nil {
		t.Fatal(err)
	}

	if second.PreviousBlobHash == nil || *second.PreviousBlobHash != *first.BlobChainHash {
		t.Fatalf("second.PreviousBlobHash = %v, want %v", second.PreviousBlobHash, first.BlobChainHash)
	}
	if !second.VerifyIntegrity() {
		t.Fatal("VerifyIntegrity() = false for chained payload")
	}
}

func TestVerifyIntegrityDetectsTamper(t *testing.T) {
	p := New(FormatTar, []byte("tamper me"))
	if err := p.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	// tamper with the payload bytes while leaving stored hashes alone
	p.Data = []byte("tampered!")

	if p.VerifyIntegrity() {
		t.Fatal("VerifyIntegrity() = true after tampering with payload bytes")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	p := New(FormatTarZst, []byte{0x00, 0x01, 0xFF, 0x10})
	if err := p.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out Payload
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.ContentSHA256 != p.ContentSHA256 || out.Format != p.Format || out.Size != p.Size {
		t.Fatalf("round-trip mismatch: %+v != %+v", out, p)
	}
	if *out.BlobChainHash != *p.BlobChainHash {
		t.Fatalf("BlobChainHash round-trip mismatch: %q != %q", *out.BlobChainHash, *p.BlobChainHash)
	}
	if !out.VerifyIntegrity() {
		t.Fatal("VerifyIntegrity() = false after JSON round-trip")
	}
}
