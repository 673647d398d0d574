package manifest

import (
	"testing"

	"github.com/KingTimer12/saveme-config/internal/blobchain"
)

func addBlob(t *testing.T, m *Manifest, logicalPath string, data []byte) string {
	t.Helper()
	payload := blobchain.New(blobchain.FormatTar, data)
	blobID := payload.ContentSHA256
	m.Blobs[blobID] = payload
	m.Entries = append(m.Entries, Entry{
		TargetHint:  "config",
		LogicalPath: logicalPath,
		BlobID:      blobID,
	})
	return blobID
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	m := New("snap-1", "2026-01-01T00:00:00Z", "linux")
	addBlob(t, m, "a.txt", []byte("hello"))

	if err := m.Save(root); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if m.BackupChainHash == nil {
		t.Fatal("expected backup chain hash to be set")
	}

	loaded, err := Load(root, "snap-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != m.Name || len(loaded.Entries) != 1 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if loaded.BackupChainHash == nil || *loaded.BackupChainHash != *m.BackupChainHash {
		t.Fatal("backup chain hash did not survive round trip")
	}
}

func TestGenesisHasNoPreviousHash(t *testing.T) {
	root := t.TempDir()
	m := New("snap-1", "2026-01-01T00:00:00Z", "linux")
	addBlob(t, m, "a.txt", []byte("hello"))

	if err := m.Save(root); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if m.PreviousBackupHash != nil {
		t.Fatalf("genesis snapshot should have no previous hash, got %v", *m.PreviousBackupHash)
	}
}

func TestChainLinksAcrossSnapshots(t *testing.T) {
	root := t.TempDir()

	first := New("snap-1", "2026-01-01T00:00:00Z", "linux")
	addBlob(t, first, "a.txt", []byte("hello"))
	if err := first.Save(root); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := New("snap-2", "2026-01-02T00:00:00Z", "linux")
	addBlob(t, second, "b.txt", []byte("world"))
	if err := second.Save(root); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	if second.PreviousBackupHash == nil || *second.PreviousBackupHash != *first.BackupChainHash {
		t.Fatal("second snapshot did not chain to first's backup chain hash")
	}

	ok, err := VerifyChainFrom(root, "snap-2")
	if err != nil {
		t.Fatalf("VerifyChainFrom: %v", err)
	}
	if !ok {
		t.Fatal("expected valid chain")
	}
}

func TestVerifyChainDetectsTamper(t *testing.T) {
	root := t.TempDir()

	first := New("snap-1", "2026-01-01T00:00:00Z", "linux")
	addBlob(t, first, "a.txt", []byte("hello"))
	if err := first.Save(root); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := New("snap-2", "2026-01-02T00:00:00Z", "linux")
	addBlob(t, second, "b.txt", []byte("world"))
	if err := second.Save(root); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	reloaded, err := Load(root, "snap-2")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reloaded.OSSource = "tampered"

	if reloaded.VerifyBackupIntegrity() {
		t.Fatal("expected tampered manifest to fail integrity check")
	}
}

func TestCanonicalHashIsOrderIndependent(t *testing.T) {
	a := New("snap", "2026-01-01T00:00:00Z", "linux")
	addBlob(t, a, "a.txt", []byte("hello"))
	addBlob(t, a, "b.txt", []byte("world"))

	b := New("snap", "2026-01-01T00:00:00Z", "linux")
	b.Entries = append([]Entry(nil), a.Entries...)
	// reverse entry order
	b.Entries[0], b.Entries[1] = b.Entries[1], b.Entries[0]
	b.Blobs = map[string]*blobchain.Payload{}
	for id, blob := range a.Blobs {
		b.Blobs[id] = blob
	}

	if a.CanonicalBackupHash() != b.CanonicalBackupHash() {
		t.Fatal("canonical hash should be independent of entry/blob ordering")
	}
}

func TestFindExistingBlobByContent(t *testing.T) {
	m := New("snap", "2026-01-01T00:00:00Z", "linux")
	blobID := addBlob(t, m, "a.txt", []byte("hello"))

	payload := blobchain.New(blobchain.FormatTar, []byte("hello"))
	found, ok := m.FindExistingBlobByContent(payload.ContentSHA256)
	if !ok || found != blobID {
		t.Fatalf("expected to find existing blob %s, got %s ok=%v", blobID, found, ok)
	}
}

func TestFindExistingBlobAcrossSnapshots(t *testing.T) {
	root := t.TempDir()

	first := New("snap-1", "2026-01-01T00:00:00Z", "linux")
	blobID := addBlob(t, first, "a.txt", []byte("shared"))
	if err := first.Save(root); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	payload := blobchain.New(blobchain.FormatTar, []byte("shared"))
	snapName, foundID, found, err := FindExistingBlobAcrossSnapshots(root, payload.ContentSHA256)
	if err != nil {
		t.Fatalf("FindExistingBlobAcrossSnapshots: %v", err)
	}
	if !found || snapName != "snap-1" || foundID != blobID {
		t.Fatalf("expected snap-1/%s, got %s/%s found=%v", blobID, snapName, foundID, found)
	}
}
