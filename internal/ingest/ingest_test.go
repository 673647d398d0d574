package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KingTimer12/saveme-config/internal/dcontext"
	"github.com/KingTimer12/saveme-config/internal/manifest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestIngestSingleFile(t *testing.T) {
	storeRoot := t.TempDir()
	srcDir := t.TempDir()
	srcFile := filepath.Join(srcDir, "settings.json")
	writeFile(t, srcFile, `{"theme":"dark"}`)

	m := manifest.New("snap-1", "2026-01-01T00:00:00Z", "linux")
	ctx := dcontext.Background()

	err := Ingest(ctx, storeRoot, m, Source{
		Path:        srcFile,
		TargetHint:  "app:vscode",
		LogicalPath: srcFile,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(m.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.Entries))
	}
	if len(m.Blobs) != 1 {
		t.Fatalf("expected 1 blob, got %d", len(m.Blobs))
	}
	entry := m.Entries[0]
	if entry.TarMember == nil || *entry.TarMember != "settings.json" {
		t.Fatalf("expected tar_member settings.json, got %v", entry.TarMember)
	}
	blob, ok := m.Blobs[entry.BlobID]
	if !ok || blob.BlobChainHash == nil {
		t.Fatal("expected finalized blob in manifest")
	}
}

func TestIngestWithinManifestDedup(t *testing.T) {
	storeRoot := t.TempDir()

	// Same basename and content in two directories: the packed tar (whose
	// member name is the basename) is byte-identical for both.
	fileA := filepath.Join(t.TempDir(), "settings.json")
	fileB := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, fileA, `{"same":true}`)
	writeFile(t, fileB, `{"same":true}`)

	m := manifest.New("snap-1", "2026-01-01T00:00:00Z", "linux")
	ctx := dcontext.Background()

	if err := Ingest(ctx, storeRoot, m, Source{Path: fileA, TargetHint: "app:vscode", LogicalPath: fileA}); err != nil {
		t.Fatalf("ingest a: %v", err)
	}
	if err := Ingest(ctx, storeRoot, m, Source{Path: fileB, TargetHint: "app:vscode", LogicalPath: fileB}); err != nil {
		t.Fatalf("ingest b: %v", err)
	}

	if len(m.Blobs) != 1 {
		t.Fatalf("expected identical content to dedup to 1 blob, got %d", len(m.Blobs))
	}
	if len(m.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.Entries))
	}
	if m.Entries[0].BlobID != m.Entries[1].BlobID {
		t.Fatal("expected both entries to reference the same blob id")
	}
}

func TestIngestCrossSnapshotDedup(t *testing.T) {
	storeRoot := t.TempDir()
	srcDir := t.TempDir()
	ctx := dcontext.Background()

	shared := filepath.Join(srcDir, "shared.json")
	writeFile(t, shared, `{"shared":true}`)

	first := manifest.New("snap-1", "2026-01-01T00:00:00Z", "linux")
	if err := Ingest(ctx, storeRoot, first, Source{Path: shared, TargetHint: "app:vscode", LogicalPath: shared}); err != nil {
		t.Fatalf("ingest into first: %v", err)
	}
	if err := first.Save(storeRoot); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := manifest.New("snap-2", "2026-01-02T00:00:00Z", "linux")
	if err := Ingest(ctx, storeRoot, second, Source{Path: shared, TargetHint: "app:vscode", LogicalPath: shared}); err != nil {
		t.Fatalf("ingest into second: %v", err)
	}

	if len(second.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(second.Entries))
	}
	if second.Entries[0].BlobID != first.Entries[0].BlobID {
		t.Fatal("expected second snapshot to reuse first snapshot's blob id")
	}
}

func TestIngestChainsBlobs(t *testing.T) {
	storeRoot := t.TempDir()
	srcDir := t.TempDir()
	ctx := dcontext.Background()

	fileA := filepath.Join(srcDir, "a.json")
	fileB := filepath.Join(srcDir, "b.json")
	writeFile(t, fileA, `{"a":1}`)
	writeFile(t, fileB, `{"b":2}`)

	m := manifest.New("snap-1", "2026-01-01T00:00:00Z", "linux")
	if err := Ingest(ctx, storeRoot, m, Source{Path: fileA, TargetHint: "app:vscode", LogicalPath: fileA}); err != nil {
		t.Fatalf("ingest a: %v", err)
	}
	if err := Ingest(ctx, storeRoot, m, Source{Path: fileB, TargetHint: "app:vscode", LogicalPath: fileB}); err != nil {
		t.Fatalf("ingest b: %v", err)
	}

	blobA := m.Blobs[m.Entries[0].BlobID]
	blobB := m.Blobs[m.Entries[1].BlobID]
	if blobA.PreviousBlobHash != nil {
		t.Fatal("expected genesis blob to have no previous hash")
	}
	if blobB.PreviousBlobHash == nil || *blobB.PreviousBlobHash != *blobA.BlobChainHash {
		t.Fatal("expected second blob to chain behind the first")
	}
}
