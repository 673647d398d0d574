// Package ingest implements the save-path pipeline (spec.md section
// 4.5): packing a source path, compressing it, checking the two-tier
// dedup index, and — on a miss — writing the blob and registering it
// with the snapshot's blob chain. Grounded on original_source's
// storage/manifest.rs save_config, which drives the same packager →
// compressor → dedup → content-store → blob-chain sequence.
package ingest

import (
	"os"
	"path/filepath"
	"time"

	"github.com/KingTimer12/saveme-config/internal/blobchain"
	"github.com/KingTimer12/saveme-config/internal/chainsidecar"
	"github.com/KingTimer12/saveme-config/internal/compress"
	"github.com/KingTimer12/saveme-config/internal/dcontext"
	"github.com/KingTimer12/saveme-config/internal/errs"
	"github.com/KingTimer12/saveme-config/internal/manifest"
	"github.com/KingTimer12/saveme-config/internal/pack"
	"github.com/KingTimer12/saveme-config/internal/perfconfig"
	"github.com/KingTimer12/saveme-config/internal/store"
)

// Source describes one path to ingest into a snapshot.
type Source struct {
	Path        string
	TargetHint  string
	LogicalPath string
}

// Ingest runs the full save-path pipeline for one source against m,
// mutating m's Entries/Blobs in place and persisting the snapshot's
// blob chain sidecar.
func Ingest(ctx dcontext.Context, storeRoot string, m *manifest.Manifest, src Source) error {
	logger := dcontext.WithField(ctx, "target_hint", src.TargetHint)

	tarBytes, err := pack.Pack(src.Path)
	if err != nil {
		return err
	}

	cfg := perfconfig.Global()
	compressStart := time.Now()
	compressed, err := compress.Compress(cfg, tarBytes)
	if err != nil {
		return err
	}
	perfconfig.GlobalMetrics().CompressionTime.Add(float64(time.Since(compressStart).Milliseconds()))

	format := blobchain.FormatTarZst
	payload := blobchain.New(format, compressed)
	contentHash := payload.ContentSHA256

	info, statErr := os.Stat(src.Path)
	isDir := statErr == nil && info.IsDir()
	var tarMember *string
	if !isDir {
		base := filepath.Base(src.Path)
		tarMember = &base
	}

	if snapName, hitBlobID, found, err := manifest.FindExistingBlobAcrossSnapshots(storeRoot, contentHash); err != nil {
		return err
	} else if found {
		logger.Debugf("cross-snapshot dedup hit in %s", snapName)
		if existing, ok := m.FindExistingBlobByContent(contentHash); ok {
			hitBlobID = existing
		} else if _, hasLocal := m.Blobs[hitBlobID]; !hasLocal {
			hitPayload, err := loadBlobFromSnapshot(storeRoot, snapName, hitBlobID)
			if err != nil {
				return err
			}
			m.Blobs[hitBlobID] = hitPayload
		}
		m.Entries = append(m.Entries, manifest.Entry{
			TargetHint:  src.TargetHint,
			LogicalPath: src.LogicalPath,
			BlobID:      hitBlobID,
			TarMember:   tarMember,
		})
		perfconfig.GlobalMetrics().DedupSaves.Inc()
		return nil
	}

	if existing, ok := m.FindExistingBlobByContent(contentHash); ok {
		m.Entries = append(m.Entries, manifest.Entry{
			TargetHint:  src.TargetHint,
			LogicalPath: src.LogicalPath,
			BlobID:      existing,
			TarMember:   tarMember,
		})
		perfconfig.GlobalMetrics().DedupSaves.Inc()
		return nil
	}

	cs := store.New(storeRoot, m.Name)
	if err := cs.Put(contentHash, format, compressed); err != nil {
		return err
	}

	sidecar, err := chainsidecar.Load(storeRoot, m.Name)
	if err != nil {
		return err
	}

	var previousHash *string
	if len(sidecar.ChainOrder) > 0 {
		tail := sidecar.ChainOrder[len(sidecar.ChainOrder)-1]
		if h, ok := sidecar.BlobChainHashes[tail]; ok {
			previousHash = &h
		}
	}

	if err := payload.Finalize(previousHash); err != nil {
		return errs.Wrap(errs.BrokenChain, contentHash, err)
	}

	sidecar.AddBlob(contentHash, *payload.BlobChainHash)
	if err := chainsidecar.Save(storeRoot, m.Name, sidecar); err != nil {
		return err
	}

	m.Blobs[contentHash] = payload
	m.Entries = append(m.Entries, manifest.Entry{
		TargetHint:  src.TargetHint,
		LogicalPath: src.LogicalPath,
		BlobID:      contentHash,
		TarMember:   tarMember,
	})

	perfconfig.GlobalMetrics().FilesProcessed.Inc()
	perfconfig.GlobalMetrics().BytesCompressed.Add(float64(len(compressed)))

	return nil
}

// loadBlobFromSnapshot loads a single blob payload from another
// snapshot's manifest, used to rehydrate a cross-snapshot dedup hit
// into the current manifest's in-memory Blobs map.
func loadBlobFromSnapshot(storeRoot, snapshotName, blobID string) (*blobchain.Payload, error) {
	other, err := manifest.Load(storeRoot, snapshotName)
	if err != nil {
		return nil, err
	}
	payload, ok := other.Blobs[blobID]
	if !ok {
		return nil, errs.New(errs.MissingBlob, blobID)
	}
	return payload, nil
}
