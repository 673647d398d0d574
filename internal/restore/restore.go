// Package restore implements the restore pipeline (C9, spec.md
// section 4.6): loading a manifest, resolving application
// destinations, decoding/decompressing blobs, and materializing
// entries either as a single tar member or a whole extracted tree.
package restore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KingTimer12/saveme-config/internal/apps"
	"github.com/KingTimer12/saveme-config/internal/blobchain"
	"github.com/KingTimer12/saveme-config/internal/compress"
	"github.com/KingTimer12/saveme-config/internal/dcontext"
	"github.com/KingTimer12/saveme-config/internal/errs"
	"github.com/KingTimer12/saveme-config/internal/installer"
	"github.com/KingTimer12/saveme-config/internal/manifest"
	"github.com/KingTimer12/saveme-config/internal/pack"
	"github.com/KingTimer12/saveme-config/internal/perfconfig"
)

// EntryDest pairs a manifest entry with the destination path it
// should be materialized at — the unit of work for RestoreBatch.
type EntryDest struct {
	Entry manifest.Entry
	Dest  string
}

// Pipeline drives the restore of one snapshot's manifest.
type Pipeline struct {
	StoreRoot string
	Manifest  *manifest.Manifest
}

// Load opens storeRoot/name's manifest and returns a Pipeline ready to
// restore from it.
func Load(storeRoot, name string) (*Pipeline, error) {
	m, err := manifest.Load(storeRoot, name)
	if err != nil {
		return nil, err
	}
	return &Pipeline{StoreRoot: storeRoot, Manifest: m}, nil
}

// decodedBlob returns a blob's decompressed tar bytes.
func decodedBlob(payload *blobchain.Payload) ([]byte, error) {
	if !payload.Format.Valid() {
		return nil, errs.New(errs.UnknownFormat, string(payload.Format))
	}
	if payload.Format == blobchain.FormatTar {
		return payload.Data, nil
	}
	return compress.Decompress(payload.Data)
}

// restoreEntry materializes a single manifest entry at dest: a single
// tar member written atomically via a temp-file rename, or — when the
// entry has no tar_member — the whole tree extracted into a staging
// directory and atomically renamed into dest.
func (p *Pipeline) restoreEntry(entry manifest.Entry, dest string) error {
	payload, ok := p.Manifest.Blobs[entry.BlobID]
	if !ok {
		return errs.New(errs.MissingBlob, entry.BlobID)
	}

	tarBytes, err := decodedBlob(payload)
	if err != nil {
		return err
	}

	if entry.TarMember == nil {
		stage := StageDirectory(dest)
		if err := os.MkdirAll(stage, 0o755); err != nil {
			return errs.Wrap(errs.IOError, stage, err)
		}
		if err := pack.ExtractAll(tarBytes, stage); err != nil {
			os.RemoveAll(stage)
			return err
		}
		if err := os.RemoveAll(dest); err != nil {
			os.RemoveAll(stage)
			return errs.Wrap(errs.IOError, dest, err)
		}
		if err := os.Rename(stage, dest); err != nil {
			os.RemoveAll(stage)
			return errs.Wrap(errs.IOError, dest, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.Wrap(errs.IOError, dest, err)
	}

	r, size, err := pack.ExtractMember(tarBytes, *entry.TarMember)
	if err != nil {
		return err
	}

	tmp := dest + ".tmp.part"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errs.Wrap(errs.IOError, tmp, err)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		out.Close()
		return errs.Wrap(errs.IOError, tmp, err)
	}
	if _, err := out.Write(buf); err != nil {
		out.Close()
		return errs.Wrap(errs.IOError, tmp, err)
	}
	if err := out.Close(); err != nil {
		return errs.Wrap(errs.IOError, tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return errs.Wrap(errs.IOError, dest, err)
	}
	return nil
}

// RestoreApp restores every entry whose target_hint matches the given
// application id, installing the application first if it is missing
// but has a known package id, per spec.md section 4.6 steps 2-4.
func (p *Pipeline) RestoreApp(ctx dcontext.Context, appID string) error {
	logger := dcontext.WithField(ctx, "app_id", appID)

	app, ok := apps.Get(appID)
	if !ok {
		return errs.New(errs.ResolveError, "unknown application: "+appID)
	}

	if !app.IsInstalled() {
		if _, hasPackage := app.PackageID(); !hasPackage {
			logger.Warnf("%s is not installed and has no package id; skipping", app.Name())
			return nil
		}
		if err := installer.Install(ctx, appID); err != nil {
			return err
		}
	}

	destPaths, err := app.ConfigPaths()
	if err != nil {
		return err
	}

	targetHint := app.TargetHint()
	var pairs []EntryDest
	for _, entry := range p.Manifest.Entries {
		if entry.TargetHint != targetHint {
			continue
		}
		for _, dest := range destPaths {
			pairs = append(pairs, EntryDest{Entry: entry, Dest: dest})
		}
	}

	return p.RestoreBatch(ctx, pairs)
}

// RestoreBatch extracts a set of independent (entry, dest) pairs known
// not to alias, concurrently, bounded by the global thread count
// (spec.md section 5, item 3). The first failure cancels the rest of
// the batch: pairs not yet started are skipped, pairs already running
// finish. No attempt is made to roll back writes that already
// completed (spec.md section 7).
func (p *Pipeline) RestoreBatch(ctx dcontext.Context, pairs []EntryDest) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInt(perfconfig.Global().ThreadCount, 1))

	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return p.restoreEntry(pair.Entry, pair.Dest)
		})
	}
	return g.Wait()
}

// StageDirectory returns a fresh staging path beside dest, mirroring
// the single-member temp+rename pattern for whole-tree extraction: the
// tree is extracted into isolation, then moved into place atomically.
func StageDirectory(dest string) string {
	return filepath.Join(filepath.Dir(dest), ".restage-"+uuid.NewString())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
