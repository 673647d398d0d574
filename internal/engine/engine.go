// Package engine implements the top-level operations (C10, spec.md
// section 4.9) consumed by a front-end: a plain Go API wrapping the
// manifest, ingest, restore, apps and chain packages, grounded on
// original_source's lib.rs command surface and the teacher's
// repository.go facade over its blob/manifest/tag stores.
package engine

import (
	"runtime"
	"time"

	"github.com/KingTimer12/saveme-config/internal/apps"
	"github.com/KingTimer12/saveme-config/internal/dcontext"
	"github.com/KingTimer12/saveme-config/internal/errs"
	"github.com/KingTimer12/saveme-config/internal/ingest"
	"github.com/KingTimer12/saveme-config/internal/manifest"
	"github.com/KingTimer12/saveme-config/internal/restore"
)

// Engine exposes the store's top-level operations rooted at a single
// storeRoot directory.
type Engine struct {
	StoreRoot string
}

// New returns an Engine rooted at storeRoot.
func New(storeRoot string) *Engine {
	return &Engine{StoreRoot: storeRoot}
}

// SnapshotInfo is the summary view returned by ListSnapshots.
type SnapshotInfo struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// ChainInfo is returned by GetBackupChainInfo.
type ChainInfo struct {
	Name               string  `json:"name"`
	BackupHash         string  `json:"backup_hash"`
	ChainHash          string  `json:"chain_hash"`
	PreviousBackupHash *string `json:"previous_backup_hash"`
	IsIntegrityValid   bool    `json:"is_integrity_valid"`
}

// ListApplications returns every registered application adapter's
// summary info.
func (e *Engine) ListApplications() []apps.Info {
	return apps.ListInfo()
}

// SaveConfig ingests the config paths of every installed app in appIDs
// into a new snapshot named name, links it into the snapshot chain,
// and persists the manifest.
func (e *Engine) SaveConfig(ctx dcontext.Context, name string, appIDs []string) error {
	logger := dcontext.WithField(ctx, "snapshot", name)

	m := manifest.New(name, time.Now().UTC().Format(time.RFC3339), runtime.GOOS)

	for _, appID := range appIDs {
		app, ok := apps.Get(appID)
		if !ok {
			logger.Warnf("unknown application %s; skipping", appID)
			continue
		}
		if !app.IsInstalled() {
			logger.Warnf("%s is not installed; skipping", app.Name())
			continue
		}

		paths, err := app.ConfigPaths()
		if err != nil {
			return err
		}

		for _, path := range paths {
			if err := ingest.Ingest(ctx, e.StoreRoot, m, ingest.Source{
				Path:        path,
				TargetHint:  app.TargetHint(),
				LogicalPath: path,
			}); err != nil {
				return err
			}
		}
	}

	return m.Save(e.StoreRoot)
}

// ListSnapshots scans the store root for every persisted manifest.
func (e *Engine) ListSnapshots() ([]SnapshotInfo, error) {
	names, err := manifest.ListAllBackupsSorted(e.StoreRoot)
	if err != nil {
		return nil, err
	}

	infos := make([]SnapshotInfo, 0, len(names))
	for _, name := range names {
		m, err := manifest.Load(e.StoreRoot, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, SnapshotInfo{Name: m.Name, CreatedAt: m.CreatedAt})
	}
	return infos, nil
}

// RestoreConfig restores every application in appIDs from backupName's
// snapshot, per spec.md section 4.6.
func (e *Engine) RestoreConfig(ctx dcontext.Context, backupName string, appIDs []string) error {
	pipeline, err := restore.Load(e.StoreRoot, backupName)
	if err != nil {
		return err
	}
	for _, appID := range appIDs {
		if err := pipeline.RestoreApp(ctx, appID); err != nil {
			return err
		}
	}
	return nil
}

// VerifyBackupIntegrity recomputes backupName's canonical and chain
// hashes and reports whether they reproduce the stored values.
func (e *Engine) VerifyBackupIntegrity(backupName string) (bool, error) {
	m, err := manifest.Load(e.StoreRoot, backupName)
	if err != nil {
		return false, err
	}
	return m.VerifyBackupIntegrity(), nil
}

// VerifyBackupChain walks the snapshot chain starting at startName.
func (e *Engine) VerifyBackupChain(startName string) (bool, error) {
	return manifest.VerifyChainFrom(e.StoreRoot, startName)
}

// GetBackupChainInfo returns backupName's chain linkage summary.
func (e *Engine) GetBackupChainInfo(backupName string) (*ChainInfo, error) {
	m, err := manifest.Load(e.StoreRoot, backupName)
	if err != nil {
		return nil, err
	}
	if m.BackupChainHash == nil {
		return nil, errs.New(errs.BrokenChain, backupName+" has no chain hash")
	}
	return &ChainInfo{
		Name:               m.Name,
		BackupHash:         m.CanonicalBackupHash(),
		ChainHash:          *m.BackupChainHash,
		PreviousBackupHash: m.PreviousBackupHash,
		IsIntegrityValid:   m.VerifyBackupIntegrity(),
	}, nil
}
