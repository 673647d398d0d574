// Package appdir resolves the per-user data directory the store lives
// under (spec.md section 6.1), keyed to ("com", "you", "saveconfig") in
// the original Rust code via the `directories` crate's ProjectDirs. No
// equivalent "app-dirs" library appears anywhere in the retrieved
// corpus, so this single call is the documented stdlib exception noted
// in SPEC_FULL.md section 2 — os.UserConfigDir() is the closest
// standard-library analogue to ProjectDirs::data_local_dir() across
// platforms.
package appdir

import (
	"os"
	"path/filepath"

	"github.com/KingTimer12/saveme-config/internal/errs"
)

const appQualifier = "saveconfig"

// BaseStorageDir returns the root directory under which every snapshot
// is stored.
func BaseStorageDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errs.Wrap(errs.ResolveError, "cannot resolve user config directory", err)
	}
	return filepath.Join(base, appQualifier), nil
}
