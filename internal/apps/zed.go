package apps

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/KingTimer12/saveme-config/internal/errs"
)

// Zed adapts the Zed editor's configuration directory, grounded on
// original_source's apps/zed.rs.
type Zed struct{}

func (Zed) ID() string         { return "zed" }
func (Zed) Name() string       { return "Zed" }
func (Zed) TargetHint() string { return "app:zed" }

func (Zed) PackageID() (string, bool) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "linux" {
		return "zed", true
	}
	return "", false
}

func (z Zed) configDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errs.New(errs.ResolveError, "APPDATA is not set")
		}
		return appData, nil
	}
	return userConfigHome()
}

func (z Zed) zedDir() (string, error) {
	configDir, err := z.configDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(configDir, "zed")
	if _, err := os.Stat(dir); err != nil {
		return "", errs.Wrap(errs.ResolveError, "zed is not installed", err)
	}
	return dir, nil
}

func (z Zed) IsInstalled() bool {
	_, err := z.zedDir()
	return err == nil
}

// ConfigPaths recurses through ~/.config/zed and, on Linux, also
// collects installed-extension directories under
// ~/.local/share/zed/extensions/installed.
func (z Zed) ConfigPaths() ([]string, error) {
	zedDir, err := z.zedDir()
	if err != nil {
		return nil, err
	}

	var files []string
	if err := collectFilesRecursive(zedDir, &files); err != nil {
		return nil, errs.Wrap(errs.IOError, zedDir, err)
	}

	if runtime.GOOS == "linux" {
		home, err := os.UserHomeDir()
		if err == nil {
			extensionsDir := filepath.Join(home, ".local", "share", "zed", "extensions", "installed")
			if entries, err := os.ReadDir(extensionsDir); err == nil {
				for _, e := range entries {
					if e.IsDir() {
						files = append(files, filepath.Join(extensionsDir, e.Name()))
					}
				}
			}
		}
	}

	return files, nil
}
