package apps

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/KingTimer12/saveme-config/internal/errs"
)

// VSCode adapts Visual Studio Code's user configuration directory,
// grounded on original_source's apps/vscode.rs.
type VSCode struct{}

func (VSCode) ID() string         { return "vscode" }
func (VSCode) Name() string       { return "Visual Studio Code" }
func (VSCode) TargetHint() string { return "app:vscode" }

func (VSCode) PackageID() (string, bool) {
	switch runtime.GOOS {
	case "windows":
		return "Microsoft.VisualStudioCode", true
	case "darwin":
		return "visual-studio-code", true
	default:
		return "code", true
	}
}

func (v VSCode) appDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errs.New(errs.ResolveError, "APPDATA is not set")
		}
		return filepath.Join(appData, "Code"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errs.Wrap(errs.ResolveError, "could not resolve home directory", err)
		}
		return filepath.Join(home, "Library", "Application Support", "Code"), nil
	default:
		configHome, err := userConfigHome()
		if err != nil {
			return "", errs.Wrap(errs.ResolveError, "could not resolve config directory", err)
		}
		return filepath.Join(configHome, "Code"), nil
	}
}

func (v VSCode) IsInstalled() bool {
	dir, err := v.appDir()
	if err != nil {
		return false
	}
	_, statErr := os.Stat(dir)
	return statErr == nil
}

// ConfigPaths returns the top-level (non-recursive) entries, files and
// directories alike, under VS Code's application directory.
func (v VSCode) ConfigPaths() ([]string, error) {
	dir, err := v.appDir()
	if err != nil {
		return nil, err
	}
	files, err := collectFilesFlat(dir)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, dir, err)
	}
	return files, nil
}
