package apps

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/KingTimer12/saveme-config/internal/errs"
)

// WindowsTerminal adapts Windows Terminal's packaged LocalState
// directory, grounded on original_source's apps/windows_terminal.rs.
type WindowsTerminal struct{}

func (WindowsTerminal) ID() string         { return "windows-terminal" }
func (WindowsTerminal) Name() string       { return "Windows Terminal" }
func (WindowsTerminal) TargetHint() string { return "sys:windows-terminal" }

func (WindowsTerminal) PackageID() (string, bool) {
	if runtime.GOOS == "windows" {
		return "Microsoft.WindowsTerminal", true
	}
	return "", false
}

func (w WindowsTerminal) appDir() (string, error) {
	if runtime.GOOS != "windows" {
		return "", errs.New(errs.ResolveError, "windows terminal is only available on windows")
	}
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		return "", errs.New(errs.ResolveError, "LOCALAPPDATA is not set")
	}
	return filepath.Join(localAppData, "Packages", "Microsoft.WindowsTerminal_8wekyb3d8bbwe", "LocalState"), nil
}

func (w WindowsTerminal) IsInstalled() bool {
	dir, err := w.appDir()
	if err != nil {
		return false
	}
	_, statErr := os.Stat(dir)
	return statErr == nil
}

// ConfigPaths returns the entries directly under LocalState, or an
// empty slice when the directory doesn't exist yet.
func (w WindowsTerminal) ConfigPaths() ([]string, error) {
	dir, err := w.appDir()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		return nil, nil
	}
	files, err := collectFilesFlat(dir)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, dir, err)
	}
	return files, nil
}
