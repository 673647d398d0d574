// Package apps implements the application adapter registry (spec.md
// section 3's target_hint concept), grounded on original_source's
// apps/mod.rs App trait and its REGISTRY.
package apps

import (
	"os"
	"path/filepath"
)

// Info mirrors original_source's apps::AppInfo, returned to callers
// that just need a summary rather than the full adapter.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsInstalled bool   `json:"is_installed"`
}

// App is implemented by every application adapter.
type App interface {
	ID() string
	Name() string
	IsInstalled() bool
	ConfigPaths() ([]string, error)
	TargetHint() string
	PackageID() (string, bool)
}

// registry lists every known adapter, mirroring the Rust REGISTRY
// but as an ordinary slice rather than a mutable package-level global
// (spec.md's non-goals exclude a plugin system for third-party apps).
var registry = []App{
	Zed{},
	WindowsTerminal{},
	VSCode{},
}

// Get returns the adapter with the given id.
func Get(id string) (App, bool) {
	for _, a := range registry {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

// All returns every registered adapter.
func All() []App {
	return registry
}

// ListInfo returns the summary view of every registered adapter.
func ListInfo() []Info {
	infos := make([]Info, 0, len(registry))
	for _, a := range registry {
		infos = append(infos, Info{ID: a.ID(), Name: a.Name(), IsInstalled: a.IsInstalled()})
	}
	return infos
}

func userConfigHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

func collectFilesRecursive(dir string, files *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := collectFilesRecursive(path, files); err != nil {
				return err
			}
		} else {
			*files = append(*files, path)
		}
	}
	return nil
}

func collectFilesFlat(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
