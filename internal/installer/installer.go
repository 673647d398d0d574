// Package installer shells out to the host platform's package manager
// to install an application that a restore operation found missing,
// grounded on original_source's installer/mod.rs install_app.
package installer

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/KingTimer12/saveme-config/internal/apps"
	"github.com/KingTimer12/saveme-config/internal/dcontext"
	"github.com/KingTimer12/saveme-config/internal/errs"
)

// Install resolves id's package id for the current platform and runs
// the matching package manager: winget on Windows, brew on macOS,
// apt-get on everything else.
func Install(ctx context.Context, id string) error {
	app, ok := apps.Get(id)
	if !ok {
		return errs.New(errs.ResolveError, "unknown application: "+id)
	}
	packageID, ok := app.PackageID()
	if !ok {
		return errs.New(errs.InstallError, app.Name()+" has no package id for this platform")
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "winget", "install", "-e", "--id", packageID)
	case "darwin":
		cmd = exec.CommandContext(ctx, "brew", "install", packageID)
	default:
		cmd = exec.CommandContext(ctx, "sudo", "apt-get", "install", "-y", packageID)
	}

	logger := dcontext.WithField(ctx, "package_id", packageID)
	logger.Infof("installing %s", app.Name())

	if err := cmd.Run(); err != nil {
		return errs.Wrap(errs.InstallError, app.Name(), err)
	}
	return nil
}
