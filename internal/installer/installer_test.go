package installer

import (
	"context"
	"testing"
)

func TestInstallUnknownApp(t *testing.T) {
	if err := Install(context.Background(), "nonexistent"); err == nil {
		t.Fatal("expected error installing unknown app")
	}
}

func TestInstallAppWithoutPackageID(t *testing.T) {
	err := Install(context.Background(), "windows-terminal")
	if err == nil {
		t.Skip("package id available for windows-terminal on this platform")
	}
}
