package main

import "testing"

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{"list-apps", "save", "list-snapshots", "restore", "verify", "chain-info"}
	got := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		if !got[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}
