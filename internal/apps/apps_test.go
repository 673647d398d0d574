package apps

import "testing"

func TestGetKnownApp(t *testing.T) {
	app, ok := Get("zed")
	if !ok {
		t.Fatal("expected zed to be registered")
	}
	if app.TargetHint() != "app:zed" {
		t.Fatalf("unexpected target hint: %s", app.TargetHint())
	}
}

func TestGetUnknownApp(t *testing.T) {
	if _, ok := Get("nonexistent"); ok {
		t.Fatal("expected nonexistent app to be absent")
	}
}

func TestListInfoCoversRegistry(t *testing.T) {
	infos := ListInfo()
	if len(infos) != len(All()) {
		t.Fatalf("expected %d infos, got %d", len(All()), len(infos))
	}
	ids := map[string]bool{}
	for _, info := range infos {
		ids[info.ID] = true
	}
	for _, want := range []string{"zed", "vscode", "windows-terminal"} {
		if !ids[want] {
			t.Fatalf("expected registry to contain %s", want)
		}
	}
}
