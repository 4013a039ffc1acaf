package launcher

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeTable(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func checkGclient(t *testing.T, table Table, root string) {
	t.Helper()

	l, ok := table["gclient"]
	if !ok {
		t.Fatal("gclient launcher missing")
	}

	if l.Root != root {
		t.Errorf("Root = %q, want %q", l.Root, root)
	}

	if !l.HasUpdate() {
		t.Error("gclient should have an update command")
	}

	if l.RestartCode != 123 {
		t.Errorf("RestartCode = %d, want 123", l.RestartCode)
	}

	for _, sub := range []string{"grep", "fetch", "cleanup", "diff", "setdep"} {
		if !l.SkipsUpdate(sub) {
			t.Errorf("%s should skip the update", sub)
		}
	}

	if l.SkipsUpdate("sync") {
		t.Error("sync shouldn't skip the update")
	}
}

func TestLoadYAMLTable(t *testing.T) {
	root, err := filepath.Abs("testdata")
	if err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(context.Background(), filepath.Join("testdata", "launchers.yml"))
	if err != nil {
		t.Fatal(err)
	}

	checkGclient(t, table, root)

	gn := table["gn"]
	if gn == nil {
		t.Fatal("gn launcher missing")
	}
	if !reflect.DeepEqual(gn.Main.Argv, []string{"python3", "$LAUNCHER_ROOT/gn.py"}) {
		t.Errorf("gn main = %q", gn.Main.Argv)
	}
	if gn.HasUpdate() {
		t.Error("gn shouldn't have an update command")
	}

	if table["gclient"].Main.Line == "" {
		t.Error("gclient main should be a shell line")
	}

	names := table.Names()
	if !reflect.DeepEqual(names, []string{"gclient", "gn"}) {
		t.Errorf("Names() = %v, hidden launchers must not be listed", names)
	}
}

func TestLoadStarlarkTable(t *testing.T) {
	root, err := filepath.Abs("testdata")
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv("LAUNCHER_TEST_EDITOR", "nano")
	table, err := LoadTable(context.Background(), filepath.Join("testdata", "launchers.star"))
	if err != nil {
		t.Fatal(err)
	}

	checkGclient(t, table, root)

	gclient := table["gclient"]
	wantMain := []string{"python3", "-u", filepath.Join(root, "gclient.py")}
	if !reflect.DeepEqual(gclient.Main.Argv, wantMain) {
		t.Errorf("gclient main = %q, want %q", gclient.Main.Argv, wantMain)
	}

	shell := table["depot-shell"]
	if shell == nil {
		t.Fatal("depot-shell launcher missing")
	}
	if shell.Editor != "nano" {
		t.Errorf("Editor = %q, want nano", shell.Editor)
	}
	if shell.Env["DEPOT_TOOLS_SHELL"] != "1" {
		t.Errorf("Env = %v", shell.Env)
	}
	if !reflect.DeepEqual(shell.PrependPath, []string{"$LAUNCHER_ROOT"}) {
		t.Errorf("PrependPath = %v", shell.PrependPath)
	}
}

func TestTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errPart string
	}{
		{"duplicate", "launchers.star", "launcher(name='a', main='x')\nlauncher(name='a', main='y')\n", "declared twice"},
		{"missing main", "launchers.star", "launcher(name='a', main=None)\n", "missing a main command"},
		{"reserved name", "launchers.star", "launcher(name='run', main='x')\n", "reserved"},
		{"bad restart code", "launchers.yml", "launchers:\n  a:\n    main: x\n    restart_code: 300\n", "outside of 1..255"},
		{"bad command type", "launchers.yml", "launchers:\n  a:\n    main: {x: y}\n", "expected a string or a list"},
		{"bad env value", "launchers.star", "launcher(name='a', main='x', env={'A': 1})\n", "only strings are supported"},
		{"unknown format", "launchers.json", "{}", "unsupported launcher table format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTable(t, tt.file, tt.content)
			_, err := LoadTable(context.Background(), path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q doesn't mention %q", err.Error(), tt.errPart)
			}
		})
	}
}

func TestFindTable(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"launchers.yml", "launchers.star"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(""), 0644); err != nil {
			t.Fatal(err)
		}
	}

	path, err := FindTable("", nested)
	if err != nil {
		t.Fatal(err)
	}

	if path != filepath.Join(root, "launchers.star") {
		t.Errorf("FindTable() = %s, the starlark table should win", path)
	}
}

func TestLookup(t *testing.T) {
	table := Table{"gclient": &Launcher{Name: "gclient"}}

	for _, name := range []string{"gclient", "/usr/local/bin/gclient", "gclient.exe", "gclient.bat"} {
		if _, ok := table.Lookup(name); !ok {
			t.Errorf("Lookup(%q) failed", name)
		}
	}

	if _, ok := table.Lookup("gn"); ok {
		t.Error("found a missing launcher")
	}
}
