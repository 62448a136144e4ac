// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package run0

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// fakeTools creates a directory holding a fake run0 binary and a fake
// payload, returning the directory and the payload path.
func fakeTools(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"run0", "run0edit-inner"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("writing fake %s: %v", name, err)
		}
	}
	return dir, filepath.Join(dir, "run0edit-inner")
}

func TestEscapeProperty(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/etc/hosts", "/etc/hosts"},
		{`/tmp/has"quote`, `/tmp/has\"quote`},
		{`/tmp/back\slash`, `/tmp/back\\slash`},
		{`/tmp/\"both`, `/tmp/\\\"both`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeProperty(tt.in); got != tt.want {
			t.Errorf("EscapeProperty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildExistingTarget(t *testing.T) {
	dir, payload := fakeTools(t)

	inv, err := Build(Options{
		Target:       "/etc/sample.conf",
		TargetExists: true,
		Scratch:      "/tmp/sample.conf.abc123",
		Editor:       "/usr/bin/nano",
		PayloadPath:  payload,
		SearchDirs:   []string{dir},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	argv := inv.Argv
	if argv[0] != filepath.Join(dir, "run0") {
		t.Errorf("argv[0] = %s, want the broker path", argv[0])
	}
	if argv[1] != `--description=run0edit "/etc/sample.conf"` {
		t.Errorf("description = %q", argv[1])
	}

	// Every sandbox property appears, in order, right after the
	// description.
	for i, property := range SandboxProperties {
		want := "--property=" + property
		if argv[2+i] != want {
			t.Fatalf("argv[%d] = %q, want %q", 2+i, argv[2+i], want)
		}
	}

	rw := argv[2+len(SandboxProperties)]
	wantRW := `--property=ReadWritePaths="/etc/sample.conf" "/tmp/sample.conf.abc123"`
	if rw != wantRW {
		t.Errorf("ReadWritePaths = %q, want %q", rw, wantRW)
	}

	// Payload argv: payload, target, scratch, editor, background hint.
	tail := argv[3+len(SandboxProperties):]
	want := []string{payload, "/etc/sample.conf", "/tmp/sample.conf.abc123", "/usr/bin/nano", "--background="}
	if !slices.Equal(tail, want) {
		t.Errorf("payload argv = %v, want %v", tail, want)
	}

	if !slices.Contains(inv.Env, "SYSTEMD_ADJUST_TERMINAL_TITLE=false") {
		t.Errorf("env = %v, missing terminal title override", inv.Env)
	}
}

func TestBuildMissingTargetUsesParent(t *testing.T) {
	dir, payload := fakeTools(t)

	inv, err := Build(Options{
		Target:       "/etc/new/sample.conf",
		TargetExists: false,
		Scratch:      "/tmp/sample.conf.abc123",
		Editor:       "/usr/bin/nano",
		PayloadPath:  payload,
		SearchDirs:   []string{dir},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantRW := `--property=ReadWritePaths="/etc/new" "/tmp/sample.conf.abc123"`
	if !slices.Contains(inv.Argv, wantRW) {
		t.Errorf("argv %v missing %q", inv.Argv, wantRW)
	}
}

func TestBuildEscapesHostilePaths(t *testing.T) {
	dir, payload := fakeTools(t)

	hostile := `/tmp/evil" ReadWritePaths="/etc`
	inv, err := Build(Options{
		Target:       hostile,
		TargetExists: true,
		Scratch:      "/tmp/scratch",
		Editor:       "/usr/bin/nano",
		PayloadPath:  payload,
		SearchDirs:   []string{dir},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantDescription := fmt.Sprintf(`--description=run0edit "%s"`, EscapeProperty(hostile))
	if inv.Argv[1] != wantDescription {
		t.Errorf("description = %q, want %q", inv.Argv[1], wantDescription)
	}
	wantRW := fmt.Sprintf(`--property=ReadWritePaths="%s" "/tmp/scratch"`, EscapeProperty(hostile))
	if !slices.Contains(inv.Argv, wantRW) {
		t.Errorf("argv missing escaped ReadWritePaths %q", wantRW)
	}
}

func TestBuildDebugFlag(t *testing.T) {
	dir, payload := fakeTools(t)

	inv, err := Build(Options{
		Target:       "/etc/sample.conf",
		TargetExists: true,
		Scratch:      "/tmp/scratch",
		Editor:       "/usr/bin/nano",
		Debug:        true,
		PayloadPath:  payload,
		SearchDirs:   []string{dir},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if inv.Argv[len(inv.Argv)-1] != "--debug" {
		t.Errorf("argv should end with --debug, got %v", inv.Argv)
	}
}

func TestBuildMissingBroker(t *testing.T) {
	_, payload := fakeTools(t)

	_, err := Build(Options{
		Target:      "/etc/sample.conf",
		Scratch:     "/tmp/scratch",
		Editor:      "/usr/bin/nano",
		PayloadPath: payload,
		SearchDirs:  []string{t.TempDir()},
	})
	var missing *MissingCommandError
	if !errors.As(err, &missing) {
		t.Fatalf("Build error = %v, want MissingCommandError", err)
	}
	if missing.Name != "run0" {
		t.Errorf("missing command = %q, want run0", missing.Name)
	}
}

func TestBuildMissingPayload(t *testing.T) {
	dir, _ := fakeTools(t)

	_, err := Build(Options{
		Target:      "/etc/sample.conf",
		Scratch:     "/tmp/scratch",
		Editor:      "/usr/bin/nano",
		PayloadPath: filepath.Join(dir, "not-installed"),
		SearchDirs:  []string{dir},
	})
	var missing *MissingCommandError
	if !errors.As(err, &missing) {
		t.Fatalf("Build error = %v, want MissingCommandError", err)
	}
	if !strings.Contains(missing.Name, "not-installed") {
		t.Errorf("missing command = %q, want the payload path", missing.Name)
	}
}

func TestEditorInvocation(t *testing.T) {
	dir, _ := fakeTools(t)

	inv, err := EditorInvocation(1000, "/usr/bin/nano", "/tmp/scratch", "", []string{dir})
	if err != nil {
		t.Fatalf("EditorInvocation: %v", err)
	}
	want := []string{
		filepath.Join(dir, "run0"),
		"--user=1000",
		"--background=",
		"--",
		"/usr/bin/nano",
		"/tmp/scratch",
	}
	if !slices.Equal(inv.Argv, want) {
		t.Errorf("argv = %v, want %v", inv.Argv, want)
	}
}

func TestLaunchReportsExitStatus(t *testing.T) {
	status, err := Launch(Invocation{Argv: []string{"/bin/sh", "-c", "exit 7"}})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if status != 7 {
		t.Errorf("status = %d, want 7", status)
	}
}

func TestLaunchStartFailure(t *testing.T) {
	_, err := Launch(Invocation{Argv: []string{filepath.Join(t.TempDir(), "missing")}})
	if err == nil {
		t.Error("Launch should fail when the binary cannot be started")
	}
}

func TestIsExitError(t *testing.T) {
	if code, ok := IsExitError(&ExitError{Code: 226}); !ok || code != 226 {
		t.Errorf("IsExitError = (%d, %v), want (226, true)", code, ok)
	}
	if _, ok := IsExitError(errors.New("other")); ok {
		t.Error("IsExitError matched a non-ExitError")
	}
}
