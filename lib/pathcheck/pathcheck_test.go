// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package pathcheck

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestResolveSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.conf")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	link := filepath.Join(dir, "link.conf")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	resolved, err := Resolve(link)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if resolved != want {
		t.Errorf("Resolve(%s) = %s, want %s", link, resolved, want)
	}
}

func TestResolveNonexistentTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does", "not", "exist.conf")

	resolved, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	want := filepath.Join(realDir, "does", "not", "exist.conf")
	if resolved != want {
		t.Errorf("Resolve(%s) = %s, want %s", path, resolved, want)
	}
}

func TestResolveThroughSymlinkedDir(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	if err := os.Mkdir(realDir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	link := filepath.Join(dir, "alias")
	if err := os.Symlink(realDir, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	resolved, err := Resolve(filepath.Join(link, "new.conf"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	canonical, err := filepath.EvalSymlinks(realDir)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if resolved != filepath.Join(canonical, "new.conf") {
		t.Errorf("Resolve did not canonicalize the symlinked directory: got %s", resolved)
	}
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := Validate(dir)
	if !errors.Is(err, ErrTargetIsDirectory) {
		t.Errorf("Validate(%s) error = %v, want ErrTargetIsDirectory", dir, err)
	}
}

func TestValidateAlreadyWritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mine.conf")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	state, err := Validate(path)
	if !errors.Is(err, ErrAlreadyWritable) {
		t.Errorf("Validate error = %v, want ErrAlreadyWritable", err)
	}
	if state != ExistsRegular {
		t.Errorf("state = %v, want ExistsRegular", state)
	}
}

func TestValidateMissingWithParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.conf")
	state, err := Validate(path)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if state != Missing {
		t.Errorf("state = %v, want Missing", state)
	}
}

func TestValidateNoParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "deeper", "new.conf")
	state, err := Validate(path)
	if !errors.Is(err, ErrNoSuchDirectory) {
		t.Errorf("Validate error = %v, want ErrNoSuchDirectory", err)
	}
	if state != NoParent {
		t.Errorf("state = %v, want NoParent", state)
	}
}

func TestValidateIrregularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fifo")
	if err := unix.Mkfifo(path, 0o644); err != nil {
		t.Fatalf("Mkfifo: %v", err)
	}

	state, err := Validate(path)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if state != Invalid {
		t.Errorf("state = %v, want Invalid", state)
	}
}

func TestParentMissing(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name string
		path string
		want Tristate
	}{
		{"parent exists", filepath.Join(dir, "new.conf"), No},
		{"parent missing", filepath.Join(dir, "nope", "new.conf"), Yes},
		{"deeply missing", filepath.Join(dir, "a", "b", "c", "new.conf"), Yes},
		{"parent is a file", filepath.Join(filePath, "new.conf"), Yes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParentMissing(tt.path); got != tt.want {
				t.Errorf("ParentMissing(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestReadOnlyFilesystemWritableMount(t *testing.T) {
	if got := ReadOnlyFilesystem(t.TempDir()); got != No {
		t.Errorf("ReadOnlyFilesystem(tempdir) = %v, want No", got)
	}
}

func TestReadOnlyFilesystemMissingPath(t *testing.T) {
	if got := ReadOnlyFilesystem(filepath.Join(t.TempDir(), "gone")); got != Unknown {
		t.Errorf("ReadOnlyFilesystem(missing) = %v, want Unknown", got)
	}
}
