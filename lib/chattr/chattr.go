// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package chattr

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// immutableMarker is the flag character lsattr prints for the
// immutable attribute.
const immutableMarker = 'i'

// defaultSearchDirs is where the attribute tools are looked up. The
// elevated process runs with a minimal environment, so PATH is not
// consulted.
var defaultSearchDirs = []string{"/usr/bin", "/bin"}

// Manager queries and toggles the immutable attribute on files and
// directories.
type Manager struct {
	// SearchDirs are the directories searched for lsattr and chattr.
	SearchDirs []string

	// Output receives the human-facing reapplication notice printed
	// after WithCleared restores the attribute.
	Output io.Writer

	// Logger records tool invocations at debug level.
	Logger *slog.Logger
}

// NewManager returns a Manager with the standard tool locations,
// notices on stdout, and the default logger.
func NewManager() *Manager {
	return &Manager{
		SearchDirs: defaultSearchDirs,
		Output:     os.Stdout,
		Logger:     slog.Default(),
	}
}

// ToggleError reports a failed chattr invocation. It is the most
// severe error class in the edit workflow: it occurs in a path that
// has no fallback, and may leave the protective attribute removed.
type ToggleError struct {
	// Path is the file or directory the toggle targeted.
	Path string
	// Flag is the chattr argument, "+i" or "-i".
	Flag string
	// Err is the underlying lookup or execution failure.
	Err error
}

func (e *ToggleError) Error() string {
	return fmt.Sprintf("chattr %s %s: %v", e.Flag, e.Path, e.Err)
}

func (e *ToggleError) Unwrap() error { return e.Err }

// IsImmutable reports whether the file or directory at path carries
// the immutable attribute. Tool lookup or execution failure reads as
// "not immutable": the caller will then fail with an ordinary
// read-only error instead of attempting to strip protection it cannot
// see.
func (m *Manager) IsImmutable(path string) bool {
	tool, err := m.lookTool("lsattr")
	if err != nil {
		return false
	}
	cmd := exec.Command(tool, "-d", "--", path)
	out, err := cmd.Output()
	if err != nil {
		m.logger().Debug("lsattr failed", "path", path, "error", err)
		return false
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return false
	}
	return strings.ContainsRune(fields[0], immutableMarker)
}

// Set applies the immutable attribute to path.
func (m *Manager) Set(path string) error {
	return m.toggle("+i", path)
}

// Clear removes the immutable attribute from path.
func (m *Manager) Clear(path string) error {
	return m.toggle("-i", path)
}

// WithCleared clears the attribute on path, runs fn, and restores the
// attribute regardless of how fn exits. When restoration succeeds a
// notice is printed to Output; when it fails the resulting
// ToggleError is joined onto fn's error so neither outcome is lost.
func (m *Manager) WithCleared(path string, fn func() error) (err error) {
	if clearErr := m.Clear(path); clearErr != nil {
		return clearErr
	}
	defer func() {
		if restoreErr := m.Set(path); restoreErr != nil {
			err = errors.Join(err, restoreErr)
			return
		}
		fmt.Fprintln(m.output(), "Immutable attribute reapplied.")
	}()
	return fn()
}

func (m *Manager) toggle(flag, path string) error {
	tool, err := m.lookTool("chattr")
	if err != nil {
		return &ToggleError{Path: path, Flag: flag, Err: err}
	}
	cmd := exec.Command(tool, flag, "--", path)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	m.logger().Debug("running chattr", "flag", flag, "path", path)
	if err := cmd.Run(); err != nil {
		return &ToggleError{Path: path, Flag: flag, Err: err}
	}
	return nil
}

// lookTool searches the configured directories for an executable.
func (m *Manager) lookTool(name string) (string, error) {
	dirs := m.SearchDirs
	if len(dirs) == 0 {
		dirs = defaultSearchDirs
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Mode().Perm()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("command %q not found", name)
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m *Manager) output() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}
