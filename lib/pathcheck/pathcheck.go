// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package pathcheck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Existence is the classification of a resolved target path. It is
// determined once per edit session and never re-derived, so later
// steps cannot disagree with the classification they were sequenced on.
type Existence int

const (
	// ExistsRegular means the path is an existing regular file.
	ExistsRegular Existence = iota

	// Missing means the path does not exist but its parent directory
	// does (or could not be proven absent).
	Missing

	// NoParent means the parent directory provably does not exist.
	NoParent

	// Invalid means the path exists but is not a regular file.
	Invalid
)

// Tristate is the result of a probe that can fail for reasons other
// than a negative answer, typically missing permission to look.
type Tristate int

const (
	// No means the probe answered negatively.
	No Tristate = iota
	// Yes means the probe answered positively.
	Yes
	// Unknown means the probe could not determine an answer.
	Unknown
)

// Rejection reasons returned by Validate. Callers branch with errors.Is.
var (
	// ErrTargetIsDirectory rejects directories; only files are editable.
	ErrTargetIsDirectory = errors.New("target is a directory")

	// ErrAlreadyWritable rejects files the current user can already
	// read and write; elevation would be unnecessary.
	ErrAlreadyWritable = errors.New("target is writable by the current user")

	// ErrNoSuchDirectory rejects paths whose containing directory
	// provably does not exist.
	ErrNoSuchDirectory = errors.New("no such directory")

	// ErrReadOnlyFilesystem rejects paths on read-only filesystems.
	ErrReadOnlyFilesystem = errors.New("read-only filesystem")
)

// Resolve returns the absolute, symlink-free form of path. Unlike
// filepath.EvalSymlinks it tolerates a path whose final components do
// not exist yet: the longest resolvable ancestor is canonicalized and
// the remainder reattached, matching realpath semantics for files that
// are about to be created.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return resolve(filepath.Clean(abs)), nil
}

func resolve(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(resolve(parent), filepath.Base(path))
}

// Validate classifies a resolved path for editing. On success it
// returns ExistsRegular or Missing. On rejection the returned error
// wraps one of the Err sentinels above and carries the offending path.
// The check is purely advisory and has no side effects.
func Validate(resolved string) (Existence, error) {
	info, err := os.Lstat(resolved)
	switch {
	case err == nil && info.IsDir():
		return Invalid, fmt.Errorf("%s: %w", resolved, ErrTargetIsDirectory)
	case err == nil && info.Mode().IsRegular():
		if unix.Access(resolved, unix.R_OK|unix.W_OK) == nil {
			return ExistsRegular, fmt.Errorf("%s: %w", resolved, ErrAlreadyWritable)
		}
		if readOnlyFilesystem(resolved) == Yes {
			return ExistsRegular, fmt.Errorf("%s: %w", resolved, ErrReadOnlyFilesystem)
		}
		return ExistsRegular, nil
	case err == nil:
		// Exists but is neither a directory nor a regular file. The
		// elevated step performs its own regular-file check and
		// reports the rejection; classifying here would race it.
		return Invalid, nil
	}

	// The path does not exist (or cannot be inspected). Reject only if
	// the parent directory provably does not exist; an unreadable
	// intermediate directory means "might exist" and we proceed,
	// leaving the real answer to the elevated step.
	parent := filepath.Dir(resolved)
	if ParentMissing(resolved) == Yes {
		return NoParent, fmt.Errorf("%s: %w", parent, ErrNoSuchDirectory)
	}

	readonly := readOnlyFilesystem(resolved)
	if readonly == Unknown {
		readonly = readOnlyFilesystem(parent)
	}
	if readonly == Yes {
		return Missing, fmt.Errorf("%s: %w", resolved, ErrReadOnlyFilesystem)
	}
	return Missing, nil
}

// ParentMissing reports whether the directory that would contain the
// resolved path definitely does not exist. The walk starts at the
// filesystem root so that an unreadable intermediate directory yields
// Unknown instead of a false Yes: the directory may well exist, we
// simply were not allowed to see it.
func ParentMissing(resolved string) Tristate {
	parent := filepath.Dir(resolved)
	partial := string(filepath.Separator)
	for _, part := range splitComponents(parent) {
		entries, err := os.ReadDir(partial)
		if err != nil {
			if errors.Is(err, unix.ENOTDIR) {
				return Yes
			}
			// Exists but cannot be listed.
			return Unknown
		}
		found := false
		for _, entry := range entries {
			if entry.Name() == part {
				found = true
				break
			}
		}
		if !found {
			return Yes
		}
		partial = filepath.Join(partial, part)
	}

	if unix.Access(parent, unix.F_OK) == nil {
		info, err := os.Stat(parent)
		if err == nil && info.IsDir() {
			return No
		}
		// Parent exists but is not a directory, so the path is invalid.
		return Yes
	}
	return Unknown
}

// splitComponents returns the path components of an absolute path,
// excluding the root.
func splitComponents(path string) []string {
	var parts []string
	for path != string(filepath.Separator) && path != "." {
		parent, base := filepath.Dir(path), filepath.Base(path)
		if base != string(filepath.Separator) {
			parts = append(parts, base)
		}
		if parent == path {
			break
		}
		path = parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// readOnlyFilesystem reports whether the filesystem holding path is
// mounted read-only. The answer comes from a statfs query, never from
// attempting a write.
func readOnlyFilesystem(path string) Tristate {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Unknown
	}
	if stat.Flags&unix.ST_RDONLY != 0 {
		return Yes
	}
	return No
}

// ReadOnlyFilesystem is the exported form of the statfs probe, used by
// the elevated workflow to distinguish a read-only mount from an
// immutable attribute when a path is unwritable.
func ReadOnlyFilesystem(path string) Tristate {
	return readOnlyFilesystem(path)
}
