// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package edit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/run0edit/run0edit/lib/pathcheck"
)

// scratchPrefixLimit bounds how much of the target's base name is
// carried into the scratch file name, keeping the final name under
// filesystem limits once the random suffix is appended.
const scratchPrefixLimit = 64

// Session owns the per-edit state: the resolved target, its one-time
// existence classification, and the scratch file. It is created at the
// start of one edit request and never reused.
type Session struct {
	// Target is the absolute, symlink-resolved target path. Every
	// subsequent operation uses this, never the raw argument.
	Target string

	// State is the existence classification, determined once.
	State pathcheck.Existence

	// Scratch is the session's private scratch file path, empty until
	// createScratch runs.
	Scratch string
}

// newSession resolves and classifies the requested path. A rejection
// from the validator is returned unchanged so the caller can map it to
// its user-facing sentence.
func newSession(path string) (*Session, error) {
	resolved, err := pathcheck.Resolve(path)
	if err != nil {
		return nil, err
	}
	state, err := pathcheck.Validate(resolved)
	if err != nil {
		return nil, err
	}
	return &Session{Target: resolved, State: state}, nil
}

// targetExists reports whether the writable sandbox set should name
// the target itself rather than its parent directory. Anything that
// exists, including a non-regular file the elevated step will reject
// with its own message, is named directly.
func (s *Session) targetExists() bool {
	return s.State == pathcheck.ExistsRegular || s.State == pathcheck.Invalid
}

// createScratch makes the session's scratch file: exclusively created,
// mode 0600, in the private temporary directory, named after the
// target's base name plus an unpredictable suffix.
func (s *Session) createScratch() error {
	base := filepath.Base(s.Target)
	if len(base) > scratchPrefixLimit {
		base = base[:scratchPrefixLimit]
	}
	file, err := os.CreateTemp("", base+".")
	if err != nil {
		return fmt.Errorf("creating scratch file for %s: %w", s.Target, err)
	}
	s.Scratch = file.Name()
	return file.Close()
}

// removeScratch deletes the scratch file. When onlyIfEmpty is set, a
// non-empty scratch file is preserved: the elevated step failed after
// the editor wrote content, and that content is the operator's only
// copy.
func (s *Session) removeScratch(onlyIfEmpty bool) {
	if s.Scratch == "" {
		return
	}
	if onlyIfEmpty {
		info, err := os.Stat(s.Scratch)
		if err == nil && info.Size() > 0 {
			return
		}
	}
	os.Remove(s.Scratch)
}
