// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathcheck classifies a requested target path before any
// privileged action is taken.
//
// [Resolve] produces the canonical, symlink-free form of a path and is
// called exactly once per edit session; every later decision and write
// acts on the resolved path, never on the raw argument, so a symlink
// swapped in after resolution cannot redirect the edit.
//
// [Validate] classifies the resolved path into an [Existence] state and
// rejects paths that cannot or should not be edited through privilege
// elevation: directories, files the caller can already write, paths
// whose containing directory does not exist, and paths on read-only
// filesystems. The containing-directory check walks from the filesystem
// root; an intermediate directory that exists but cannot be listed
// yields "might exist" rather than "does not exist", so permission-
// limited probing never produces a false rejection.
package pathcheck
