// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// Package fscopy stages file content between the real target and the
// session's scratch file.
//
// [CopyContents] copies bytes only, never metadata, and opens the
// destination with flags chosen at the syscall level rather than
// through a high-level "open for writing" call: the final path
// component is never followed through a symlink, existing content is
// truncated, and when the destination must be newly created the open
// is exclusive. Exclusive create matters because the scratch file
// lives in a world-writable sticky directory, where an O_CREAT open
// without O_EXCL could be redirected onto a file the session does not
// own.
//
// [ShouldCommit] is the decision gate that avoids gratuitous writes:
// a pre-existing target is rewritten only when the scratch content
// differs, and a new target is created only when the scratch file is
// non-empty.
package fscopy
