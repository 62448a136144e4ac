// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// Package edit drives the unprivileged side of an edit session.
//
// One [Session] covers one target file: the path is symlink-resolved
// and classified exactly once, the pinned digest of the elevated
// payload is verified before any elevation request is constructed,
// a private scratch file is created, the broker invocation is built
// and launched, and the broker's exit status decides what happens to
// the scratch file: deleted on success, deleted when the elevated
// step failed before the editor could produce anything, and preserved
// for operator recovery when it is non-empty and the elevated step
// failed after editing.
//
// All process-global inputs (the launch function, the payload
// location, the pinned digest, output streams) are explicit [Config]
// fields so the sequencing is testable without touching the real
// broker or process environment.
package edit
