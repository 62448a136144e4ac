// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// Package chattr detects and reversibly toggles the filesystem
// immutable attribute through the external lsattr and chattr tools.
//
// [Manager.IsImmutable] is informational: if lsattr cannot be run or
// fails, the answer is "not immutable", which fails toward "cannot
// elevate automatically" rather than silently bypassing protection.
// [Manager.Set] and [Manager.Clear] invoke chattr and report failure
// as a [ToggleError]; callers treat that as catastrophic because a
// failed toggle can leave protection removed with no further fallback.
//
// [Manager.WithCleared] is the scoped-acquisition form used during
// commit: the attribute is cleared, the supplied function runs, and
// the attribute is restored on every exit path, including when the
// function fails mid-copy.
package chattr
