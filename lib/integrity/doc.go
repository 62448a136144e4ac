// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// Package integrity gates privilege elevation on the identity of the
// elevated payload.
//
// The payload binary installed at a fixed system location executes
// with full privilege, so an attacker able to replace it must not be
// able to ride an elevation request. [Verify] streams the installed
// payload through a keyed BLAKE3 digest and compares it against a
// digest pinned into the caller at build time; on mismatch (or an
// unreadable payload) it fails closed with a [ViolationError] and the
// caller never constructs the elevation request. This is an integrity
// check, not a secrecy boundary; constant-time comparison is
// irrelevant here.
//
// The keyed hash uses an ASCII domain key so the pinned digest cannot
// collide with any other hash of the same bytes in a different
// context.
package integrity
