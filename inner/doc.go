// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// Package inner is the elevated side of an edit session, executed by
// the run0edit-inner payload under the broker's sandbox.
//
// The [Workflow] sequence is: classify the target (regular file,
// creatable, or invalid), decide whether editing requires removing an
// immutable attribute (asking the operator when it does), stage the
// target's content into the scratch file, re-invoke the broker to run
// the editor as the original unprivileged user, and, only when the
// edit actually changed something, commit the scratch content back
// and byte-verify the result. When an immutable attribute was removed
// for the commit it is restored on every exit path, including
// failures mid-copy; that restoration is the one step that must never
// be skipped.
//
// An operator declining to remove the immutable attribute is a normal
// outcome, reported with [ErrDeclined] and mapped to the same exit
// status as an ordinary successful no-op.
//
// Interactive suspension points (the y/N prompt) and process
// launching are injectable fields so the state machine can be driven
// deterministically in tests.
package inner
