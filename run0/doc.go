// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// Package run0 constructs and launches invocations of the run0
// privilege broker.
//
// The broker consumes a declarative property list: a
// description string for audit and process listings, an ordered list
// of sandbox restriction properties, and a ReadWritePaths property
// naming exactly the writable set: the resolved target (or its
// parent, for a file being created) and the session's scratch file.
// Everything else the elevated process sees is read-only or denied.
// Path content embedded in property strings is escaped with
// [EscapeProperty] so a hostile filename cannot break out of the
// property syntax.
//
// [Build] assembles the outer invocation that launches the elevated
// payload; [EditorInvocation] assembles the nested call the payload
// uses to run the interactive editor back under the original
// unprivileged identity. [Launch] executes an invocation and reports
// the broker's exit status, including [StatusExecFailed], the status
// run0 uses when it could not construct the execution environment at
// all (most commonly a missing target directory).
package run0
