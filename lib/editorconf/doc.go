// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// Package editorconf chooses the text editor that will be run against
// the scratch file.
//
// Discovery checks, in order: the YAML configuration file at
// /etc/run0edit/config.yaml, the legacy single-line editor.conf, and
// finally well-known fallback editors (nano, then vi) on the default
// system path. There is no environment-variable discovery: the editor
// runs inside the elevated session's sandbox, and honoring EDITOR or
// VISUAL would let an unprivileged environment pick the binary a
// privileged workflow launches.
package editorconf
