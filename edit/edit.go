// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package edit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/run0edit/run0edit/lib/integrity"
	"github.com/run0edit/run0edit/lib/pathcheck"
	"github.com/run0edit/run0edit/run0"
)

// Config carries the explicit inputs of the unprivileged orchestrator.
// Nothing here is read from ambient process state at decision time, so
// the full sequencing can be driven in tests.
type Config struct {
	// Editor is the resolved editor executable.
	Editor string

	// Debug forwards --debug to the payload and re-reports failures
	// with their full error chains.
	Debug bool

	// Background is the optional background-color hint for the nested
	// editor invocation.
	Background string

	// PayloadPath is the elevated payload's installation location.
	// Empty means run0.DefaultPayloadPath.
	PayloadPath string

	// PinnedDigest is the build-time hex digest the installed payload
	// must match before elevation is requested.
	PinnedDigest string

	// BrokerDirs overrides the directories searched for the run0
	// broker. Nil means the standard system directories.
	BrokerDirs []string

	// Launch runs a built invocation and returns the broker's exit
	// status. Nil means run0.Launch. Tests substitute a recorder to
	// prove the broker is never reached on an integrity violation.
	Launch func(run0.Invocation) (int, error)

	// Logger records orchestration steps.
	Logger *slog.Logger

	// Stderr receives the one-line user-facing failure messages.
	Stderr io.Writer
}

// Edit runs one full edit session for path and returns the process
// exit code for it. The returned error, when non-nil, is the
// underlying condition for debug reporting; the user-facing sentence
// has already been written to Stderr.
func (c *Config) Edit(path string) (int, error) {
	session, err := newSession(path)
	if err != nil {
		c.printErr(rejectionSentence(err, path))
		return 1, err
	}
	c.logger().Debug("validated target", "path", session.Target, "state", session.State)

	payload := c.PayloadPath
	if payload == "" {
		payload = run0.DefaultPayloadPath
	}
	if err := integrity.Verify(payload, c.PinnedDigest); err != nil {
		c.printErr(fmt.Sprintf(
			"inner payload was not found at %s or did not match its pinned digest; refusing to elevate",
			payload))
		return 1, err
	}
	c.logger().Debug("payload digest verified", "payload", payload)

	if err := session.createScratch(); err != nil {
		c.printErr(fmt.Sprintf("unable to create a temporary file for %s", session.Target))
		return 1, err
	}

	invocation, err := run0.Build(run0.Options{
		Target:       session.Target,
		TargetExists: session.targetExists(),
		Scratch:      session.Scratch,
		Editor:       c.Editor,
		Background:   c.Background,
		Debug:        c.Debug,
		PayloadPath:  payload,
		SearchDirs:   c.BrokerDirs,
	})
	if err != nil {
		session.removeScratch(false)
		var missing *run0.MissingCommandError
		if errors.As(err, &missing) {
			c.printErr(fmt.Sprintf("command `%s` not found", missing.Name))
		} else {
			c.printErr(err.Error())
		}
		return 1, err
	}

	c.logger().Debug("launching broker", "argv", invocation.Argv)
	status, err := c.launch(invocation)
	if err != nil {
		session.removeScratch(false)
		c.printErr(fmt.Sprintf("failed to invoke run0 for %s", session.Target))
		return 1, err
	}

	switch {
	case status == run0.StatusExecFailed:
		// Namespace construction failed before the payload ran; with
		// ProtectSystem=strict this means the target's directory does
		// not exist or is policy-denied.
		c.printErr(fmt.Sprintf("No such directory %s", filepath.Dir(session.Target)))
		session.removeScratch(false)
		return 1, nil
	case status != 0:
		session.removeScratch(true)
		return status, nil
	}

	session.removeScratch(false)
	return 0, nil
}

// rejectionSentence maps a validator rejection to its user-facing
// sentence.
func rejectionSentence(err error, path string) string {
	resolved, resolveErr := pathcheck.Resolve(path)
	if resolveErr != nil {
		resolved = path
	}
	switch {
	case errors.Is(err, pathcheck.ErrTargetIsDirectory):
		return fmt.Sprintf("%s is a directory.", resolved)
	case errors.Is(err, pathcheck.ErrAlreadyWritable):
		return fmt.Sprintf("%s is writable by the current user; run0edit is unnecessary.", resolved)
	case errors.Is(err, pathcheck.ErrNoSuchDirectory):
		return fmt.Sprintf("No such directory %s", filepath.Dir(resolved))
	case errors.Is(err, pathcheck.ErrReadOnlyFilesystem):
		return fmt.Sprintf("%s is on a read-only filesystem.", resolved)
	}
	return err.Error()
}

func (c *Config) launch(inv run0.Invocation) (int, error) {
	if c.Launch != nil {
		return c.Launch(inv)
	}
	return run0.Launch(inv)
}

func (c *Config) printErr(message string) {
	fmt.Fprintf(c.stderr(), "run0edit: %s\n", message)
}

func (c *Config) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
