// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package run0

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultPayloadPath is where the elevated payload binary is
// installed. The path is fixed: the outer binary verifies the pinned
// digest of whatever sits here before every elevation request.
const DefaultPayloadPath = "/usr/libexec/run0edit/run0edit-inner"

// StatusExecFailed is the exit status run0 reports when it could not
// construct the execution environment for the elevated process. With
// ProtectSystem=strict and an explicit ReadWritePaths list, the usual
// cause is that the target's directory does not exist or is denied by
// policy, so namespace setup fails before the payload ever runs.
const StatusExecFailed = 226

// defaultSearchDirs is where the broker binary is looked up, mirroring
// the default system path rather than the caller's PATH.
var defaultSearchDirs = []string{"/usr/local/bin", "/usr/bin", "/bin"}

// MissingCommandError means a command essential to the workflow could
// not be located on the system.
type MissingCommandError struct {
	Name string
}

func (e *MissingCommandError) Error() string {
	return fmt.Sprintf("command %q not found", e.Name)
}

// ExitError represents a non-zero exit from a broker invocation.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("run0 exited with code %d", e.Code)
}

// IsExitError checks if an error is an ExitError and returns the code.
func IsExitError(err error) (int, bool) {
	if exitErr, ok := err.(*ExitError); ok {
		return exitErr.Code, true
	}
	return 0, false
}

// Invocation is a fully built broker call, ready to launch.
type Invocation struct {
	// Argv is the complete argument vector, including the broker
	// binary itself.
	Argv []string

	// Env holds environment overrides appended to the inherited
	// environment.
	Env []string
}

// Options configures Build.
type Options struct {
	// Target is the resolved path of the file to edit.
	Target string

	// TargetExists reflects the session's one-time existence
	// classification. It decides whether the writable set names the
	// target itself or its parent directory; re-probing here would
	// reopen the race the single classification closed.
	TargetExists bool

	// Scratch is the path of the session's scratch file.
	Scratch string

	// Editor is the resolved editor executable.
	Editor string

	// Background is the optional background-color hint forwarded to
	// the payload for the nested editor invocation. Empty suppresses
	// terminal tinting.
	Background string

	// Debug forwards --debug to the payload.
	Debug bool

	// PayloadPath overrides DefaultPayloadPath. Tests point it at a
	// scratch binary.
	PayloadPath string

	// SearchDirs override the broker lookup directories.
	SearchDirs []string
}

// EscapeProperty escapes a path for embedding in a systemd property
// string. Backslashes and double quotes are the two characters that
// can terminate or extend a quoted property value, so exactly those
// are neutralized.
func EscapeProperty(path string) string {
	escaped := strings.ReplaceAll(path, `\`, `\\`)
	return strings.ReplaceAll(escaped, `"`, `\"`)
}

// Build constructs the broker invocation for an edit session: the
// audit description, the sandbox property baseline, the two-element
// writable set, and the payload argv. It fails with
// MissingCommandError when the broker or the payload binary cannot be
// located.
func Build(opts Options) (Invocation, error) {
	broker, err := findCommand("run0", opts.SearchDirs)
	if err != nil {
		return Invocation{}, err
	}

	payload := opts.PayloadPath
	if payload == "" {
		payload = DefaultPayloadPath
	}
	info, err := os.Stat(payload)
	if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return Invocation{}, &MissingCommandError{Name: payload}
	}

	argv := []string{
		broker,
		fmt.Sprintf(`--description=run0edit "%s"`, EscapeProperty(opts.Target)),
	}
	for _, property := range SandboxProperties {
		argv = append(argv, "--property="+property)
	}

	writable := opts.Target
	if !opts.TargetExists {
		writable = filepath.Dir(opts.Target)
	}
	argv = append(argv, fmt.Sprintf(`--property=ReadWritePaths="%s" "%s"`,
		EscapeProperty(writable), EscapeProperty(opts.Scratch)))

	argv = append(argv, payload, opts.Target, opts.Scratch, opts.Editor)
	argv = append(argv, "--background="+opts.Background)
	if opts.Debug {
		argv = append(argv, "--debug")
	}

	return Invocation{
		Argv: argv,
		// run0 rewrites the terminal title around the elevated
		// session; suppress that so the editor's own title survives.
		Env: []string{"SYSTEMD_ADJUST_TERMINAL_TITLE=false"},
	}, nil
}

// EditorInvocation constructs the nested broker call the elevated
// payload uses to run the editor as the original unprivileged user
// against the scratch file. The editor gets exactly one argument.
func EditorInvocation(uid int, editor, scratch, background string, searchDirs []string) (Invocation, error) {
	broker, err := findCommand("run0", searchDirs)
	if err != nil {
		return Invocation{}, err
	}
	return Invocation{
		Argv: []string{
			broker,
			fmt.Sprintf("--user=%d", uid),
			"--background=" + background,
			"--",
			editor,
			scratch,
		},
	}, nil
}

// Launch executes an invocation with inherited standard streams,
// blocking until the spawned process exits. It returns the process's
// exit status; a non-nil error means the process could not be started
// at all. There is no timeout: the elevated session contains an
// arbitrarily long human edit.
func Launch(inv Invocation) (int, error) {
	cmd := exec.Command(inv.Argv[0], inv.Argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), inv.Env...)

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("launching %s: %w", inv.Argv[0], err)
	}
	return 0, nil
}

// findCommand searches the given directories (or the default system
// path) for an executable.
func findCommand(name string, dirs []string) (string, error) {
	if len(dirs) == 0 {
		dirs = defaultSearchDirs
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Mode().Perm()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", &MissingCommandError{Name: name}
}
