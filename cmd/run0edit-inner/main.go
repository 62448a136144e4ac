// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// run0edit-inner is the elevated payload launched by run0edit through
// the run0 broker. It is not meant to be run directly: it expects the
// broker's sandbox, the SUDO_UID variable run0 sets, and an argument
// vector built by the outer binary.
//
// Argv: TARGET SCRATCH EDITOR [--background=COLOR] [--debug]
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/run0edit/run0edit/inner"
	"github.com/run0edit/run0edit/lib/chattr"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	workflow, debug, code := parseArgs(args)
	if workflow == nil {
		return code
	}

	uid, err := callerUID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "run0edit-inner: %v\n", err)
		return 2
	}
	workflow.UID = uid

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	workflow.Logger = logger

	attrs := chattr.NewManager()
	attrs.Logger = logger
	workflow.Attrs = attrs
	workflow.Prompt = askOperator

	if err := workflow.Run(); err != nil {
		if errors.Is(err, inner.ErrDeclined) {
			// Declining is a normal outcome; nothing was changed.
			return 0
		}
		if debug {
			logger.Error("edit workflow failed", "error", err)
		}
		return 1
	}
	return 0
}

// parseArgs enforces the strict payload argument contract. It returns
// a nil workflow and the usage exit code on any deviation.
func parseArgs(args []string) (*inner.Workflow, bool, int) {
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "run0edit-inner: error: too few arguments")
		return nil, false, 2
	}
	workflow := &inner.Workflow{
		Target:  args[0],
		Scratch: args[1],
		Editor:  args[2],
	}
	debug := false
	for _, arg := range args[3:] {
		switch {
		case arg == "--debug" && !debug:
			debug = true
		case strings.HasPrefix(arg, "--background="):
			workflow.Background = strings.TrimPrefix(arg, "--background=")
		default:
			fmt.Fprintln(os.Stderr, "run0edit-inner: error: too many arguments")
			return nil, false, 2
		}
	}
	return workflow, debug, 0
}

// callerUID returns the original unprivileged user's UID, which run0
// exposes as SUDO_UID. A missing value means this process was not
// launched by the broker, and running the editor as root would defeat
// the identity drop.
func callerUID() (int, error) {
	value, ok := os.LookupEnv("SUDO_UID")
	if !ok {
		return 0, errors.New("SUDO_UID is not set; run0edit-inner must be launched by run0")
	}
	uid, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid SUDO_UID %q", value)
	}
	return uid, nil
}

// askOperator reads a y/N answer from the terminal. A non-terminal
// stdin always answers no, so non-interactive runs never strip
// protection.
func askOperator(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Print(question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
}
