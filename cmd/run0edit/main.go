// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

// run0edit lets an authorized user edit a single root-owned (or
// otherwise unwritable) file through the run0 privilege broker, while
// the interactive editing step keeps running as the invoking user.
//
// Usage:
//
//	run0edit [--editor /path/to/editor] FILE...
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/run0edit/run0edit/edit"
	"github.com/run0edit/run0edit/lib/editorconf"
	"github.com/run0edit/run0edit/lib/version"
)

// pinnedPayloadDigest is the hex BLAKE3 digest of the run0edit-inner
// binary, injected at build time:
//
//	go build -ldflags "-X main.pinnedPayloadDigest=<digest>"
var pinnedPayloadDigest string

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("run0edit", pflag.ContinueOnError)
	editorFlag := flags.String("editor", "", "absolute path to text editor (optional)")
	debug := flags.Bool("debug", false, "re-report failures with full error chains")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")
	flags.Usage = func() { printUsage(flags) }
	if err := flags.MarkHidden("debug"); err != nil {
		panic(err)
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "run0edit: %v\n", err)
		return 2
	}
	if *showVersion {
		fmt.Printf("run0edit %s\n", version.Info())
		return 0
	}
	paths := flags.Args()
	if len(paths) == 0 {
		flags.Usage()
		return 2
	}

	logger := newLogger(*debug)

	editor, err := chooseEditor(*editorFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run0edit: %v\n", err)
		return 1
	}

	config := edit.Config{
		Editor:       editor,
		Debug:        *debug,
		PinnedDigest: pinnedPayloadDigest,
		Logger:       logger,
	}

	for _, path := range paths {
		code, err := config.Edit(path)
		if err != nil && *debug {
			logger.Error("edit failed", "path", path, "error", err)
		}
		if code != 0 {
			return code
		}
	}
	return 0
}

// chooseEditor resolves the --editor override or falls back to
// configuration-driven discovery.
func chooseEditor(explicit string) (string, error) {
	if explicit != "" {
		return editorconf.ResolveExplicit(explicit)
	}
	editor, err := editorconf.Discover()
	if err != nil {
		return "", fmt.Errorf("editor not found; install either nano or vi, "+
			"or write the path to the text editor of your choice to %s",
			editorconf.DefaultConfigPath)
	}
	return editor, nil
}

// newLogger builds the command logger: human-readable text on a
// terminal, JSON when stderr is piped.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug || os.Getenv("RUN0EDIT_DEBUG") != "" {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

func printUsage(flags *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `run0edit - edit a single file as root

USAGE
    run0edit [flags] FILE...

FLAGS
%s
The default choice of text editor may be configured at %s
`, flags.FlagUsages(), editorconf.DefaultConfigPath)
}
