// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package inner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/run0edit/run0edit/lib/chattr"
	"github.com/run0edit/run0edit/lib/fscopy"
	"github.com/run0edit/run0edit/lib/pathcheck"
	"github.com/run0edit/run0edit/run0"
)

// Failure classes of the elevated workflow. Callers branch with
// errors.Is; every class maps to exit status 1 except ErrDeclined.
var (
	// ErrNotRegularFile means the target exists but is not a regular
	// file.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrNoDirectory means the target's containing directory does not
	// exist.
	ErrNoDirectory = errors.New("directory does not exist")

	// ErrReadOnlyFilesystem means the target sits on a read-only
	// mount.
	ErrReadOnlyFilesystem = errors.New("read-only filesystem")

	// ErrDeclined means the operator chose not to remove the
	// immutable attribute. This is a clean exit, not a failure.
	ErrDeclined = errors.New("immutable attribute removal declined")

	// ErrReadOnly means the target is unwritable for a reason other
	// than a read-only mount or an immutable attribute.
	ErrReadOnly = errors.New("read-only")

	// ErrEditFailed means the editor invocation could not run or
	// exited non-zero.
	ErrEditFailed = errors.New("failed to edit temporary file")

	// ErrContentsMismatch means the committed target does not match
	// the edited scratch file. This is only detectable, never
	// repairable, here.
	ErrContentsMismatch = errors.New("file contents mismatch")
)

// Workflow holds the elevated session's inputs. The function fields
// default to the real implementations; tests substitute them.
type Workflow struct {
	// Target is the file to edit, as passed by the unprivileged side.
	Target string

	// Scratch is the session's scratch file.
	Scratch string

	// Editor is the editor executable to run against the scratch file.
	Editor string

	// UID is the original unprivileged user, the identity the editor
	// runs as.
	UID int

	// Background is the background-color hint for the nested editor
	// invocation.
	Background string

	// Prompt asks the operator a yes/no question and reports the
	// answer. Nil declines, which is the safe non-interactive default.
	Prompt func(question string) bool

	// Launch runs a broker invocation and returns its exit status.
	// Nil means run0.Launch.
	Launch func(run0.Invocation) (int, error)

	// BrokerDirs override the directories searched for the run0
	// binary when building the nested editor invocation.
	BrokerDirs []string

	// Attrs manages the immutable attribute. Nil means
	// chattr.NewManager.
	Attrs *chattr.Manager

	// Access reports whether a path is readable and writable by this
	// process. Nil means a real access check; tests override it to
	// reach the immutable branch without dropping privileges.
	Access func(path string) bool

	// ReadOnlyFS probes whether a path is on a read-only filesystem.
	// Nil means pathcheck.ReadOnlyFilesystem.
	ReadOnlyFS func(path string) pathcheck.Tristate

	// Output receives the user-facing progress and failure messages.
	Output io.Writer

	// Logger records workflow steps.
	Logger *slog.Logger
}

// Run executes the elevated workflow. The returned error is one of
// the classes above (possibly wrapped); ErrDeclined and nil both mean
// the process should exit 0.
func (w *Workflow) Run() error {
	target, err := pathcheck.Resolve(w.Target)
	if err != nil {
		return err
	}

	exists, err := w.checkExists(target)
	if err != nil {
		return err
	}
	w.logger().Debug("classified target", "target", target, "exists", exists)

	// For an existing file the immutable attribute lives on the file;
	// for a file being created it lives on the directory that must
	// admit the new entry.
	attrPath := target
	if !exists {
		attrPath = filepath.Dir(target)
	}
	immutable, err := w.checkReadOnly(attrPath, !exists)
	if err != nil {
		if errors.Is(err, ErrDeclined) {
			// Normal outcome: nothing was touched.
			return ErrDeclined
		}
		return err
	}

	if exists {
		if err := fscopy.CopyContents(target, w.Scratch, false); err != nil {
			w.printf("run0edit: failed to copy %s to temporary file at %s", target, w.Scratch)
			return err
		}
	}

	if err := w.runEditor(); err != nil {
		return err
	}

	return w.commit(target, exists, immutable)
}

// checkExists classifies the target, rejecting anything that is not
// an existing regular file or a creatable path.
func (w *Workflow) checkExists(target string) (bool, error) {
	info, err := os.Lstat(target)
	if err != nil {
		parent := filepath.Dir(target)
		if errors.Is(err, unix.ENOTDIR) {
			w.printf("run0edit: invalid argument: directory does not exist")
			return false, fmt.Errorf("%s is not a directory: %w", parent, ErrNoDirectory)
		}
		if errors.Is(err, os.ErrNotExist) {
			if _, lerr := os.Lstat(parent); lerr != nil {
				w.printf("run0edit: invalid argument: directory does not exist")
				return false, fmt.Errorf("%s: %w", parent, ErrNoDirectory)
			}
			return false, nil
		}
		return false, fmt.Errorf("inspecting %s: %w", target, err)
	}
	if !info.Mode().IsRegular() {
		w.printf("run0edit: invalid argument: not a regular file")
		return false, fmt.Errorf("%s: %w", target, ErrNotRegularFile)
	}
	return true, nil
}

// checkReadOnly decides whether the edit can proceed and whether it
// requires manipulating the immutable attribute on path. isDir states
// whether path is the containing directory (file creation) rather
// than the file itself, which only changes the wording of the
// operator prompt.
func (w *Workflow) checkReadOnly(path string, isDir bool) (bool, error) {
	if w.access(path) {
		return false, nil
	}
	if w.readOnlyFS(path) == pathcheck.Yes {
		w.printf("run0edit: %s is on a read-only filesystem.", path)
		return false, fmt.Errorf("%s: %w", path, ErrReadOnlyFilesystem)
	}
	if w.attrs().IsImmutable(path) {
		if !w.promptRemoval(path, isDir) {
			w.printf("run0edit: user declined to remove immutable attribute; exiting.")
			return false, fmt.Errorf("%s: %w", path, ErrDeclined)
		}
		return true, nil
	}
	w.printf("run0edit: %s is read-only.", path)
	return false, fmt.Errorf("%s: %w", path, ErrReadOnly)
}

// promptRemoval asks the operator whether to temporarily strip the
// immutable attribute, with wording that distinguishes editing a file
// from creating one inside a protected directory.
func (w *Workflow) promptRemoval(path string, isDir bool) bool {
	w.printf("%s has the immutable attribute.", path)
	question := "Temporarily remove the attribute to edit the file? [y/N] "
	if isDir {
		question = "Temporarily remove attribute to create a file in the directory? [y/N] "
	}
	if w.Prompt == nil {
		return false
	}
	return w.Prompt(question)
}

// runEditor re-invokes the broker to run the editor as the original
// unprivileged user against the scratch file. It blocks for as long
// as the human edits.
func (w *Workflow) runEditor() error {
	invocation, err := run0.EditorInvocation(w.UID, w.Editor, w.Scratch, w.Background, w.BrokerDirs)
	if err != nil {
		w.printf("run0edit: failed to call run0 to start editor")
		return fmt.Errorf("%w: %w", ErrEditFailed, err)
	}
	status, err := w.launch(invocation)
	if err != nil {
		w.printf("run0edit: failed to edit temporary file at %s", w.Scratch)
		return fmt.Errorf("%w: %w", ErrEditFailed, err)
	}
	if status != 0 {
		w.printf("run0edit: failed to edit temporary file at %s", w.Scratch)
		return fmt.Errorf("%w: editor exited with code %d", ErrEditFailed, status)
	}
	return nil
}

// commit writes the scratch content back to the target when the edit
// changed anything, toggling the immutable attribute around the write
// when one was detected, then byte-verifies the result.
func (w *Workflow) commit(target string, exists, immutable bool) error {
	should, err := fscopy.ShouldCommit(target, w.Scratch, exists)
	if err != nil {
		w.printf("run0edit: unable to copy contents of temporary file at %s to %s", w.Scratch, target)
		return err
	}
	if !should {
		if exists {
			w.printf("run0edit: %s unchanged", target)
		} else {
			w.printf("run0edit: %s not created", target)
		}
		return nil
	}

	write := func() error {
		return fscopy.CopyContents(w.Scratch, target, !exists)
	}
	if immutable {
		attrPath := target
		if !exists {
			attrPath = filepath.Dir(target)
		}
		err = w.attrs().WithCleared(attrPath, write)
	} else {
		err = write()
	}
	if err != nil {
		var toggle *chattr.ToggleError
		if errors.As(err, &toggle) {
			w.printf("run0edit: failed to run chattr on %s", toggle.Path)
			w.printf("WARNING: the immutable attribute may have been removed!")
		} else {
			w.printf("run0edit: unable to copy contents of temporary file at %s to %s", w.Scratch, target)
		}
		return err
	}

	same, err := fscopy.SameContents(w.Scratch, target)
	if err != nil || !same {
		w.printf("WARNING: contents of %s does not match contents of edited temporary file.", target)
		w.printf("File contents may be corrupted!")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrContentsMismatch, err)
		}
		return fmt.Errorf("%s: %w", target, ErrContentsMismatch)
	}
	return nil
}

func (w *Workflow) access(path string) bool {
	if w.Access != nil {
		return w.Access(path)
	}
	return unix.Access(path, unix.R_OK|unix.W_OK) == nil
}

func (w *Workflow) readOnlyFS(path string) pathcheck.Tristate {
	if w.ReadOnlyFS != nil {
		return w.ReadOnlyFS(path)
	}
	return pathcheck.ReadOnlyFilesystem(path)
}

func (w *Workflow) launch(inv run0.Invocation) (int, error) {
	if w.Launch != nil {
		return w.Launch(inv)
	}
	return run0.Launch(inv)
}

func (w *Workflow) attrs() *chattr.Manager {
	if w.Attrs == nil {
		w.Attrs = chattr.NewManager()
		w.Attrs.Output = w.output()
	}
	return w.Attrs
}

func (w *Workflow) printf(format string, args ...any) {
	fmt.Fprintf(w.output(), format+"\n", args...)
}

func (w *Workflow) output() io.Writer {
	if w.Output != nil {
		return w.Output
	}
	return os.Stdout
}

func (w *Workflow) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
