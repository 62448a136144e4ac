// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package fscopy

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// CopyContents copies the bytes of src to dst. No attribute or
// ownership metadata is copied. When create is true the destination
// must not exist yet (exclusive create); when false it must already
// exist (no O_CREAT, so a sticky shared-write directory cannot hand
// us someone else's file). Any I/O error is returned as-is, wrapped;
// no content is ever invented on failure.
func CopyContents(src, dst string, create bool) error {
	flags := unix.O_WRONLY | unix.O_TRUNC | unix.O_NOFOLLOW
	if create {
		flags |= unix.O_CREAT | unix.O_EXCL
	}

	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	defer source.Close()

	fd, err := unix.Open(dst, flags, 0o644)
	if err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	dest := os.NewFile(uintptr(fd), dst)

	buffer := make([]byte, os.Getpagesize())
	if _, err := io.CopyBuffer(dest, source, buffer); err != nil {
		dest.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}

// SameContents reports whether the two files are byte-for-byte equal.
func SameContents(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, fmt.Errorf("comparing %s and %s: %w", a, b, err)
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, fmt.Errorf("comparing %s and %s: %w", a, b, err)
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fileA, err := os.Open(a)
	if err != nil {
		return false, fmt.Errorf("comparing %s and %s: %w", a, b, err)
	}
	defer fileA.Close()
	fileB, err := os.Open(b)
	if err != nil {
		return false, fmt.Errorf("comparing %s and %s: %w", a, b, err)
	}
	defer fileB.Close()

	size := os.Getpagesize()
	bufA := make([]byte, size)
	bufB := make([]byte, size)
	for {
		lenA, errA := io.ReadFull(fileA, bufA)
		lenB, errB := io.ReadFull(fileB, bufB)
		if lenA != lenB || !bytes.Equal(bufA[:lenA], bufB[:lenB]) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			if errB == io.EOF || errB == io.ErrUnexpectedEOF {
				return true, nil
			}
			return false, nil
		}
		if errA != nil {
			return false, fmt.Errorf("comparing %s and %s: %w", a, b, errA)
		}
		if errB != nil {
			return false, fmt.Errorf("comparing %s and %s: %w", a, b, errB)
		}
	}
}

// ShouldCommit reports whether the scratch file needs to be copied
// back to the target. A pre-existing target is committed only when the
// scratch content differs from it; a new target only when the scratch
// file is non-empty (saving nothing in the editor means "do not
// create").
func ShouldCommit(target, scratch string, targetExists bool) (bool, error) {
	if targetExists {
		same, err := SameContents(scratch, target)
		if err != nil {
			return false, err
		}
		return !same, nil
	}
	info, err := os.Stat(scratch)
	if err != nil {
		return false, fmt.Errorf("checking scratch file %s: %w", scratch, err)
	}
	return info.Size() > 0, nil
}
