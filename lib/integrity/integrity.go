// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package integrity

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte keyed BLAKE3 digest of the elevated payload.
type Digest [32]byte

// payloadKey is the BLAKE3 domain key for payload digests. The byte
// values are the ASCII encoding of the domain name, zero-padded to 32
// bytes; readable ASCII keeps the key inspectable in hex dumps without
// sacrificing any cryptographic property.
var payloadKey = [32]byte{
	'r', 'u', 'n', '0', 'e', 'd', 'i', 't', '.', 'p', 'a', 'y', 'l', 'o', 'a', 'd',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashPayload computes the payload digest of the file at path. The
// file is streamed through the hash in chunks so memory use stays
// constant regardless of binary size.
func HashPayload(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher, err := blake3.NewKeyed(payloadKey[:])
	if err != nil {
		// NewKeyed only fails for a wrong key length, which the fixed
		// array size rules out.
		panic("integrity: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the hex encoding of a digest, the canonical
// form used for the build-time pin and in log output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing payload digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("payload digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// ViolationError reports that the installed payload does not match the
// pinned digest. Elevation must never be attempted after this error;
// it is treated as a potential tampering signal, not a transient
// failure.
type ViolationError struct {
	// Path is the payload's installation location.
	Path string
	// Err is set when the payload could not be read at all.
	Err error
}

func (e *ViolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payload at %s could not be verified: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("payload at %s does not match the pinned digest", e.Path)
}

func (e *ViolationError) Unwrap() error { return e.Err }

// Verify checks the file at path against the pinned hex digest.
// Any failure (unreadable payload, malformed pin, digest mismatch)
// yields a ViolationError: the gate fails closed.
func Verify(path, pinnedHex string) error {
	pinned, err := ParseDigest(pinnedHex)
	if err != nil {
		return &ViolationError{Path: path, Err: err}
	}
	actual, err := HashPayload(path)
	if err != nil {
		return &ViolationError{Path: path, Err: err}
	}
	if actual != pinned {
		return &ViolationError{Path: path}
	}
	return nil
}
