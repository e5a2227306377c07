// Package checksum computes content digests used to verify copies.
//
// Digests are SHA-256 on purpose: rsync's own change detection uses a
// 128-bit hash, so verifying with a different, stronger hash makes the
// reconciliation an independent check rather than trusting the copy
// tool's claim.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

const bufferSize = 64 * 1024 // 64KB buffer

// ErrFileNotAccessible reports that a path does not exist, is not a
// regular file, or could not be opened for reading.
var ErrFileNotAccessible = errors.New("file not accessible")

// FileSHA256 calculates the SHA-256 digest of a file and returns it as a
// lowercase hex string. The file is read in fixed-size chunks, so memory
// use is bounded regardless of file size.
func FileSHA256(filePath string) (string, error) {
	info, err := os.Lstat(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFileNotAccessible, filePath, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s: not a regular file", ErrFileNotAccessible, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFileNotAccessible, filePath, err)
	}
	defer file.Close()

	return SHA256(file)
}

// SHA256 calculates the SHA-256 digest from a reader and returns it as a
// lowercase hex string.
func SHA256(r io.Reader) (string, error) {
	hash := sha256.New()
	buffer := make([]byte, bufferSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if _, werr := hash.Write(buffer[:n]); werr != nil {
				return "", fmt.Errorf("write to hash: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
