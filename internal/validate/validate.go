// Package validate provides advisory pre-checks for ingest paths.
//
// These checks short-circuit precondition chains cleanly instead of
// raising: passing them does not guarantee later copy or verify steps
// succeed, since the filesystem can change underneath us.
package validate

import (
	"os"

	"sdingest/internal/logging"
)

// IsDirectory reports whether path exists and is a directory.
// Failures are logged rather than returned.
func IsDirectory(path string) bool {
	logger := logging.GetLogger("validate")

	info, err := os.Stat(path)
	if err != nil {
		logger.Error().Str("path", path).Err(err).Msg("Path does not exist")
		return false
	}
	if !info.IsDir() {
		logger.Error().Str("path", path).Msg("Path is not a directory")
		return false
	}
	return true
}

// IsWritable reports whether the process can write to path.
func IsWritable(path string) bool {
	if err := accessWritable(path); err != nil {
		logger := logging.GetLogger("validate")
		logger.Error().Str("path", path).Err(err).Msg("Path is not writable")
		return false
	}
	return true
}
