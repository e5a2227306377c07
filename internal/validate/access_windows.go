//go:build windows

package validate

import (
	"os"
	"path/filepath"
)

// Windows has no access(2); probe by creating and removing a temp file.
func accessWritable(path string) error {
	probe := filepath.Join(path, ".sdingest-writable")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}
