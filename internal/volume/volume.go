// Package volume discovers removable media mounted on the host.
//
// The locator supplies a default media root when the caller gives no
// explicit path; an explicit path is always preferred and the core
// engine packages never call the locator themselves.
package volume

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"sdingest/internal/logging"
	"sdingest/internal/validate"
)

// ErrMediaRootNotFound reports that no platform media root exists.
var ErrMediaRootNotFound = errors.New("media root not found")

// Volume is a directory under the media root that may hold removable media.
type Volume struct {
	Path string
}

// Info describes one volume in detail. Usage is nil when the platform
// could not report disk usage.
type Info struct {
	Path     string
	Usage    *Usage
	NumFiles int
	NumDirs  int
}

// Usage holds byte capacities of the filesystem backing a volume.
type Usage struct {
	Total uint64
	Used  uint64
	Free  uint64
}

// MediaRoot returns the platform directory under which removable media
// are mounted, trying an ordered list of candidates.
func MediaRoot() (string, error) {
	return mediaRoot(runtime.GOOS, os.Getenv, dirExists)
}

func mediaRoot(goos string, getenv func(string) string, exists func(string) bool) (string, error) {
	if goos == "windows" {
		return `D:\`, nil
	}

	// ChromeOS mounts removable media under its own tree.
	if getenv("CHROMEOS") != "" && exists("/mnt/chromeos/MyFiles/Removable") {
		return "/mnt/chromeos/MyFiles/Removable", nil
	}

	candidates := []string{
		"/mnt/chromeos/removable",
		"/media/removable",
		"/Volumes",
		"/media",
		"/mnt",
	}
	for _, candidate := range candidates {
		if exists(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: no candidate directory exists", ErrMediaRootNotFound)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// List returns the volumes mounted under mediaPath, one per immediate
// subdirectory. When mediaPath is empty the platform media root is used.
// A missing or invalid media root yields an empty list.
func List(mediaPath string) ([]Volume, error) {
	if mediaPath == "" {
		root, err := MediaRoot()
		if err != nil {
			return nil, err
		}
		mediaPath = root
	}

	if !validate.IsDirectory(mediaPath) {
		return []Volume{}, nil
	}

	entries, err := os.ReadDir(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("read media root: %w", err)
	}

	volumes := []Volume{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		volumes = append(volumes, Volume{Path: filepath.Join(mediaPath, entry.Name())})
	}

	return volumes, nil
}

// GetInfo returns capacity and content counts for the volume at path.
func GetInfo(path string) (*Info, error) {
	logger := logging.GetLogger("volume")

	if !validate.IsDirectory(path) {
		return nil, fmt.Errorf("volume path is not a directory: %s", path)
	}

	usage, err := diskUsage(path)
	if err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("Disk usage unavailable")
		usage = nil
	}

	numFiles := 0
	numDirs := 0
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn().Str("path", p).Err(err).Msg("Skipping unreadable entry")
			return nil
		}
		if p == path {
			return nil
		}
		if d.IsDir() {
			numDirs++
		} else {
			numFiles++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk volume: %w", err)
	}

	return &Info{
		Path:     path,
		Usage:    usage,
		NumFiles: numFiles,
		NumDirs:  numDirs,
	}, nil
}
