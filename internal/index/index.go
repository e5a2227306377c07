// Package index builds checksum indexes of directory trees.
//
// An Index maps every regular file under a root to its content digest
// and remembers the order files were discovered during the walk. The
// reconciliation step relies on that order when writing manifests, so
// it is captured by the sequential walk and never depends on how
// hashing is scheduled.
package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"sdingest/internal/checksum"
	"sdingest/internal/logging"
	"sdingest/internal/validate"
)

// ErrInvalidRoot reports that the index root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid root directory")

// DefaultWorkers bounds the hashing pool when no override is given.
// Hashing is I/O bound against a single volume, so more workers than
// this yields no benefit.
var DefaultWorkers = min(8, runtime.GOMAXPROCS(0))

// Index is an immutable snapshot of one directory tree: relative file
// path to lowercase hex digest, plus the discovery order of the paths.
type Index struct {
	root    string
	order   []string
	digests map[string]string
}

// Root returns the absolute root the index was built from.
func (ix *Index) Root() string { return ix.root }

// Len returns the number of indexed files.
func (ix *Index) Len() int { return len(ix.order) }

// Digest returns the digest recorded for relPath.
func (ix *Index) Digest(relPath string) (string, bool) {
	digest, ok := ix.digests[relPath]
	return digest, ok
}

// Paths returns the indexed relative paths in discovery order.
func (ix *Index) Paths() []string {
	paths := make([]string, len(ix.order))
	copy(paths, ix.order)
	return paths
}

// Builder walks a directory tree and hashes every regular file into an Index.
type Builder struct {
	excludes []string
	workers  int
}

// Option configures a Builder.
type Option func(*Builder)

// WithExcludes sets shell-style patterns (doublestar syntax) for
// relative paths to leave out of the index. Patterns ending in "/"
// exclude whole directories.
func WithExcludes(patterns []string) Option {
	return func(b *Builder) { b.excludes = patterns }
}

// WithWorkers bounds the hashing pool. Values below 1 fall back to the
// default.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// NewBuilder creates an index builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{workers: DefaultWorkers}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build walks root and returns a fully materialized Index. Files that
// are not regular or cannot be read are skipped with a warning; a
// single bad file never aborts the walk. The root itself must be a
// readable directory or Build fails with ErrInvalidRoot.
func (b *Builder) Build(ctx context.Context, root string) (*Index, error) {
	logger := logging.GetLogger("index")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}
	if !validate.IsDirectory(absRoot) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, absRoot)
	}

	// Sequential walk captures discovery order.
	var relPaths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			logger.Warn().Str("path", path).Err(err).Msg("Skipping unreadable entry")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		relForward := filepath.ToSlash(relPath)

		if d.IsDir() {
			if path != absRoot && isExcluded(relForward+"/", b.excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcluded(relForward, b.excludes) {
			return nil
		}
		if !d.Type().IsRegular() {
			logger.Warn().Str("path", path).Msg("Skipping irregular file")
			return nil
		}

		relPaths = append(relPaths, relPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	// Hash in parallel; results land in a slice parallel to relPaths so
	// discovery order never depends on completion order.
	digests := make([]string, len(relPaths))
	failed := make([]bool, len(relPaths))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(b.workers)
	for i, relPath := range relPaths {
		i, relPath := i, relPath
		g.Go(func() error {
			digest, err := checksum.FileSHA256(filepath.Join(absRoot, relPath))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn().Str("path", relPath).Err(err).Msg("Skipping unreadable file")
				failed[i] = true
				return nil
			}
			digests[i] = digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := &Index{
		root:    absRoot,
		order:   make([]string, 0, len(relPaths)),
		digests: make(map[string]string, len(relPaths)),
	}
	for i, relPath := range relPaths {
		if failed[i] {
			continue
		}
		ix.order = append(ix.order, relPath)
		ix.digests[relPath] = digests[i]
	}

	logger.Debug().Str("root", absRoot).Int("files", ix.Len()).Msg("Index built")
	return ix, nil
}

func isExcluded(relPath string, excludes []string) bool {
	for _, pattern := range excludes {
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			trimmed := strings.TrimSuffix(relPath, "/")
			if matched, _ := doublestar.Match(dirPattern, trimmed); matched {
				return true
			}
			parts := strings.Split(trimmed, "/")
			for i := 1; i <= len(parts); i++ {
				if matched, _ := doublestar.Match(dirPattern, strings.Join(parts[:i], "/")); matched {
					return true
				}
			}
		} else if !strings.HasSuffix(relPath, "/") {
			if matched, _ := doublestar.Match(pattern, relPath); matched {
				return true
			}
		}
	}
	return false
}
