package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for relPath, content := range files {
		path := filepath.Join(root, relPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":              "hello",
		"b.txt":              "world",
		"DCIM/img_001.jpg":   "raw data",
		"DCIM/sub/thumb.jpg": "thumb",
	})

	ix, err := NewBuilder().Build(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 4, ix.Len())

	digest, ok := ix.Digest("a.txt")
	require.True(t, ok)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", digest)

	digest, ok = ix.Digest("b.txt")
	require.True(t, ok)
	assert.Equal(t, "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7", digest)

	_, ok = ix.Digest("missing.txt")
	assert.False(t, ok)
}

func TestBuildDiscoveryOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":        "1",
		"b.txt":        "2",
		"sub/c.txt":    "3",
		"sub/d.txt":    "4",
		"z_last/e.txt": "5",
	})

	// WalkDir visits entries in lexical order, files before descending
	// into sibling directories at the same level.
	want := []string{
		"a.txt",
		"b.txt",
		filepath.Join("sub", "c.txt"),
		filepath.Join("sub", "d.txt"),
		filepath.Join("z_last", "e.txt"),
	}

	ix, err := NewBuilder().Build(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, want, ix.Paths())
}

func TestBuildParallelismDoesNotChangeResult(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for _, name := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		files[filepath.Join("dir", name+".dat")] = name + " contents"
	}
	writeTree(t, root, files)

	sequential, err := NewBuilder(WithWorkers(1)).Build(context.Background(), root)
	require.NoError(t, err)

	parallel, err := NewBuilder(WithWorkers(8)).Build(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, sequential.Paths(), parallel.Paths())
	for _, relPath := range sequential.Paths() {
		wantDigest, _ := sequential.Digest(relPath)
		gotDigest, ok := parallel.Digest(relPath)
		require.True(t, ok)
		assert.Equal(t, wantDigest, gotDigest)
	}
}

func TestBuildExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.jpg":          "keep",
		".Trashes/junk.bin": "junk",
		"notes.tmp":         "scratch",
		"sub/also.tmp":      "scratch",
		"sub/keep.raw":      "keep",
	})

	ix, err := NewBuilder(WithExcludes([]string{".Trashes/", "**/*.tmp", "*.tmp"})).
		Build(context.Background(), root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"keep.jpg", filepath.Join("sub", "keep.raw")}, ix.Paths())
}

func TestBuildSkipsIrregularFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"real.txt": "data"})
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	ix, err := NewBuilder().Build(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"real.txt"}, ix.Paths())
}

func TestBuildInvalidRoot(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewBuilder().Build(context.Background(), filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		_, err := NewBuilder().Build(context.Background(), path)
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})
}

func TestBuildEmptyTree(t *testing.T) {
	ix, err := NewBuilder().Build(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Paths())
}
