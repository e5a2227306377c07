package volume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaRoot(t *testing.T) {
	noEnv := func(string) string { return "" }

	tests := []struct {
		name     string
		goos     string
		getenv   func(string) string
		existing map[string]bool
		want     string
		wantErr  error
	}{
		{
			name: "windows drive letter",
			goos: "windows",
			want: `D:\`,
		},
		{
			name:     "chromeos removable",
			goos:     "linux",
			getenv:   func(key string) string { return "1" },
			existing: map[string]bool{"/mnt/chromeos/MyFiles/Removable": true},
			want:     "/mnt/chromeos/MyFiles/Removable",
		},
		{
			name:     "macos volumes",
			goos:     "darwin",
			existing: map[string]bool{"/Volumes": true, "/media": true},
			want:     "/Volumes",
		},
		{
			name:     "linux media",
			goos:     "linux",
			existing: map[string]bool{"/media": true, "/mnt": true},
			want:     "/media",
		},
		{
			name:     "linux mnt fallback",
			goos:     "linux",
			existing: map[string]bool{"/mnt": true},
			want:     "/mnt",
		},
		{
			name:    "nothing exists",
			goos:    "linux",
			wantErr: ErrMediaRootNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := tt.getenv
			if getenv == nil {
				getenv = noEnv
			}
			exists := func(path string) bool { return tt.existing[path] }

			got, err := mediaRoot(tt.goos, getenv, exists)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "SD_CARD"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "USB"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0644))

	volumes, err := List(root)
	require.NoError(t, err)

	paths := make([]string, 0, len(volumes))
	for _, v := range volumes {
		paths = append(paths, v.Path)
	}
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "SD_CARD"),
		filepath.Join(root, "USB"),
	}, paths)
}

func TestListMissingRoot(t *testing.T) {
	volumes, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, volumes)
}

func TestGetInfo(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "DCIM", "100MSDCF"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "DCIM", "100MSDCF", "img_001.jpg"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "DCIM", "100MSDCF", "img_002.jpg"), []byte("b"), 0644))

	info, err := GetInfo(root)
	require.NoError(t, err)

	assert.Equal(t, root, info.Path)
	assert.Equal(t, 2, info.NumFiles)
	assert.Equal(t, 2, info.NumDirs)
	if assert.NotNil(t, info.Usage) {
		assert.Greater(t, info.Usage.Total, uint64(0))
	}
}

func TestGetInfoMissingPath(t *testing.T) {
	_, err := GetInfo(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
