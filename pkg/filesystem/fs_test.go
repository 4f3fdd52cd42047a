package filesystem

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOS(t *testing.T) {
	fs := NewOS()
	assert.NotNil(t, fs)

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	testContent := []byte("hello world")

	require.NoError(t, fs.WriteFile(testFile, testContent, 0644))

	info, err := fs.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, "test.txt", info.Name())
	assert.Equal(t, int64(len(testContent)), info.Size())

	content, err := fs.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, testContent, content)

	subDir := filepath.Join(tmpDir, "sub", "dir")
	require.NoError(t, fs.MkdirAll(subDir, 0755))

	entries, err := fs.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2) // test.txt and sub/

	matches, err := fs.Glob(filepath.Join(tmpDir, "*.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{testFile}, matches)

	renamed := filepath.Join(tmpDir, "renamed.txt")
	require.NoError(t, fs.Rename(testFile, renamed))
	require.NoError(t, fs.Remove(renamed))

	exists, err := Exists(fs, renamed)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOSLstatDoesNotFollowSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	fs := NewOS()
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target")
	link := filepath.Join(tmpDir, "link")
	require.NoError(t, os.Mkdir(target, 0755))
	require.NoError(t, os.Symlink(target, link))

	info, err := fs.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	dest, err := fs.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, dest)
	assert.True(t, IsDir(fs, link))
}

func TestMemoryFS(t *testing.T) {
	fs := NewMemory()

	require.NoError(t, fs.MkdirAll("/root/a", 0755))
	require.NoError(t, fs.WriteFile("/root/a/one.txt", []byte("1"), 0600))
	require.NoError(t, fs.WriteFile("/root/a/two.txt", []byte("2"), 0644))

	entries, err := fs.ReadDir("/root/a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "one.txt", entries[0].Name())
	assert.False(t, entries[0].IsDir())

	_, err = fs.ReadFile("/root/a")
	assert.Error(t, err, "reading a directory must fail")

	matches, err := fs.Glob("/root/a/*.txt")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	info, err := fs.Lstat("/root/a/one.txt")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestCopyFile(t *testing.T) {
	fs := NewMemory()
	require.NoError(t, fs.WriteFile("/src/run.sh", []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, fs.MkdirAll("/dst", 0755))
	require.NoError(t, fs.WriteFile("/dst/run.sh", []byte("old contents that are longer"), 0644))

	require.NoError(t, CopyFile(fs, "/src/run.sh", "/dst/run.sh"))

	content, err := fs.ReadFile("/dst/run.sh")
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(content))
}

func TestCopyFileReplacesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	fs := NewOS()
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src.txt")
	outside := filepath.Join(tmpDir, "outside.txt")
	dst := filepath.Join(tmpDir, "dst.txt")
	require.NoError(t, fs.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, fs.WriteFile(outside, []byte("untouched"), 0644))
	require.NoError(t, os.Symlink(outside, dst))

	require.NoError(t, CopyFile(fs, src, dst))

	info, err := fs.Lstat(dst)
	require.NoError(t, err)
	assert.Zero(t, info.Mode()&os.ModeSymlink, "dst is a regular file now")

	content, err := fs.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	content, err = fs.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "untouched", string(content))
}

func TestCopyFileMissingSource(t *testing.T) {
	fs := NewMemory()
	err := CopyFile(fs, "/nope", "/dst")
	assert.True(t, os.IsNotExist(err))
}
