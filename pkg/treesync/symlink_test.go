package treesync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/matcher"
	"github.com/arthur-debert/distbuild/pkg/testutil"
)

func TestSyncSourceSymlinksAreSkipped(t *testing.T) {
	testutil.SkipOnWindows(t)

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	fsys := filesystem.NewOS()

	testutil.WriteTree(t, fsys, src, testutil.FileTree{
		"real.txt": "real",
		"lib":      testutil.FileTree{"mod.py": "mod"},
	})
	testutil.CreateSymlink(t, "real.txt", filepath.Join(src, "alias.txt"))
	testutil.CreateSymlink(t, "lib", filepath.Join(src, "liblink"))

	res, err := Sync(Options{
		SourceRoot: src,
		DestRoot:   dst,
		Include:    matcher.MustParse("*"),
		FS:         fsys,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"lib/mod.py", "real.txt"}, testutil.Files(t, fsys, dst))
	assert.Equal(t, 2, res.Count(OpSkip))
}

func TestSyncRemovesDestinationSymlinksWithoutFollowing(t *testing.T) {
	testutil.SkipOnWindows(t)

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	outside := filepath.Join(root, "outside")
	fsys := filesystem.NewOS()

	testutil.WriteTree(t, fsys, src, testutil.FileTree{})
	testutil.WriteTree(t, fsys, outside, testutil.FileTree{"precious.txt": "do not delete"})
	testutil.WriteTree(t, fsys, dst, testutil.FileTree{"kept.txt": "kept"})
	testutil.CreateSymlink(t, outside, filepath.Join(dst, "dirlink"))
	testutil.CreateSymlink(t, filepath.Join(outside, "precious.txt"), filepath.Join(dst, "filelink"))
	testutil.CreateSymlink(t, outside, filepath.Join(dst, "keptlink"))

	res, err := Sync(Options{
		SourceRoot: src,
		DestRoot:   dst,
		Protect:    matcher.MustParse("kept*"),
		FS:         fsys,
	})
	require.NoError(t, err)

	assert.False(t, testutil.SymlinkExists(t, filepath.Join(dst, "dirlink")))
	assert.False(t, testutil.SymlinkExists(t, filepath.Join(dst, "filelink")))
	assert.True(t, testutil.SymlinkExists(t, filepath.Join(dst, "keptlink")))
	assert.Equal(t, 2, res.Count(OpRemoveLink))

	data, err := os.ReadFile(filepath.Join(outside, "precious.txt"))
	require.NoError(t, err)
	assert.Equal(t, "do not delete", string(data))
}

func TestSyncReplacesProtectedSymlinkWithoutWritingThrough(t *testing.T) {
	testutil.SkipOnWindows(t)

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	outside := filepath.Join(root, "outside")
	fsys := filesystem.NewOS()

	testutil.WriteTree(t, fsys, src, testutil.FileTree{"settings.ini": "fresh"})
	testutil.WriteTree(t, fsys, outside, testutil.FileTree{"settings.ini": "do not overwrite"})
	testutil.WriteTree(t, fsys, dst, testutil.FileTree{})
	testutil.CreateSymlink(t, filepath.Join(outside, "settings.ini"), filepath.Join(dst, "settings.ini"))

	_, err := Sync(Options{
		SourceRoot: src,
		DestRoot:   dst,
		Include:    matcher.MustParse("*"),
		Protect:    matcher.MustParse("settings.ini"),
		FS:         fsys,
	})
	require.NoError(t, err)

	assert.False(t, testutil.SymlinkExists(t, filepath.Join(dst, "settings.ini")))
	data, err := os.ReadFile(filepath.Join(dst, "settings.ini"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))

	data, err = os.ReadFile(filepath.Join(outside, "settings.ini"))
	require.NoError(t, err)
	assert.Equal(t, "do not overwrite", string(data))
}

func TestSyncCopiesPermissionBits(t *testing.T) {
	testutil.SkipOnWindows(t)

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	fsys := filesystem.NewOS()

	testutil.WriteTree(t, fsys, src, testutil.FileTree{"run.sh": "#!/bin/sh\n"})
	testutil.Chmod(t, filepath.Join(src, "run.sh"), 0755)

	_, err := Sync(Options{
		SourceRoot: src,
		DestRoot:   dst,
		Include:    matcher.MustParse("*"),
		FS:         fsys,
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dst, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestSyncFileSystemErrorAborts(t *testing.T) {
	testutil.SkipOnWindows(t)
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	fsys := filesystem.NewOS()

	testutil.WriteTree(t, fsys, src, testutil.FileTree{"a.txt": "a"})
	testutil.WriteTree(t, fsys, dst, testutil.FileTree{"locked": testutil.FileTree{"old.txt": "old"}})
	testutil.Chmod(t, filepath.Join(dst, "locked"), 0555)
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(dst, "locked"), 0755) })

	_, err := Sync(Options{
		SourceRoot: src,
		DestRoot:   dst,
		Include:    matcher.MustParse("*"),
		FS:         fsys,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILESYSTEM")
}
