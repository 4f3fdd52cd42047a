package filesystem

import (
	"io"
	"io/fs"
	"os"
)

// FS is the set of filesystem operations distbuild needs.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Open(name string) (io.ReadCloser, error)
	Create(name string, perm fs.FileMode) (io.WriteCloser, error)

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
	Glob(pattern string) ([]string, error)

	// Other operations
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Readlink(name string) (string, error)

	// Lstat falls back to Stat on filesystems without symlinks
	Lstat(name string) (fs.FileInfo, error)
}

// Exists reports whether name exists, without following a final symlink.
func Exists(fsys FS, name string) (bool, error) {
	_, err := fsys.Lstat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsDir reports whether name exists and is a directory.
func IsDir(fsys FS, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && info.IsDir()
}

// CopyFile copies the bytes and permission bits of src to dst, replacing dst.
// A symlink at dst is replaced, never written through. Timestamps and
// ownership are not carried over.
func CopyFile(fsys FS, src, dst string) (err error) {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}

	if existing, lerr := fsys.Lstat(dst); lerr == nil && existing.Mode()&fs.ModeSymlink != 0 {
		if err := fsys.Remove(dst); err != nil {
			return err
		}
	}

	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.Create(dst, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
