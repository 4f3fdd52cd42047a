package testutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"testing"

	"github.com/arthur-debert/distbuild/pkg/filesystem"
)

// FileTree describes a directory: string values are file contents and
// FileTree values are subdirectories.
type FileTree map[string]interface{}

// WriteTree creates tree below base in fsys.
func WriteTree(t *testing.T, fsys filesystem.FS, base string, tree FileTree) {
	t.Helper()

	if err := fsys.MkdirAll(base, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", base, err)
	}

	for name, content := range tree {
		fullPath := filepath.Join(base, name)

		switch v := content.(type) {
		case string:
			if err := fsys.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
				t.Fatalf("Failed to create directory for %s: %v", fullPath, err)
			}
			if err := fsys.WriteFile(fullPath, []byte(v), 0644); err != nil {
				t.Fatalf("Failed to write file %s: %v", fullPath, err)
			}
		case FileTree:
			WriteTree(t, fsys, fullPath, v)
		default:
			t.Fatalf("Invalid file tree content type for %s: %T", name, content)
		}
	}
}

// Snapshot returns every entry below root keyed by its slash-separated
// relative path. Directories map to "/", symlinks to "-> target" and files to
// their content.
func Snapshot(t *testing.T, fsys filesystem.FS, root string) map[string]string {
	t.Helper()

	out := make(map[string]string)
	if ok, _ := filesystem.Exists(fsys, root); !ok {
		return out
	}
	snapshotDir(t, fsys, root, root, out)
	return out
}

func snapshotDir(t *testing.T, fsys filesystem.FS, root, dir string, out map[string]string) {
	t.Helper()

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)

		info, err := fsys.Lstat(p)
		if err != nil {
			t.Fatalf("Failed to stat %s: %v", p, err)
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			target, err := fsys.Readlink(p)
			if err != nil {
				t.Fatalf("Failed to read link %s: %v", p, err)
			}
			out[rel] = "-> " + target
		case info.IsDir():
			out[rel] = "/"
			snapshotDir(t, fsys, root, p, out)
		default:
			data, err := fsys.ReadFile(p)
			if err != nil {
				t.Fatalf("Failed to read file %s: %v", p, err)
			}
			out[rel] = string(data)
		}
	}
}

// Files returns the sorted relative paths of every non-directory entry below
// root.
func Files(t *testing.T, fsys filesystem.FS, root string) []string {
	t.Helper()

	files := []string{}
	for rel, content := range Snapshot(t, fsys, root) {
		if content != "/" {
			files = append(files, rel)
		}
	}
	sort.Strings(files)
	return files
}

// Dirs returns the sorted relative paths of every directory below root.
func Dirs(t *testing.T, fsys filesystem.FS, root string) []string {
	t.Helper()

	dirs := []string{}
	for rel, content := range Snapshot(t, fsys, root) {
		if content == "/" {
			dirs = append(dirs, rel)
		}
	}
	sort.Strings(dirs)
	return dirs
}
