// Package manifest records the file list of a distribution directory and
// detects drift against it.
//
// The manifest is a plain text file named MANIFEST at the root of the
// distribution, holding one slash-separated relative path per line.
package manifest

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// FileName is the name of the manifest file inside the distribution root.
const FileName = "MANIFEST"

// Manifest reads, writes and compares the manifest of one directory.
type Manifest struct {
	root   string
	fs     filesystem.FS
	logger zerolog.Logger
}

// New returns the manifest of root. A nil fsys uses the OS filesystem.
func New(root string, fsys filesystem.FS) *Manifest {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Manifest{
		root:   root,
		fs:     fsys,
		logger: logging.GetLogger("manifest").With().Str("root", root).Logger(),
	}
}

// Root returns the directory the manifest describes.
func (m *Manifest) Root() string {
	return m.root
}

// Path returns the location of the manifest file.
func (m *Manifest) Path() string {
	return filepath.Join(m.root, FileName)
}

// Exists reports whether the manifest file is present.
func (m *Manifest) Exists() bool {
	info, err := m.fs.Stat(m.Path())
	return err == nil && !info.IsDir()
}

// Snapshot returns the relative path of every non-directory entry below the
// root, sorted. Symlinks are listed but never followed.
func (m *Manifest) Snapshot() ([]string, error) {
	var out []string
	if err := m.walk(m.root, &out); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (m *Manifest) walk(dir string, out *[]string) error {
	entries, err := m.fs.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "failed to read directory %s", dir)
	}

	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		info, err := m.fs.Lstat(p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "failed to stat %s", p)
		}

		if info.IsDir() && info.Mode()&fs.ModeSymlink == 0 {
			if err := m.walk(p, out); err != nil {
				return err
			}
			continue
		}

		rel, err := filepath.Rel(m.root, p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "failed to relativize %s", p)
		}
		*out = append(*out, filepath.ToSlash(rel))
	}
	return nil
}

// Members returns Snapshot without the manifest file itself.
func (m *Manifest) Members() ([]string, error) {
	files, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return without(files, FileName), nil
}

// Write stores the current members in the manifest file, replacing it. The
// manifest never lists itself. When simulate is set nothing is written.
func (m *Manifest) Write(simulate bool) ([]string, error) {
	files, err := m.Members()
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("file", m.Path()).
		Int("entries", len(files)).
		Bool("simulate", simulate).
		Msg("Writing manifest")
	if simulate {
		return files, nil
	}

	var buf bytes.Buffer
	for _, f := range files {
		buf.WriteString(f)
		buf.WriteByte('\n')
	}
	if err := m.fs.WriteFile(m.Path(), buf.Bytes(), 0644); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "failed to write manifest %s", m.Path())
	}
	return files, nil
}

// Read returns the entries of the manifest file in file order. Surrounding
// whitespace is trimmed and blank lines are skipped.
func (m *Manifest) Read() ([]string, error) {
	data, err := m.fs.ReadFile(m.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrManifestMissing, "missing manifest file: %s", m.Path())
		}
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "failed to read manifest %s", m.Path())
	}

	var out []string
	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "failed to parse manifest %s", m.Path())
	}
	return out, nil
}

// Compare diffs the manifest against the live tree, ignoring the manifest
// entry on both sides. It never modifies anything.
func (m *Manifest) Compare() (*Diff, error) {
	recorded, err := m.Read()
	if err != nil {
		return nil, err
	}
	live, err := m.Snapshot()
	if err != nil {
		return nil, err
	}

	m.logger.Info().Str("file", m.Path()).Msg("Comparing manifest")

	want := toSet(without(recorded, FileName))
	have := toSet(without(live, FileName))

	diff := &Diff{Removed: []string{}, Added: []string{}}
	for p := range want {
		if !have[p] {
			diff.Removed = append(diff.Removed, p)
		}
	}
	for p := range have {
		if !want[p] {
			diff.Added = append(diff.Added, p)
		}
	}
	sort.Strings(diff.Removed)
	sort.Strings(diff.Added)

	if !diff.Match() {
		m.logger.Warn().
			Int("removed", len(diff.Removed)).
			Int("added", len(diff.Added)).
			Msg("Manifest differs from distribution")
	}
	return diff, nil
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		if p != name {
			out = append(out, p)
		}
	}
	return out
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, p := range list {
		set[p] = true
	}
	return set
}
