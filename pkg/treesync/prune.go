package treesync

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/distbuild/pkg/errors"
)

// prune removes every unprotected destination entry. The destination root
// itself is never removed.
func (s *syncer) prune() error {
	if _, err := s.fs.Lstat(s.dst); err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Msg("Destination does not exist, nothing to prune")
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileSystem, "failed to stat destination %s", s.dst)
	}

	remaining, err := s.pruneDir(s.dst)
	if err != nil {
		return err
	}
	s.logger.Info().Int("remaining", remaining).Msg("Pruned destination")
	return nil
}

// pruneDir prunes the children of dir and returns how many of them remain,
// counting what a real run would leave when simulating.
func (s *syncer) pruneDir(dir string) (int, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileSystem, "failed to read directory %s", dir)
	}

	remaining := 0
	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		info, err := s.fs.Lstat(p)
		if err != nil {
			return 0, errors.Wrapf(err, errors.ErrFileSystem, "failed to stat %s", p)
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			if s.protect.Match(p) {
				s.files[p] = true
				remaining++
				continue
			}
			err = s.apply(Action{Phase: PhasePrune, Op: OpRemoveLink, Path: p}, func() error {
				return s.fs.Remove(p)
			})

		case info.IsDir():
			left, err := s.pruneDir(p)
			if err != nil {
				return 0, err
			}
			if left > 0 || s.protect.Match(p) {
				remaining++
				continue
			}
			s.pruned[p] = true
			err = s.apply(Action{Phase: PhasePrune, Op: OpRemoveDir, Path: p}, func() error {
				return s.fs.Remove(p)
			})
			if err != nil {
				return 0, err
			}

		default:
			if s.protect.Match(p) {
				s.files[p] = true
				remaining++
				continue
			}
			err = s.apply(Action{Phase: PhasePrune, Op: OpRemove, Path: p}, func() error {
				return s.fs.Remove(p)
			})
		}

		if err != nil {
			return 0, err
		}
	}
	return remaining, nil
}
