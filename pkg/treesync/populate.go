package treesync

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
)

type copyJob struct {
	src string
	dst string
}

// populate copies every selected source file into the destination. The whole
// plan is collected before the first copy.
func (s *syncer) populate() error {
	var jobs []copyJob
	if err := s.plan(s.src, &jobs); err != nil {
		return err
	}

	for _, job := range jobs {
		if err := s.ensureDir(filepath.Dir(job.dst)); err != nil {
			return err
		}
		err := s.apply(Action{Phase: PhasePopulate, Op: OpCopy, Path: job.src, Target: job.dst}, func() error {
			return filesystem.CopyFile(s.fs, job.src, job.dst)
		})
		if err != nil {
			return err
		}
		s.files[job.dst] = true
	}

	s.logger.Info().Int("copied", len(jobs)).Msg("Populated destination")
	return nil
}

// plan walks dir top-down in name order and appends a job for every selected
// regular file.
func (s *syncer) plan(dir string, jobs *[]copyJob) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "failed to read directory %s", dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		if p == s.dst {
			continue
		}

		info, err := s.fs.Lstat(p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "failed to stat %s", p)
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
			if err := s.plan(p, jobs); err != nil {
				return err
			}
		case mode&fs.ModeSymlink != 0, !mode.IsRegular():
			s.record(Action{Phase: PhasePopulate, Op: OpSkip, Path: p})
		case s.include.Match(p):
			*jobs = append(*jobs, copyJob{src: p, dst: s.target(p)})
		}
	}
	return nil
}

// ensureDir creates dir and its parents in the destination when missing. A
// directory pruned in this run counts as missing even while simulating.
func (s *syncer) ensureDir(dir string) error {
	if s.made[dir] {
		return nil
	}
	if !s.pruned[dir] && filesystem.IsDir(s.fs, dir) {
		s.made[dir] = true
		return nil
	}

	err := s.apply(Action{Phase: PhasePopulate, Op: OpMkdir, Path: dir}, func() error {
		return s.fs.MkdirAll(dir, 0755)
	})
	if err != nil {
		return err
	}

	for d := dir; !s.made[d]; d = filepath.Dir(d) {
		s.made[d] = true
		if d == filepath.Dir(d) {
			break
		}
	}
	return nil
}
