package hooks

import (
	"path/filepath"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
)

// CopyHook copies the files matching the glob Src to Dst. A relative Src
// resolves against the project directory and a relative Dst against the
// distribution directory.
//
// With a single match Dst names the copy, unless Dst is an existing
// directory. With several matches Dst is a directory and is created when
// missing. Matching nothing is an error.
type CopyHook struct {
	Src string
	Dst string
}

func (h *CopyHook) Name() string {
	return "copy " + h.Src
}

func (h *CopyHook) Run(env Env) error {
	fsys := env.fs()

	src, err := env.Expand(h.Src, env.ProjectDir)
	if err != nil {
		return err
	}
	dst, err := env.Expand(h.Dst, env.DistDir)
	if err != nil {
		return err
	}

	matches, err := fsys.Glob(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrHook, "invalid source pattern %s", src)
	}
	if len(matches) == 0 {
		return errors.Newf(errors.ErrHook, "missing source files: %s", src)
	}

	if len(matches) == 1 && !filesystem.IsDir(fsys, dst) {
		if err := h.mkdir(env, filepath.Dir(dst)); err != nil {
			return err
		}
		return h.copy(env, matches[0], dst)
	}

	if err := h.mkdir(env, dst); err != nil {
		return err
	}
	for _, m := range matches {
		if err := h.copy(env, m, filepath.Join(dst, filepath.Base(m))); err != nil {
			return err
		}
	}
	return nil
}

func (h *CopyHook) mkdir(env Env, dir string) error {
	fsys := env.fs()
	if filesystem.IsDir(fsys, dir) {
		return nil
	}
	env.report(Step{Hook: h.Name(), Op: "mkdir -p", Path: dir})
	if env.Simulate {
		return nil
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrHook, "failed to create %s", dir)
	}
	return nil
}

func (h *CopyHook) copy(env Env, src, dst string) error {
	env.report(Step{Hook: h.Name(), Op: "cp", Path: src, Target: dst})
	if env.Simulate {
		return nil
	}
	if err := filesystem.CopyFile(env.fs(), src, dst); err != nil {
		return errors.Wrapf(err, errors.ErrHook, "failed to copy %s to %s", src, dst)
	}
	return nil
}
