package hooks

import (
	"github.com/arthur-debert/distbuild/pkg/errors"
)

// RenameHook renames a file in the distribution. Relative paths resolve
// against the distribution directory.
type RenameHook struct {
	Src string
	Dst string
}

func (h *RenameHook) Name() string {
	return "rename " + h.Src
}

func (h *RenameHook) Run(env Env) error {
	src, err := env.Expand(h.Src, env.DistDir)
	if err != nil {
		return err
	}
	dst, err := env.Expand(h.Dst, env.DistDir)
	if err != nil {
		return err
	}

	env.report(Step{Hook: h.Name(), Op: "mv", Path: src, Target: dst})
	if env.Simulate {
		return nil
	}
	if err := env.fs().Rename(src, dst); err != nil {
		return errors.Wrapf(err, errors.ErrHook, "failed to rename %s to %s", src, dst)
	}
	return nil
}
