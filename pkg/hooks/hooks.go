// Package hooks runs the named extension points configured around a build.
//
// Hooks are declared in configuration, never as code. Three kinds exist:
//
//	copy    copies files matching a glob into the distribution
//	rename  renames a file inside the distribution
//	exec    runs a command in the project directory
//
// Paths expand {project_dir}, {dist_dir} and a leading "~".
package hooks

import (
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/arthur-debert/distbuild/pkg/config"
	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// Step is one operation performed, or planned in simulate mode, by a hook.
type Step struct {
	Hook   string
	Op     string
	Path   string
	Target string
}

func (s Step) String() string {
	if s.Target != "" {
		return fmt.Sprintf("%s %s %s", s.Op, s.Path, s.Target)
	}
	return fmt.Sprintf("%s %s", s.Op, s.Path)
}

// Env is what a hook runs against.
type Env struct {
	ProjectDir string
	DistDir    string
	Simulate   bool
	FS         filesystem.FS
	// Report, if set, receives every step.
	Report func(Step)
}

func (e Env) fs() filesystem.FS {
	if e.FS == nil {
		return filesystem.NewOS()
	}
	return e.FS
}

func (e Env) report(s Step) {
	logging.GetLogger("hooks").Debug().
		Str("hook", s.Hook).
		Str("op", s.Op).
		Str("path", s.Path).
		Str("target", s.Target).
		Bool("simulate", e.Simulate).
		Msg("Hook step")
	if e.Report != nil {
		e.Report(s)
	}
}

// Expand substitutes {project_dir} and {dist_dir}, expands a leading "~" and
// resolves a relative result against base.
func (e Env) Expand(p, base string) (string, error) {
	p = strings.NewReplacer("{project_dir}", e.ProjectDir, "{dist_dir}", e.DistDir).Replace(p)
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrHook, "failed to expand %s", p)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(base, expanded)
	}
	return filepath.Clean(expanded), nil
}

// Hook is a named extension point.
type Hook interface {
	Name() string
	Run(env Env) error
}

// FromConfig builds the hooks declared in configuration, in order.
func FromConfig(decls []config.HookConfig) ([]Hook, error) {
	out := make([]Hook, 0, len(decls))
	for i, decl := range decls {
		switch decl.Action {
		case "copy":
			if decl.Src == "" || decl.Dst == "" {
				return nil, errors.Newf(errors.ErrConfigInvalid, "hook %d (copy) needs src and dst", i+1)
			}
			out = append(out, &CopyHook{Src: decl.Src, Dst: decl.Dst})
		case "rename":
			if decl.Src == "" || decl.Dst == "" {
				return nil, errors.Newf(errors.ErrConfigInvalid, "hook %d (rename) needs src and dst", i+1)
			}
			out = append(out, &RenameHook{Src: decl.Src, Dst: decl.Dst})
		case "exec":
			if len(decl.Command) == 0 {
				return nil, errors.Newf(errors.ErrConfigInvalid, "hook %d (exec) needs a command", i+1)
			}
			out = append(out, &ExecHook{Command: decl.Command})
		default:
			return nil, errors.Newf(errors.ErrConfigInvalid, "hook %d has unknown action %q", i+1, decl.Action)
		}
	}
	return out, nil
}

// RunAll runs hooks in order and stops at the first failure.
func RunAll(hooks []Hook, env Env) error {
	logger := logging.GetLogger("hooks")
	for _, h := range hooks {
		logger.Info().Str("hook", h.Name()).Bool("simulate", env.Simulate).Msg("Running hook")
		if err := h.Run(env); err != nil {
			if errors.GetErrorCode(err) == errors.ErrHook {
				return err
			}
			return errors.Wrapf(err, errors.ErrHook, "hook %s failed", h.Name())
		}
	}
	return nil
}
