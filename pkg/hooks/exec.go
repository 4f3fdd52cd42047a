package hooks

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// ExecHook runs a command in the project directory. Arguments expand
// {project_dir} and {dist_dir}. The command is not run in simulate mode.
// PROJECT_DIR and DIST_DIR are exported to it.
type ExecHook struct {
	Command []string
}

func (h *ExecHook) Name() string {
	return "exec " + strings.Join(h.Command, " ")
}

func (h *ExecHook) Run(env Env) error {
	replacer := strings.NewReplacer("{project_dir}", env.ProjectDir, "{dist_dir}", env.DistDir)
	args := make([]string, len(h.Command))
	for i, arg := range h.Command {
		args[i] = replacer.Replace(arg)
	}

	env.report(Step{Hook: h.Name(), Op: "exec", Path: strings.Join(args, " ")})
	if env.Simulate {
		return nil
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = env.ProjectDir
	cmd.Env = append(os.Environ(),
		"PROJECT_DIR="+env.ProjectDir,
		"DIST_DIR="+env.DistDir,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	logger := logging.GetLogger("hooks")
	if stdout.Len() > 0 {
		logger.Debug().Str("output", stdout.String()).Msg("Hook stdout")
	}
	if stderr.Len() > 0 {
		logger.Debug().Str("output", stderr.String()).Msg("Hook stderr")
	}

	if err != nil {
		return errors.Wrapf(err, errors.ErrHook, "command failed: %s", strings.Join(args, " ")).
			WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}
	return nil
}
