// Package installer runs an installer compiler, such as Inno Setup's ISCC,
// over a setup script once the distribution is built.
package installer

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// QuietFlag asks the compiler to print only errors.
const QuietFlag = "/Q"

// Compiler describes one installer compiler invocation.
type Compiler struct {
	// Path is the compiler executable, either a path or a name on PATH.
	Path string
	// Script is the setup script handed to the compiler.
	Script string
	// Quiet passes QuietFlag before the script.
	Quiet    bool
	Simulate bool

	// Stdout and Stderr receive the compiler output. When nil the output is
	// captured and logged.
	Stdout io.Writer
	Stderr io.Writer

	// FS is used to check the script. Defaults to the OS filesystem.
	FS filesystem.FS

	lookPath func(string) (string, error)
}

func (c *Compiler) logger() zerolog.Logger {
	return logging.GetLogger("installer").With().
		Str("compiler", c.Path).
		Str("script", c.Script).
		Logger()
}

func (c *Compiler) fs() filesystem.FS {
	if c.FS == nil {
		return filesystem.NewOS()
	}
	return c.FS
}

// Args returns the arguments passed to the compiler.
func (c *Compiler) Args() []string {
	if c.Quiet {
		return []string{QuietFlag, c.Script}
	}
	return []string{c.Script}
}

// Validate checks that both the compiler and the script exist.
func (c *Compiler) Validate() error {
	if c.Path == "" {
		return errors.New(errors.ErrConfigInvalid, "installer compiler is not configured")
	}
	if c.Script == "" {
		return errors.New(errors.ErrConfigInvalid, "installer script is not configured")
	}

	lookPath := c.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(c.Path); err != nil {
		return errors.Wrapf(err, errors.ErrConfigInvalid, "installer compiler not found: %s", c.Path)
	}

	info, err := c.fs().Stat(c.Script)
	if err != nil || info.IsDir() {
		return errors.Newf(errors.ErrConfigInvalid, "installer script not found: %s", c.Script)
	}
	return nil
}

// Run compiles the setup script. In simulate mode the invocation is only
// logged.
func (c *Compiler) Run(ctx context.Context) error {
	logger := c.logger()
	logger.Info().
		Strs("args", c.Args()).
		Bool("simulate", c.Simulate).
		Msg("Compiling setup script")

	if c.Simulate {
		return nil
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}

	err := cmd.Run()

	if stdout.Len() > 0 {
		logger.Debug().Str("output", stdout.String()).Msg("Compiler stdout")
	}
	if stderr.Len() > 0 {
		logger.Debug().Str("output", stderr.String()).Msg("Compiler stderr")
	}

	if err != nil {
		return errors.Wrapf(err, errors.ErrInstaller, "installer compiler failed on %s", c.Script).
			WithDetail("command", c.Path+" "+strings.Join(c.Args(), " ")).
			WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}
	return nil
}
