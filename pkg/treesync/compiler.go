package treesync

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/matcher"
)

// Compiler turns source modules in the destination into compiled artifacts.
type Compiler interface {
	// Handles reports whether path is a source module this compiler handles.
	Handles(path string) bool
	// Artifact returns the path the compiled form of path is written to.
	Artifact(path string) string
	// Compile writes the artifact for path. It must not remove path.
	Compile(path string) error
}

const (
	srcPlaceholder = "{src}"
	outPlaceholder = "{out}"
)

// DefaultCompileCommand byte-compiles a Python module with py_compile.
var DefaultCompileCommand = []string{
	"python3", "-c",
	"import py_compile, sys; py_compile.compile(sys.argv[1], cfile=sys.argv[2], doraise=True)",
	srcPlaceholder, outPlaceholder,
}

// CommandCompiler compiles by running an external command once per file.
// The placeholders {src} and {out} in Command are replaced by the source path
// and the artifact path.
type CommandCompiler struct {
	// Sources selects the files to compile, matched relative to each file's
	// own directory. Defaults to "*.py".
	Sources matcher.List
	// Suffix is appended to a source path to name its artifact. Defaults to "c".
	Suffix string
	// Command is the argv to run. Defaults to DefaultCompileCommand.
	Command []string
}

// NewPythonCompiler returns the default compiler for Python modules.
func NewPythonCompiler() *CommandCompiler {
	return &CommandCompiler{}
}

func (c *CommandCompiler) sources() matcher.List {
	if len(c.Sources) == 0 {
		return matcher.List{matcher.IncludeRule("*.py")}
	}
	return c.Sources
}

func (c *CommandCompiler) suffix() string {
	if c.Suffix == "" {
		return "c"
	}
	return c.Suffix
}

func (c *CommandCompiler) Handles(path string) bool {
	return matcher.Matches(path, c.sources(), filepath.Dir(path))
}

func (c *CommandCompiler) Artifact(path string) string {
	return path + c.suffix()
}

func (c *CommandCompiler) Compile(path string) error {
	command := c.Command
	if len(command) == 0 {
		command = DefaultCompileCommand
	}

	replacer := strings.NewReplacer(srcPlaceholder, path, outPlaceholder, c.Artifact(path))
	args := make([]string, len(command))
	for i, arg := range command {
		args[i] = replacer.Replace(arg)
	}

	cmd := exec.Command(args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, errors.ErrCompile, "failed to compile %s", path).
			WithDetail("command", strings.Join(args, " ")).
			WithDetail("output", strings.TrimSpace(string(output)))
	}
	return nil
}
