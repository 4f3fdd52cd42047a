package config

import (
	"path/filepath"
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/matcher"
)

// Config is the complete configuration of one build. It is loaded once per
// invocation and passed by value to every component.
type Config struct {
	// DistDir is the distribution directory. Relative to the project
	// directory until resolved.
	DistDir string `koanf:"dist_dir" toml:"dist_dir" yaml:"dist_dir"`
	// MinVersion is the oldest distbuild release able to build the project.
	MinVersion string `koanf:"min_version" toml:"min_version" yaml:"min_version"`

	Project   ProjectConfig            `koanf:"project" toml:"project" yaml:"project"`
	Runtimes  map[string]RuntimeConfig `koanf:"runtimes" toml:"runtimes" yaml:"runtimes"`
	Compile   CompileConfig            `koanf:"compile" toml:"compile" yaml:"compile"`
	Installer InstallerConfig          `koanf:"installer" toml:"installer" yaml:"installer"`
	Tarball   TarballConfig            `koanf:"tarball" toml:"tarball" yaml:"tarball"`
	Hooks     HooksConfig              `koanf:"hooks" toml:"hooks" yaml:"hooks"`

	// File is the configuration file that was loaded, if any.
	File string `koanf:"-" toml:"-" yaml:"-"`
}

// ProjectConfig selects the project files of the distribution.
type ProjectConfig struct {
	Files     []string `koanf:"files" toml:"files" yaml:"files"`
	FilesFrom []string `koanf:"files_from" toml:"files_from" yaml:"files_from"`
	// Keep protects distribution entries from being pruned.
	Keep []string `koanf:"keep" toml:"keep" yaml:"keep"`
}

// RuntimeConfig describes a runtime tree copied into the distribution.
type RuntimeConfig struct {
	Enabled   bool     `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	Source    string   `koanf:"source" toml:"source" yaml:"source"`
	Dest      string   `koanf:"dest" toml:"dest" yaml:"dest"`
	Files     []string `koanf:"files" toml:"files" yaml:"files"`
	FilesFrom []string `koanf:"files_from" toml:"files_from" yaml:"files_from"`
	// Extra lists single files copied into Dest after the sync.
	Extra []string `koanf:"extra" toml:"extra" yaml:"extra"`
}

// CompileConfig controls the compile phase.
type CompileConfig struct {
	Enabled   bool     `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	Sources   []string `koanf:"sources" toml:"sources" yaml:"sources"`
	Artifacts []string `koanf:"artifacts" toml:"artifacts" yaml:"artifacts"`
	Suffix    string   `koanf:"suffix" toml:"suffix" yaml:"suffix"`
	Command   []string `koanf:"command" toml:"command" yaml:"command"`
}

// InstallerConfig names the installer compiler and its setup script.
type InstallerConfig struct {
	Compiler string `koanf:"compiler" toml:"compiler" yaml:"compiler"`
	Script   string `koanf:"script" toml:"script" yaml:"script"`
}

// TarballConfig holds the default tarball path.
type TarballConfig struct {
	Path string `koanf:"path" toml:"path" yaml:"path"`
}

// HooksConfig lists the hooks run around a build.
type HooksConfig struct {
	PreBuild  []HookConfig `koanf:"pre_build" toml:"pre_build" yaml:"pre_build"`
	PostBuild []HookConfig `koanf:"post_build" toml:"post_build" yaml:"post_build"`
}

// HookConfig declares one hook. Action is one of copy, rename or exec.
type HookConfig struct {
	Action  string   `koanf:"action" toml:"action" yaml:"action"`
	Src     string   `koanf:"src" toml:"src,omitempty" yaml:"src,omitempty"`
	Dst     string   `koanf:"dst" toml:"dst,omitempty" yaml:"dst,omitempty"`
	Command []string `koanf:"command" toml:"command,omitempty" yaml:"command,omitempty"`
}

// RuntimeNames returns the configured runtime names, sorted.
func (c *Config) RuntimeNames() []string {
	names := make([]string, 0, len(c.Runtimes))
	for name := range c.Runtimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnabledRuntimes returns the names of runtimes enabled in the
// configuration, sorted.
func (c *Config) EnabledRuntimes() []string {
	var names []string
	for _, name := range c.RuntimeNames() {
		if c.Runtimes[name].Enabled {
			names = append(names, name)
		}
	}
	return names
}

// Resolve returns a copy of c with every path made absolute. Paths expand a
// leading "~". DistDir, runtime sources, installer script, tarball and match
// list files resolve against projectDir; runtime destinations resolve against
// the distribution directory.
func (c Config) Resolve(projectDir string) (Config, error) {
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return c, errors.Wrapf(err, errors.ErrConfigInvalid, "invalid project directory %s", projectDir)
	}

	out := c
	if out.DistDir, err = resolvePath(c.DistDir, projectDir); err != nil {
		return c, err
	}
	if out.Project.FilesFrom, err = resolvePaths(c.Project.FilesFrom, projectDir); err != nil {
		return c, err
	}
	if out.Installer.Script, err = resolvePath(c.Installer.Script, projectDir); err != nil {
		return c, err
	}
	if out.Tarball.Path, err = resolvePath(c.Tarball.Path, projectDir); err != nil {
		return c, err
	}

	out.Runtimes = make(map[string]RuntimeConfig, len(c.Runtimes))
	for name, rt := range c.Runtimes {
		if rt.Source, err = resolvePath(rt.Source, projectDir); err != nil {
			return c, err
		}
		if rt.Dest, err = resolvePath(rt.Dest, out.DistDir); err != nil {
			return c, err
		}
		if rt.FilesFrom, err = resolvePaths(rt.FilesFrom, projectDir); err != nil {
			return c, err
		}
		if rt.Extra, err = resolvePaths(rt.Extra, projectDir); err != nil {
			return c, err
		}
		out.Runtimes[name] = rt
	}
	return out, nil
}

func resolvePath(p, base string) (string, error) {
	if p == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrConfigInvalid, "failed to expand %s", p)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(base, expanded)
	}
	return filepath.Clean(expanded), nil
}

func resolvePaths(paths []string, base string) ([]string, error) {
	if paths == nil {
		return nil, nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		resolved, err := resolvePath(p, base)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

// Validate checks an unresolved configuration for errors that can be found
// without touching the filesystem. It reports the first problem found.
func (c *Config) Validate(currentVersion string) error {
	if strings.TrimSpace(c.DistDir) == "" {
		return errors.New(errors.ErrConfigInvalid, "dist_dir must not be empty")
	}

	if err := checkVersion(c.MinVersion, currentVersion); err != nil {
		return err
	}

	if _, err := matcher.Parse(c.Project.Files...); err != nil {
		return errors.Wrap(err, errors.ErrConfigInvalid, "invalid project.files")
	}
	if _, err := matcher.Parse(c.Project.Keep...); err != nil {
		return errors.Wrap(err, errors.ErrConfigInvalid, "invalid project.keep")
	}
	if _, err := matcher.Parse(c.Compile.Sources...); err != nil {
		return errors.Wrap(err, errors.ErrConfigInvalid, "invalid compile.sources")
	}
	if c.Compile.Enabled && len(c.Compile.Command) == 0 {
		return errors.New(errors.ErrConfigInvalid, "compile.command must not be empty")
	}

	for _, name := range c.RuntimeNames() {
		rt := c.Runtimes[name]
		dest := filepath.Clean(rt.Dest)
		if strings.TrimSpace(rt.Dest) == "" || filepath.IsAbs(dest) || dest == "." || dest == ".." ||
			strings.HasPrefix(dest, ".."+string(filepath.Separator)) {
			return errors.Newf(errors.ErrConfigInvalid, "runtimes.%s.dest must be a subdirectory of dist_dir", name)
		}
		if _, err := matcher.Parse(rt.Files...); err != nil {
			return errors.Wrapf(err, errors.ErrConfigInvalid, "invalid runtimes.%s.files", name)
		}
	}

	for i, h := range append(append([]HookConfig{}, c.Hooks.PreBuild...), c.Hooks.PostBuild...) {
		switch h.Action {
		case "copy", "rename":
			if h.Src == "" || h.Dst == "" {
				return errors.Newf(errors.ErrConfigInvalid, "hook %d (%s) needs src and dst", i+1, h.Action)
			}
		case "exec":
			if len(h.Command) == 0 {
				return errors.Newf(errors.ErrConfigInvalid, "hook %d (exec) needs a command", i+1)
			}
		default:
			return errors.Newf(errors.ErrConfigInvalid, "hook %d has unknown action %q", i+1, h.Action)
		}
	}
	return nil
}

// checkVersion fails when current is older than min. Development builds,
// whose version does not parse, always pass.
func checkVersion(min, current string) error {
	if strings.TrimSpace(min) == "" {
		return nil
	}
	required, err := goversion.NewVersion(min)
	if err != nil {
		return errors.Wrapf(err, errors.ErrConfigInvalid, "invalid min_version %q", min)
	}
	own, err := goversion.NewVersion(current)
	if err != nil {
		return nil
	}
	if own.LessThan(required) {
		return errors.Newf(errors.ErrConfigInvalid,
			"project requires distbuild %s or newer, this is %s", required, own)
	}
	return nil
}
