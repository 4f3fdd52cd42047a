package build

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/distbuild/internal/version"
	"github.com/arthur-debert/distbuild/pkg/archive"
	"github.com/arthur-debert/distbuild/pkg/config"
	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/hooks"
	"github.com/arthur-debert/distbuild/pkg/installer"
	"github.com/arthur-debert/distbuild/pkg/logging"
	"github.com/arthur-debert/distbuild/pkg/manifest"
	"github.com/arthur-debert/distbuild/pkg/matcher"
	"github.com/arthur-debert/distbuild/pkg/treesync"
)

// Options configures a build.
type Options struct {
	ProjectDir string
	// Config is the loaded, unresolved configuration.
	Config config.Config
	// Runtimes are built in addition to the runtimes the configuration
	// enables.
	Runtimes []string
	// Installer runs the installer compiler after the build.
	Installer bool
	// Tarball writes the configured tarball after the build.
	Tarball bool
	DryRun  bool

	// FS defaults to the OS filesystem.
	FS filesystem.FS
	// Compiler replaces the compiler built from the configuration.
	Compiler treesync.Compiler
	// Reporter receives progress. Optional.
	Reporter Reporter
}

// Result describes a finished build.
type Result struct {
	// Config is the resolved configuration the build ran with.
	Config   config.Config
	Project  *treesync.Result
	Runtimes map[string]*treesync.Result
	// Diff is nil when no manifest was compared.
	Diff *manifest.Diff
	// Entries lists the tarball entries, if a tarball was written.
	Entries []string
}

type runtimePlan struct {
	name    string
	cfg     config.RuntimeConfig
	include matcher.List
}

type plan struct {
	opts     Options
	cfg      config.Config
	fs       filesystem.FS
	reporter Reporter
	logger   zerolog.Logger

	projectInclude matcher.List
	projectProtect matcher.List
	runtimes       []runtimePlan
	compiler       treesync.Compiler

	preBuild  []hooks.Hook
	postBuild []hooks.Hook
	installer *installer.Compiler
}

// Build runs a full build. A manifest mismatch is returned as a
// MANIFEST_MISMATCH error together with the result.
func Build(ctx context.Context, opts Options) (*Result, error) {
	p, err := newPlan(opts)
	if err != nil {
		return nil, err
	}
	if err := p.prepareBuild(); err != nil {
		return nil, err
	}

	done := logging.LogOperationStart(p.logger, "build")
	defer done()

	res := &Result{Config: p.cfg, Runtimes: make(map[string]*treesync.Result)}
	env := p.hookEnv()

	p.reporter.Stage(StagePreBuild, p.cfg.DistDir)
	if err := hooks.RunAll(p.preBuild, env); err != nil {
		return res, err
	}

	p.reporter.Stage(StageProject, p.opts.ProjectDir)
	res.Project, err = treesync.Sync(p.syncOptions(p.opts.ProjectDir, p.cfg.DistDir, p.projectInclude, p.projectProtect))
	if err != nil {
		return res, err
	}

	for _, rt := range p.runtimes {
		p.reporter.Stage(StageRuntime, rt.name)
		synced, err := treesync.Sync(p.syncOptions(rt.cfg.Source, rt.cfg.Dest, rt.include, nil))
		if err != nil {
			return res, err
		}
		if err := p.copyExtras(rt, synced); err != nil {
			return res, err
		}
		res.Runtimes[rt.name] = synced
	}

	p.reporter.Stage(StagePostBuild, p.cfg.DistDir)
	if err := hooks.RunAll(p.postBuild, env); err != nil {
		return res, err
	}

	m := manifest.New(p.cfg.DistDir, p.fs)
	if m.Exists() {
		if p.opts.DryRun {
			p.reporter.Stage(StageManifest, "dry run: skipping manifest comparison")
		} else {
			p.reporter.Stage(StageManifest, m.Path())
			diff, err := m.Compare()
			if err != nil {
				return res, err
			}
			res.Diff = diff
			if err := diff.Err(); err != nil {
				return res, err
			}
		}
	}

	if p.installer != nil {
		p.reporter.Stage(StageInstaller, p.installer.Script)
		if err := p.installer.Run(ctx); err != nil {
			return res, err
		}
	}

	if p.opts.Tarball {
		p.reporter.Stage(StageTarball, p.cfg.Tarball.Path)
		members, err := p.tarballMembers(m, res)
		if err != nil {
			return res, err
		}
		res.Entries, err = archive.Create(archive.Options{
			Path:     p.cfg.Tarball.Path,
			Root:     p.cfg.DistDir,
			Members:  members,
			Simulate: p.opts.DryRun,
			FS:       p.fs,
			Report:   p.reporter.Entry,
		})
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// WriteManifest records the current distribution in its manifest.
func WriteManifest(opts Options) ([]string, error) {
	p, err := newPlan(opts)
	if err != nil {
		return nil, err
	}
	if !filesystem.IsDir(p.fs, p.cfg.DistDir) {
		return nil, errors.Newf(errors.ErrConfigInvalid, "distribution directory not found: %s", p.cfg.DistDir)
	}
	m := manifest.New(p.cfg.DistDir, p.fs)
	p.reporter.Stage(StageManifest, m.Path())
	return m.Write(opts.DryRun)
}

// CheckManifest compares the distribution with its manifest. A mismatch is
// not an error here; callers decide from the returned diff.
func CheckManifest(opts Options) (*manifest.Diff, error) {
	p, err := newPlan(opts)
	if err != nil {
		return nil, err
	}
	m := manifest.New(p.cfg.DistDir, p.fs)
	p.reporter.Stage(StageManifest, m.Path())
	return m.Compare()
}

// newPlan validates and resolves the configuration.
func newPlan(opts Options) (*plan, error) {
	if opts.FS == nil {
		opts.FS = filesystem.NewOS()
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}

	projectDir, err := filepath.Abs(opts.ProjectDir)
	if err != nil || opts.ProjectDir == "" {
		return nil, errors.Newf(errors.ErrConfigInvalid, "invalid project directory: %q", opts.ProjectDir)
	}
	if !filesystem.IsDir(opts.FS, projectDir) {
		return nil, errors.Newf(errors.ErrConfigInvalid, "project directory not found: %s", projectDir)
	}
	opts.ProjectDir = projectDir

	if err := opts.Config.Validate(version.Version); err != nil {
		return nil, err
	}
	cfg, err := opts.Config.Resolve(projectDir)
	if err != nil {
		return nil, err
	}

	return &plan{
		opts:     opts,
		cfg:      cfg,
		fs:       opts.FS,
		reporter: opts.Reporter,
		logger: logging.GetLogger("build").With().
			Str("project", projectDir).
			Str("dist", cfg.DistDir).
			Bool("dry_run", opts.DryRun).
			Logger(),
	}, nil
}

// prepareBuild checks everything a build needs before anything runs.
func (p *plan) prepareBuild() error {
	var err error

	if p.projectInclude, err = p.matchList(p.cfg.Project.Files, p.cfg.Project.FilesFrom); err != nil {
		return err
	}
	p.projectInclude = p.projectInclude.Append(matcher.ExcludeTree(p.cfg.DistDir))

	keep, err := matcher.Parse(p.cfg.Project.Keep...)
	if err != nil {
		return err
	}
	var protect matcher.List
	for _, name := range p.cfg.RuntimeNames() {
		protect = protect.Append(matcher.IncludeTree(p.cfg.Runtimes[name].Dest))
	}
	protect = protect.Append(matcher.IncludeLiteral(manifest.New(p.cfg.DistDir, p.fs).Path()))
	p.projectProtect = protect.Concat(keep)

	if err := p.selectRuntimes(); err != nil {
		return err
	}

	if p.cfg.Compile.Enabled {
		p.compiler = p.opts.Compiler
		if p.compiler == nil {
			sources, err := matcher.Parse(p.cfg.Compile.Sources...)
			if err != nil {
				return err
			}
			p.compiler = &treesync.CommandCompiler{
				Sources: sources,
				Suffix:  p.cfg.Compile.Suffix,
				Command: p.cfg.Compile.Command,
			}
		}
	}

	if p.preBuild, err = hooks.FromConfig(p.cfg.Hooks.PreBuild); err != nil {
		return err
	}
	if p.postBuild, err = hooks.FromConfig(p.cfg.Hooks.PostBuild); err != nil {
		return err
	}

	if p.opts.Installer {
		p.installer = &installer.Compiler{
			Path:     p.cfg.Installer.Compiler,
			Script:   p.cfg.Installer.Script,
			Quiet:    zerolog.GlobalLevel() > zerolog.InfoLevel,
			Simulate: p.opts.DryRun,
			FS:       p.fs,
		}
		if err := p.installer.Validate(); err != nil {
			return err
		}
	}

	if p.opts.Tarball {
		if p.cfg.Tarball.Path == "" {
			return errors.New(errors.ErrConfigInvalid, "no tarball path configured")
		}
		if _, _, err := archive.Parse(p.cfg.Tarball.Path); err != nil {
			return err
		}
		if dir := filepath.Dir(p.cfg.Tarball.Path); !filesystem.IsDir(p.fs, dir) {
			return errors.Newf(errors.ErrConfigInvalid, "missing tarball directory: %s", dir)
		}
	}
	return nil
}

func (p *plan) selectRuntimes() error {
	selected := make(map[string]bool)
	for _, name := range p.cfg.EnabledRuntimes() {
		selected[name] = true
	}
	for _, name := range p.opts.Runtimes {
		if _, ok := p.cfg.Runtimes[name]; !ok {
			return errors.Newf(errors.ErrConfigInvalid, "unknown runtime %q", name)
		}
		selected[name] = true
	}

	names := make([]string, 0, len(selected))
	for name := range selected {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rt := p.cfg.Runtimes[name]
		if rt.Source == "" {
			return errors.Newf(errors.ErrConfigInvalid, "runtimes.%s.source is not configured", name)
		}
		if !filesystem.IsDir(p.fs, rt.Source) {
			return errors.Newf(errors.ErrConfigInvalid, "runtime %s source not found: %s", name, rt.Source)
		}
		for _, extra := range rt.Extra {
			if ok, _ := filesystem.Exists(p.fs, extra); !ok {
				return errors.Newf(errors.ErrConfigInvalid, "runtime %s extra file not found: %s", name, extra)
			}
		}
		include, err := p.matchList(rt.Files, rt.FilesFrom)
		if err != nil {
			return errors.Wrapf(err, errors.ErrConfigInvalid, "runtime %s", name)
		}
		p.runtimes = append(p.runtimes, runtimePlan{name: name, cfg: rt, include: include})
	}
	return nil
}

func (p *plan) matchList(specs, files []string) (matcher.List, error) {
	list, err := matcher.Parse(specs...)
	if err != nil {
		return nil, err
	}
	fromFiles, err := matcher.LoadFiles(p.fs, files...)
	if err != nil {
		return nil, err
	}
	return list.Concat(fromFiles), nil
}

func (p *plan) syncOptions(src, dst string, include, protect matcher.List) treesync.Options {
	return treesync.Options{
		SourceRoot:         src,
		DestRoot:           dst,
		Include:            include,
		Protect:            protect,
		Simulate:           p.opts.DryRun,
		Compile:            p.cfg.Compile.Enabled,
		Compiler:           p.compiler,
		CompiledExtensions: p.cfg.Compile.Artifacts,
		FS:                 p.fs,
		Report:             p.reporter.Action,
	}
}

func (p *plan) hookEnv() hooks.Env {
	return hooks.Env{
		ProjectDir: p.opts.ProjectDir,
		DistDir:    p.cfg.DistDir,
		Simulate:   p.opts.DryRun,
		FS:         p.fs,
		Report:     p.reporter.Step,
	}
}

// copyExtras copies a runtime's extra files into its destination and adds
// them to the synced file set.
func (p *plan) copyExtras(rt runtimePlan, synced *treesync.Result) error {
	for _, extra := range rt.cfg.Extra {
		target := filepath.Join(rt.cfg.Dest, filepath.Base(extra))
		action := treesync.Action{Phase: treesync.PhasePopulate, Op: treesync.OpCopy, Path: extra, Target: target}
		p.reporter.Action(action)
		synced.Actions = append(synced.Actions, action)
		synced.Files = append(synced.Files, target)

		if p.opts.DryRun {
			continue
		}
		if err := p.fs.MkdirAll(rt.cfg.Dest, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "failed to create %s", rt.cfg.Dest)
		}
		if err := filesystem.CopyFile(p.fs, extra, target); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "failed to copy %s", extra)
		}
	}
	sort.Strings(synced.Files)
	return nil
}

// tarballMembers lists the archive members. A dry run has no distribution on
// disk, so it uses the planned file sets instead.
func (p *plan) tarballMembers(m *manifest.Manifest, res *Result) ([]string, error) {
	if !p.opts.DryRun {
		return m.Members()
	}

	set := make(map[string]bool)
	add := func(files []string) {
		for _, f := range files {
			rel, err := filepath.Rel(p.cfg.DistDir, f)
			if err != nil {
				continue
			}
			set[filepath.ToSlash(rel)] = true
		}
	}
	add(res.Project.Files)
	for _, r := range res.Runtimes {
		add(r.Files)
	}
	delete(set, manifest.FileName)

	members := make([]string, 0, len(set))
	for f := range set {
		members = append(members, f)
	}
	sort.Strings(members)
	return members, nil
}
