package distbuild

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/distbuild/pkg/build"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// tarballDefault is the --tarball value meaning "the configured path".
const tarballDefault = "-"

type buildFlags struct {
	runtimes  []string
	compile   bool
	tarball   string
	installer bool
	distDir   string
	exclude   []string
	keep      []string
}

// overrides turns the flags that were set into configuration overrides.
func (f *buildFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	out := make(map[string]interface{})
	if f.distDir != "" {
		out["dist_dir"] = f.distDir
	}
	if cmd.Flags().Changed("compile") {
		out["compile.enabled"] = f.compile
	}
	if f.tarball != "" && f.tarball != tarballDefault {
		out["tarball.path"] = f.tarball
	}
	if len(f.exclude) > 0 {
		rules := make([]interface{}, len(f.exclude))
		for i, pattern := range f.exclude {
			rules[i] = "!" + pattern
		}
		out["project.files"] = rules
	}
	if len(f.keep) > 0 {
		rules := make([]interface{}, len(f.keep))
		for i, pattern := range f.keep {
			rules[i] = pattern
		}
		out["project.keep"] = rules
	}
	return out
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.runtimes, "runtime", "r", nil, MsgFlagRuntime)
	cmd.Flags().BoolVar(&f.compile, "compile", false, MsgFlagCompile)
	cmd.Flags().StringVar(&f.tarball, "tarball", "", MsgFlagTarball)
	cmd.Flags().Lookup("tarball").NoOptDefVal = tarballDefault
	cmd.Flags().BoolVar(&f.installer, "installer", false, MsgFlagInstaller)
	cmd.Flags().StringVarP(&f.distDir, "dist-dir", "d", "", MsgFlagDistDir)
	cmd.Flags().StringArrayVarP(&f.exclude, "exclude", "x", nil, MsgFlagExclude)
	cmd.Flags().StringArrayVar(&f.keep, "keep", nil, MsgFlagKeep)
}

func newBuildCmd(opts *globalOptions) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:     "build",
		Short:   MsgBuildShort,
		Long:    MsgBuildLong,
		Example: MsgBuildExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runBuild(cmd, opts, flags)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

// runBuild loads the configuration, builds and renders the result.
func runBuild(cmd *cobra.Command, opts *globalOptions, flags *buildFlags) (*build.Result, error) {
	logger := logging.GetLogger("cmd.build")

	projectDir, cfg, err := opts.loadConfig(flags.overrides(cmd))
	if err != nil {
		return nil, err
	}
	r, err := opts.renderer(cmd, projectDir)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Bool("dry_run", opts.dryRun).
		Strs("runtimes", flags.runtimes).
		Msg("Starting build")

	r.Banner()
	res, err := build.Build(cmd.Context(), build.Options{
		ProjectDir: projectDir,
		Config:     *cfg,
		Runtimes:   flags.runtimes,
		Installer:  flags.installer,
		Tarball:    flags.tarball != "",
		DryRun:     opts.dryRun,
		Reporter:   r,
	})
	if res != nil && res.Diff != nil && !res.Diff.Match() {
		r.Diff(res.Diff)
	}
	if err != nil {
		return res, err
	}
	r.Summary(res)
	return res, nil
}
