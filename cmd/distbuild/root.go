package distbuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/distbuild/internal/version"
	"github.com/arthur-debert/distbuild/pkg/config"
	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/logging"
	"github.com/arthur-debert/distbuild/pkg/output"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	verbosity  int
	dryRun     bool
	noColor    bool
	projectDir string
	configFile string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "distbuild",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrConfigInvalid, MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVarP(&opts.dryRun, "dry-run", "n", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, MsgFlagNoColor)
	rootCmd.PersistentFlags().StringVarP(&opts.projectDir, "project-dir", "C", "", MsgFlagProjectDir)
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", MsgFlagConfig)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newBuildCmd(opts))
	rootCmd.AddCommand(newManifestCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newInitCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// project returns the absolute project directory.
func (o *globalOptions) project() (string, error) {
	dir := o.projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrFileSystem, "failed to get working directory")
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrConfigInvalid, "invalid project directory %s", dir)
	}
	return abs, nil
}

// loadConfig loads the configuration layers for the project directory.
func (o *globalOptions) loadConfig(overrides map[string]interface{}) (string, *config.Config, error) {
	dir, err := o.project()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(config.LoadOptions{
		ProjectDir: dir,
		File:       o.configFile,
		Overrides:  overrides,
	})
	if err != nil {
		return "", nil, err
	}
	log.Debug().Str("project", dir).Str("config", cfg.File).Msg("Configuration loaded")
	return dir, cfg, nil
}

func (o *globalOptions) renderer(cmd *cobra.Command, base string) (*output.Renderer, error) {
	return output.NewRenderer(cmd.OutOrStdout(), output.Options{
		NoColor: o.noColor || !isTerminal(cmd.OutOrStdout()),
		Verbose: o.verbosity > 0,
		DryRun:  o.dryRun,
		Base:    base,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}
