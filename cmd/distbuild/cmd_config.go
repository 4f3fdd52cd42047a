package distbuild

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/distbuild/pkg/config"
	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/synthfs"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := opts.loadConfig(nil)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", MsgFlagFormat)
	return cmd
}

func newInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := opts.project()
			if err != nil {
				return err
			}
			fsys := filesystem.NewOS()

			if !force {
				for _, name := range config.FileNames {
					existing := filepath.Join(dir, name)
					if ok, _ := filesystem.Exists(fsys, existing); ok {
						return errors.Newf(errors.ErrConfigInvalid, MsgErrConfigExists, existing)
					}
				}
			}

			path := filepath.Join(dir, config.FileNames[0])
			executor := synthfs.NewExecutor(dir, opts.dryRun).EnableForce(force)
			starter := synthfs.File{Path: path, Content: []byte(config.StarterConfig()), Mode: 0644}
			if err := executor.Create(cmd.Context(), []synthfs.File{starter}); err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), MsgConfigPlanned, path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgConfigCreated, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)
	return cmd
}
