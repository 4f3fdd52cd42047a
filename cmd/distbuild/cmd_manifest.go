package distbuild

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/distbuild/pkg/build"
	"github.com/arthur-debert/distbuild/pkg/manifest"
)

func newManifestCmd(opts *globalOptions) *cobra.Command {
	var distDir string

	cmd := &cobra.Command{
		Use:     "manifest",
		Short:   MsgManifestShort,
		Long:    MsgManifestLong,
		GroupID: "core",
	}
	cmd.PersistentFlags().StringVarP(&distDir, "dist-dir", "d", "", MsgFlagDistDir)

	buildOptions := func() (build.Options, error) {
		overrides := map[string]interface{}{}
		if distDir != "" {
			overrides["dist_dir"] = distDir
		}
		projectDir, cfg, err := opts.loadConfig(overrides)
		if err != nil {
			return build.Options{}, err
		}
		return build.Options{ProjectDir: projectDir, Config: *cfg, DryRun: opts.dryRun}, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "write",
		Short: MsgManifestWriteShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bopts, err := buildOptions()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd, bopts.ProjectDir)
			if err != nil {
				return err
			}

			entries, err := build.WriteManifest(bopts)
			if err != nil {
				return err
			}
			if opts.verbosity > 0 {
				r.List(entries)
			}

			resolved, err := bopts.Config.Resolve(bopts.ProjectDir)
			if err != nil {
				return err
			}
			path := manifest.New(resolved.DistDir, nil).Path()
			format := MsgManifestWritten
			if opts.dryRun {
				format = MsgManifestPlanned
			}
			fmt.Fprintf(cmd.OutOrStdout(), format, len(entries), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: MsgManifestCheckShort,
		Long:  MsgManifestCheckLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bopts, err := buildOptions()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd, bopts.ProjectDir)
			if err != nil {
				return err
			}

			diff, err := build.CheckManifest(bopts)
			if err != nil {
				return err
			}
			r.Diff(diff)
			return diff.Err()
		},
	})

	return cmd
}
