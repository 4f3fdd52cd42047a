package distbuild

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/logging"
	"github.com/arthur-debert/distbuild/pkg/matcher"
	"github.com/arthur-debert/distbuild/pkg/watch"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	flags := &buildFlags{}
	var delay time.Duration

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.watch")

			res, err := runBuild(cmd, opts, flags)
			if err != nil {
				PrintError(cmd.ErrOrStderr(), err)
				if res == nil {
					return err
				}
			}
			cfg := res.Config

			projectDir, err := opts.project()
			if err != nil {
				return err
			}
			include, err := matcher.Parse(cfg.Project.Files...)
			if err != nil {
				return err
			}
			fromFiles, err := matcher.LoadFiles(filesystem.NewOS(), cfg.Project.FilesFrom...)
			if err != nil {
				return err
			}
			selected := matcher.Compile(include.Concat(fromFiles), projectDir)

			roots := []string{projectDir}
			for name := range res.Runtimes {
				roots = append(roots, cfg.Runtimes[name].Source)
			}

			w, err := watch.New(watch.Options{
				Roots:  roots,
				Ignore: []string{cfg.DistDir},
				Filter: func(p string) bool {
					if base := filepath.Base(p); strings.HasPrefix(base, ".") {
						return false
					}
					rel, err := filepath.Rel(projectDir, p)
					if err != nil || strings.HasPrefix(rel, "..") {
						return true
					}
					return selected.Match(p)
				},
				Delay: delay,
			})
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), MsgWatching, len(w.Dirs()))
			return w.Run(ctx, func(changed []string) {
				summary := changed[0]
				if len(changed) > 1 {
					summary = fmt.Sprintf(MsgMoreChangesFormat, changed[0], len(changed)-1)
				}
				fmt.Fprintf(cmd.OutOrStdout(), MsgRebuilding, summary)
				logger.Info().Strs("changed", changed).Msg("Rebuilding")

				if _, err := runBuild(cmd, opts, flags); err != nil {
					PrintError(cmd.ErrOrStderr(), err)
				}
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, MsgFlagDelay)
	return cmd
}
