package main

import (
	"os"

	"github.com/arthur-debert/distbuild/cmd/distbuild"
	"github.com/arthur-debert/distbuild/pkg/errors"
)

func main() {
	rootCmd := distbuild.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		distbuild.PrintError(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
