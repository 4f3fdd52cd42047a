// Command distbuild-manpage writes the distbuild(1) man page to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/distbuild/cmd/distbuild"
	"github.com/arthur-debert/distbuild/internal/version"
)

func main() {
	rootCmd := distbuild.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "DISTBUILD",
		Section: "1",
		Source:  "distbuild " + version.Version,
		Manual:  "distbuild manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
