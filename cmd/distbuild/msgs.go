package distbuild

import (
	"github.com/MakeNowJust/heredoc"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort          = "Build a distribution directory from a project tree"
	MsgBuildShort         = "Sync the project and runtimes into the distribution directory"
	MsgManifestShort      = "Record or verify the distribution manifest"
	MsgManifestWriteShort = "Record the current distribution in its MANIFEST"
	MsgManifestCheckShort = "Compare the distribution with its MANIFEST"
	MsgWatchShort         = "Rebuild whenever project files change"
	MsgConfigShort        = "Print the effective configuration"
	MsgInitShort          = "Write a starter distbuild.toml"
	MsgVersionShort       = "Print version information"
	MsgCompletionShort    = "Generate shell completion script"

	// Status messages
	MsgManifestWritten   = "Wrote %d entries to %s\n"
	MsgManifestPlanned   = "Would write %d entries to %s\n"
	MsgConfigCreated     = "Created %s\n"
	MsgConfigPlanned     = "Would create %s\n"
	MsgWatching          = "Watching %d directories, press Ctrl-C to stop\n"
	MsgRebuilding        = "Changed: %s\n"
	MsgVersionFormat     = "distbuild version %s\n  commit: %s\n  built:  %s\n"
	MsgMoreChangesFormat = "%s and %d more"

	// Error messages
	MsgErrConfigExists = "configuration already exists: %s (use --force to overwrite)"
	MsgErrNoCommand    = "no command specified"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun     = "Show what would change without changing anything"
	MsgFlagNoColor    = "Disable colored output"
	MsgFlagProjectDir = "Project directory (default is the current directory)"
	MsgFlagConfig     = "Configuration file (default is distbuild.toml in the project directory)"
	MsgFlagRuntime    = "Also build the named runtime (repeatable)"
	MsgFlagCompile    = "Compile sources in the distribution"
	MsgFlagTarball    = "Write a tarball after the build, optionally to PATH"
	MsgFlagInstaller  = "Run the installer compiler after the build"
	MsgFlagDistDir    = "Distribution directory"
	MsgFlagExclude    = "Exclude files matching PATTERN (repeatable)"
	MsgFlagKeep       = "Keep distribution entries matching PATTERN (repeatable)"
	MsgFlagFormat     = "Output format (toml or yaml)"
	MsgFlagForce      = "Overwrite an existing configuration file"
	MsgFlagDelay      = "Quiet period before rebuilding"
)

// Long messages
var (
	MsgRootLong = heredoc.Doc(`
		distbuild assembles a distribution directory from a project tree.

		A build prunes the distribution directory, copies the selected project
		files into it, copies any enabled runtimes below it, and optionally
		compiles sources, writes a tarball and runs an installer compiler.
		Files are selected with ordered match lists: the last matching rule
		wins and a leading "!" excludes.`)

	MsgBuildLong = heredoc.Doc(`
		Build prunes every unprotected entry of the distribution directory and
		repopulates it from the project directory. Runtime destinations, the
		MANIFEST file and entries matching project.keep are protected.

		When the distribution holds a MANIFEST, the build fails with exit
		status 2 if the result differs from it.`)

	MsgBuildExample = heredoc.Doc(`
		  distbuild build                      # Build the project
		  distbuild build -n                   # Show the planned actions
		  distbuild build -r python --compile  # Include the python runtime, compiled
		  distbuild build --tarball=app.tgz    # Build and pack into app.tgz`)

	MsgManifestLong = heredoc.Doc(`
		The MANIFEST lists every file of the distribution, one per line,
		relative to the distribution directory. Once written, every build
		verifies the distribution against it.`)

	MsgManifestCheckLong = heredoc.Doc(`
		Check prints one line per difference: "-" for entries missing from the
		distribution and "+" for entries not listed in the MANIFEST. It exits
		with status 2 when they differ.`)

	MsgWatchLong = heredoc.Doc(`
		Watch builds once, then rebuilds whenever a selected project file or
		a runtime source changes. Bursts of changes are folded into a single
		rebuild. Build failures are reported and watching continues.`)

	MsgConfigLong = heredoc.Doc(`
		Print the configuration after merging the built-in defaults, the
		project configuration file, DISTBUILD_* environment variables and
		command line flags. Lists are appended across layers.`)

	MsgInitLong = heredoc.Doc(`
		Write an annotated distbuild.toml with every setting commented out.`)

	MsgCompletionLong = heredoc.Doc(`
		To load completions:

		Bash:
		  $ source <(distbuild completion bash)

		Zsh:
		  $ distbuild completion zsh > "${fpath[1]}/_distbuild"

		Fish:
		  $ distbuild completion fish | source

		PowerShell:
		  PS> distbuild completion powershell | Out-String | Invoke-Expression`)

	MsgUsageTemplate = heredoc.Doc(`
		{{boldUpper "usage"}}:{{if .Runnable}}
		  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
		  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

		{{boldUpper "aliases"}}:
		  {{.NameAndAliases}}{{end}}{{if .HasExample}}

		{{boldUpper "examples"}}:
		{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

		{{boldUpper "commands"}}:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
		  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

		{{bold .Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
		  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

		{{boldUpper "flags"}}:
		{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

		{{boldUpper "global flags"}}:
		{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

		Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
		`)
)
