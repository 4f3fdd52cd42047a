// Package config loads the distbuild configuration.
//
// Configuration is layered, each layer merged over the previous one:
//
//  1. the embedded defaults (embedded/defaults.toml)
//  2. the project configuration file (distbuild.toml, .distbuild.toml,
//     distbuild.yaml or the file given with --config)
//  3. DISTBUILD_* environment variables, with "__" separating nested keys
//     (DISTBUILD_COMPILE__ENABLED=true)
//  4. command line flags
//
// Tables merge key by key. Match lists, rule files, extra files and hooks are
// appended, so a project file adds rules to the default match lists instead
// of replacing them. Since the last matching rule wins, a list can still be
// reset by appending "!*" first. Any other list, such as compile.command,
// is replaced.
package config
