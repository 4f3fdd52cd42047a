// Package build assembles a distribution directory from a project.
//
// A build runs, in order: pre-build hooks, the project sync, the selected
// runtime syncs (each followed by its extra files), post-build hooks, the
// manifest check, the installer compiler and the tarball. Every step honours
// dry-run mode, and configuration problems are reported before any step
// runs.
package build
