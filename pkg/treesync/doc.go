// Package treesync mirrors a filtered source tree into a destination tree.
//
// A sync runs three phases in order:
//
//  1. Prune removes every destination entry the protect list does not match,
//     bottom-up, so directories left empty are removed too.
//  2. Populate copies every source file the include list selects. Dotfiles,
//     dot-directories and compiled artifacts are always excluded.
//  3. Compile (optional) replaces unprotected source modules in the
//     destination with their compiled artifacts.
//
// In simulate mode every phase computes the exact same plan and reports the
// same actions, but nothing on disk changes.
package treesync
