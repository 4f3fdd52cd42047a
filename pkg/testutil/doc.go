// Package testutil provides helpers for distbuild tests.
//
// Trees are declared inline as FileTree values and written either to an
// in-memory filesystem (the default for logic tests) or to t.TempDir() when a
// test needs real symlinks or permission bits. Snapshot captures a whole tree
// so a test can assert that a simulated run left it untouched.
package testutil
