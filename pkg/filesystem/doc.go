// Package filesystem provides filesystem implementations for distbuild.
//
// Every component that touches disk goes through the FS interface so that
// pure logic can be tested against an in-memory afero filesystem while
// symlink behaviour is tested against the real OS filesystem.
package filesystem
