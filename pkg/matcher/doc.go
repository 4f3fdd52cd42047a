// Package matcher decides whether a path is selected by an ordered match list.
//
// A match list is an ordered set of shell wildcards. A wildcard prefixed with
// "!" excludes, any other wildcard includes. Every rule is tested in order and
// the last rule that matches decides; a path no rule matches is excluded.
// Appending rules to a list therefore always gives them priority:
//
//	list := matcher.MustParse("*", "!*.bak")
//	matcher.Matches("/src/x.bak", list, "/src") // false
//	matcher.Matches("/src/x.txt", list, "/src") // true
//
// Relative wildcards are joined to a context directory before matching.
// Wildcards follow fnmatch: "*" and "?" also match the path separator, so
// "docs/*" selects everything below docs at any depth.
//
// Paths and wildcards are compared with forward slashes on every platform and
// matching is always case-sensitive.
package matcher
