package matcher

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Decision is the outcome of evaluating one path.
type Decision struct {
	// Included is the final verdict.
	Included bool
	// Matched reports whether any rule matched.
	Matched bool
	// RuleIndex is the index of the deciding rule, -1 when nothing matched.
	RuleIndex int
}

type compiledRule struct {
	source Rule
	glob   glob.Glob // nil when the resolved pattern does not compile
}

// Matcher evaluates paths against a list resolved in one context directory.
type Matcher struct {
	compiled []compiledRule
}

// Compile resolves every rule of list against contextDir and compiles it.
// Rules whose resolved pattern does not compile never match.
func Compile(list List, contextDir string) *Matcher {
	m := &Matcher{compiled: make([]compiledRule, 0, len(list))}
	for _, rule := range list {
		// No separators: '*' and '?' cross '/' like fnmatch does.
		g, err := glob.Compile(resolve(rule.Pattern, contextDir))
		if err != nil {
			g = nil
		}
		m.compiled = append(m.compiled, compiledRule{source: rule, glob: g})
	}
	return m
}

// Matches reports whether p is selected by list, with relative rules
// resolved against contextDir.
func Matches(p string, list List, contextDir string) bool {
	return Compile(list, contextDir).Match(p)
}

// Match reports whether p is selected.
func (m *Matcher) Match(p string) bool {
	return m.Decide(p).Included
}

// Decide evaluates every rule in order; the last matching rule wins and a
// path that matches nothing is excluded.
func (m *Matcher) Decide(p string) Decision {
	candidate := normalize(p)
	res := Decision{RuleIndex: -1}

	for i, rule := range m.compiled {
		if rule.glob == nil || !rule.glob.Match(candidate) {
			continue
		}
		res.Matched = true
		res.RuleIndex = i
		res.Included = rule.source.Sense == Include
	}
	return res
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	return len(m.compiled)
}

// resolve joins a relative pattern to the context directory. The directory is
// quoted so that wildcard characters in real directory names match literally.
func resolve(pattern, contextDir string) string {
	pattern = normalize(pattern)
	if isAbs(pattern) || contextDir == "" {
		return pattern
	}
	dir := strings.TrimSuffix(normalize(contextDir), "/")
	return glob.QuoteMeta(dir) + "/" + pattern
}

// normalize converts host separators to forward slashes.
func normalize(p string) string {
	return filepath.ToSlash(p)
}

func isAbs(p string) bool {
	return path.IsAbs(p) || filepath.IsAbs(filepath.FromSlash(p))
}
