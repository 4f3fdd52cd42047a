package matcher

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/arthur-debert/distbuild/pkg/errors"
)

// excludePrefix marks an exclusion rule in its string form.
const excludePrefix = "!"

// Sense is what a matching rule decides.
type Sense uint8

const (
	// Include selects a matching path.
	Include Sense = iota
	// Exclude deselects a matching path.
	Exclude
)

func (s Sense) String() string {
	if s == Exclude {
		return "exclude"
	}
	return "include"
}

// Rule is one wildcard pattern and the sense it applies when it matches.
type Rule struct {
	Pattern string
	Sense   Sense
}

// String returns the rule in match-list notation.
func (r Rule) String() string {
	if r.Sense == Exclude {
		return excludePrefix + r.Pattern
	}
	return r.Pattern
}

// IncludeRule returns a rule selecting pattern.
func IncludeRule(pattern string) Rule {
	return Rule{Pattern: pattern, Sense: Include}
}

// ExcludeRule returns a rule deselecting pattern.
func ExcludeRule(pattern string) Rule {
	return Rule{Pattern: pattern, Sense: Exclude}
}

// IncludeTree selects everything below the literal directory dir.
func IncludeTree(dir string) Rule {
	return IncludeRule(treePattern(dir))
}

// ExcludeTree deselects everything below the literal directory dir.
func ExcludeTree(dir string) Rule {
	return ExcludeRule(treePattern(dir))
}

// IncludeLiteral selects exactly the path p, even if it contains wildcard
// characters.
func IncludeLiteral(p string) Rule {
	return IncludeRule(glob.QuoteMeta(normalize(p)))
}

// ExcludeSuffix deselects every path ending in the literal suffix.
func ExcludeSuffix(suffix string) Rule {
	return ExcludeRule("*" + glob.QuoteMeta(suffix))
}

func treePattern(dir string) string {
	return glob.QuoteMeta(strings.TrimSuffix(normalize(dir), "/")) + "/*"
}

// List is an ordered match list. Lists are treated as immutable: Append
// returns a new list and never shares the receiver's backing array.
type List []Rule

// Append returns a new list with rules added after l's rules.
func (l List) Append(rules ...Rule) List {
	out := make(List, 0, len(l)+len(rules))
	out = append(out, l...)
	return append(out, rules...)
}

// Concat returns a new list holding l followed by other.
func (l List) Concat(other List) List {
	return l.Append(other...)
}

// Strings returns the list in match-list notation.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = r.String()
	}
	return out
}

// ParseRule parses one match-list entry. A leading "!" marks an exclusion.
func ParseRule(spec string) (Rule, error) {
	rule := IncludeRule(spec)
	if strings.HasPrefix(spec, excludePrefix) {
		rule = ExcludeRule(strings.TrimPrefix(spec, excludePrefix))
	}

	if err := validate(rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

func validate(rule Rule) error {
	if strings.TrimSpace(rule.Pattern) == "" {
		return errors.Newf(errors.ErrConfigInvalid, "empty wildcard in match list entry %q", rule.String())
	}
	if _, err := glob.Compile(normalize(rule.Pattern)); err != nil {
		return errors.Wrapf(err, errors.ErrConfigInvalid, "invalid wildcard %q", rule.String())
	}
	return nil
}

// Parse builds a list from match-list entries, keeping their order.
func Parse(specs ...string) (List, error) {
	list := make(List, 0, len(specs))
	for _, spec := range specs {
		rule, err := ParseRule(spec)
		if err != nil {
			return nil, err
		}
		list = append(list, rule)
	}
	return list, nil
}

// MustParse is like Parse but panics on invalid entries. It is meant for
// lists built from constants.
func MustParse(specs ...string) List {
	list, err := Parse(specs...)
	if err != nil {
		panic(err)
	}
	return list
}
