package chunker

import (
	"regexp"
	"strings"
)

// Rule is a single heading predicate. Rules are evaluated in order and the
// first match wins, so more specific patterns must come before looser ones.
type Rule struct {
	Name    string
	pattern *regexp.Regexp
}

// Match reports whether the trimmed line looks like this kind of heading.
func (r Rule) Match(line string) bool {
	return r.pattern.MatchString(line)
}

// DefaultRules are the heading patterns applied to every line during section
// splitting. A line matching any rule starts a new section and becomes that
// section's heading context.
var DefaultRules = []Rule{
	{Name: "markdown", pattern: regexp.MustCompile(`^#{1,6}\s+.+$`)},
	{Name: "all-caps", pattern: regexp.MustCompile(`^[A-Z][A-Z\s]{2,}$`)},
	{Name: "numbered", pattern: regexp.MustCompile(`^\d+\.\s+[A-Z][^.]*$`)},
	{Name: "title-case", pattern: regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s*$`)},
}

// matchHeading returns the heading text when the line matches one of the
// default rules. The heading is the trimmed line itself.
func matchHeading(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	for _, rule := range DefaultRules {
		if rule.Match(trimmed) {
			return trimmed, true
		}
	}
	return "", false
}
