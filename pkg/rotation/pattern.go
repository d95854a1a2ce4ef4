package rotation

import (
	"strings"

	"github.com/gobwas/glob"
)

// globPrefix marks a pattern that is matched as a glob against the whole URL
// instead of by substring containment.
const globPrefix = "glob:"

// PatternList matches URLs against an exclusion list.
//
// Plain patterns match when the URL contains them anywhere, so "a.com" also
// matches "https://banana.com/". Patterns written as "glob:<expr>" are
// compiled with gobwas/glob and must match the full URL.
type PatternList struct {
	substrings []string
	globs      []glob.Glob
}

// CompilePatterns builds a PatternList. Invalid glob patterns are logged and
// skipped; they never match.
func CompilePatterns(patterns []string) PatternList {
	var pl PatternList
	for _, pattern := range patterns {
		if expr, ok := strings.CutPrefix(pattern, globPrefix); ok {
			g, err := glob.Compile(expr)
			if err != nil {
				debugLog.Warnf("Ignoring invalid glob pattern %q: %v", pattern, err)
				continue
			}
			pl.globs = append(pl.globs, g)
			continue
		}
		pl.substrings = append(pl.substrings, pattern)
	}
	return pl
}

// Match reports whether url matches any pattern in the list.
func (pl PatternList) Match(url string) bool {
	for _, s := range pl.substrings {
		if strings.Contains(url, s) {
			return true
		}
	}
	for _, g := range pl.globs {
		if g.Match(url) {
			return true
		}
	}
	return false
}

// Empty reports whether the list has no usable patterns.
func (pl PatternList) Empty() bool {
	return len(pl.substrings) == 0 && len(pl.globs) == 0
}
