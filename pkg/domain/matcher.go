package domain

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchesPattern reports whether a dotted package path matches one domain
// pattern. The pattern grammar is:
//
//   - a literal dotted prefix without wildcards matches segment-wise:
//     "a.b" matches "a.b" and "a.b.c" but not "a.bc";
//   - a pattern containing "*" is a doublestar glob over dot-separated
//     segments: "a.b.*" matches any immediate child of a.b, "a.b.**" matches
//     any descendant.
func MatchesPattern(pattern, pkg string) bool {
	if pattern == "" || pkg == "" {
		return false
	}
	if !strings.Contains(pattern, "*") {
		return pkg == pattern || strings.HasPrefix(pkg, pattern+".")
	}
	// doublestar segments on "/", so dotted paths are transposed before
	// matching.
	ok, err := doublestar.Match(dotsToSlashes(pattern), dotsToSlashes(pkg))
	if err != nil {
		return false
	}
	return ok
}

func dotsToSlashes(s string) string {
	return strings.ReplaceAll(s, ".", "/")
}
