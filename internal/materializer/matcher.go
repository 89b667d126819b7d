package materializer

import (
	"net/url"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledMatcher holds the include/exclude glob sets compiled once per
// Materialize call (spec.md §4.6).
type compiledMatcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// newMatcher compiles include and exclude patterns, always ignoring
// `.git/**`, and appending hidden-file negatives when ignoreHidden is set.
func newMatcher(include, exclude []string, ignoreHidden bool) (*compiledMatcher, error) {
	m := &compiledMatcher{}

	for _, p := range include {
		globs, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		m.include = append(m.include, globs...)
	}

	allExclude := append([]string{".git/**"}, exclude...)
	if ignoreHidden {
		allExclude = append(allExclude, ".*", "**/.*", "**/.*/**")
	}
	for _, p := range allExclude {
		globs, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		m.exclude = append(m.exclude, globs...)
	}

	return m, nil
}

// compilePattern applies the normalization spec.md §4.6 describes before
// compiling with gobwas/glob over the '/' separator: percent-decode
// patterns that look URL-encoded, and escape parentheses (gobwas/glob has
// no extglob grouping, so a literal '(' or ')' must not be mistaken for
// one by downstream tooling that does support extglob).
//
// gobwas/glob's "**" only ever spans one-or-more path segments — unlike
// the reference globber (picomatch/globby, dot:true), it never matches
// the empty segment, so "**/*.md" alone would miss a root-level
// README.md. Each "**/" occurrence is therefore also expanded to its
// zero-segment form (dropped entirely) and every resulting variant is
// compiled; matches() ORs across them, so a pattern with N "**/" segments
// matches everywhere the reference globber's zero-or-more semantics would.
func compilePattern(pattern string) ([]glob.Glob, error) {
	normalized := maybePercentDecode(pattern)
	normalized = escapeParens(normalized)

	variants := globstarZeroMatchVariants(normalized)
	globs := make([]glob.Glob, 0, len(variants))
	for _, v := range variants {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// globstarZeroMatchVariants returns pattern plus one variant per
// "**/" occurrence with that occurrence removed, applied recursively so
// patterns with more than one "**/" segment get every zero-or-more
// combination (e.g. "a/**/b/**/*.md" also yields "a/b/**/*.md",
// "a/**/b/*.md", and "a/b/*.md").
func globstarZeroMatchVariants(pattern string) []string {
	seen := map[string]bool{pattern: true}
	queue := []string{pattern}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := 0; i+3 <= len(cur); i++ {
			if cur[i:i+3] != "**/" {
				continue
			}
			next := cur[:i] + cur[i+3:]
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func maybePercentDecode(p string) string {
	if !strings.Contains(p, "%") {
		return p
	}
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return p
	}
	return decoded
}

func escapeParens(p string) string {
	p = strings.ReplaceAll(p, "(", `\(`)
	p = strings.ReplaceAll(p, ")", `\)`)
	return p
}

// matches reports whether relPath (POSIX-separated, relative to the
// repository root) should be materialized.
func (m *compiledMatcher) matches(relPath string) bool {
	for _, g := range m.exclude {
		if g.Match(relPath) {
			return false
		}
	}
	for _, g := range m.include {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}
