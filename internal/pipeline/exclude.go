package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// Excluder matches paths against shell-style glob patterns.
//
// The syntax is that of classic fnmatch: '*' matches any run of
// characters including '/', '?' matches one character, and "[seq]" /
// "[!seq]" match one character in or not in seq. Patterns are matched
// against the whole path string as it was given or discovered.
type Excluder struct {
	patterns []string
	res      []*regexp.Regexp
}

// NewExcluder compiles the given patterns in order.
func NewExcluder(patterns []string) (*Excluder, error) {
	e := &Excluder{
		patterns: make([]string, 0, len(patterns)),
		res:      make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, p := range patterns {
		re, err := regexp.Compile(globToRegexp(p))
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		e.patterns = append(e.patterns, p)
		e.res = append(e.res, re)
	}
	return e, nil
}

// Patterns returns the patterns in configuration order.
func (e *Excluder) Patterns() []string {
	if e == nil {
		return nil
	}
	return e.patterns
}

// Match reports whether path matches any pattern. A nil Excluder matches
// nothing.
func (e *Excluder) Match(path string) bool {
	if e == nil {
		return false
	}
	for _, re := range e.res {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// globToRegexp translates an fnmatch pattern into an anchored regular
// expression. An unterminated '[' is taken literally.
func globToRegexp(pattern string) string {
	var sb strings.Builder
	sb.WriteString(`(?s)^`)

	runes := []rune(pattern)
	n := len(runes)
	for i := 0; i < n; {
		c := runes[i]
		i++

		switch c {
		case '*':
			for i < n && runes[i] == '*' {
				i++
			}
			sb.WriteString(`.*`)
		case '?':
			sb.WriteString(`.`)
		case '[':
			j := i
			if j < n && runes[j] == '!' {
				j++
			}
			if j < n && runes[j] == ']' {
				j++
			}
			for j < n && runes[j] != ']' {
				j++
			}
			if j >= n {
				sb.WriteString(`\[`)
				continue
			}

			class := strings.ReplaceAll(string(runes[i:j]), `\`, `\\`)
			i = j + 1
			switch {
			case strings.HasPrefix(class, "!"):
				class = "^" + class[1:]
			case strings.HasPrefix(class, "^"):
				class = `\` + class
			}
			sb.WriteString("[" + class + "]")
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteString(`\z`)
	return sb.String()
}
