// Package glob compiles the glob patterns used by analyzer configuration.
//
// Two dialects are supported. Name patterns (module specifiers, callee names)
// treat "*" as any run of characters. Path patterns treat "*" as any run within
// one path segment and "**" as any run across segments, so "src/**/*.ts"
// matches both "src/a.ts" and "src/x/y/a.ts".
package glob

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects the glob dialect
type Mode int

const (
	// ModeName matches module specifiers and callee names
	ModeName Mode = iota
	// ModePath matches slash-separated file paths
	ModePath
)

// Pattern is a compiled glob
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// String returns the source pattern
func (p *Pattern) String() string {
	return p.raw
}

// Match reports whether s matches the pattern in full
func (p *Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}

// Compile converts a glob into an anchored regular expression
func Compile(pattern string, mode Mode) (*Pattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty glob pattern")
	}

	var sb strings.Builder
	sb.WriteString("^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			if mode == ModePath && i+1 < len(runes) && runes[i+1] == '*' {
				i++
				// "**/" also matches zero directories
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
					sb.WriteString("(?:.*/)?")
				} else {
					sb.WriteString(".*")
				}
				continue
			}
			if mode == ModePath {
				sb.WriteString("[^/]*")
			} else {
				sb.WriteString(".*")
			}
		case '?':
			if mode == ModePath {
				sb.WriteString("[^/]")
			} else {
				sb.WriteString(".")
			}
		case '[':
			end := indexRune(runes, i+1, ']')
			if end < 0 {
				return nil, fmt.Errorf("glob %q: unterminated character class", pattern)
			}
			class := string(runes[i+1 : end])
			if class == "" {
				return nil, fmt.Errorf("glob %q: empty character class", pattern)
			}
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			sb.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i = end
		case ']':
			return nil, fmt.Errorf("glob %q: unmatched ']'", pattern)
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return &Pattern{raw: pattern, re: re}, nil
}

func indexRune(runes []rune, from int, r rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// Set is an ordered list of compiled patterns
type Set []*Pattern

// CompileAll compiles every pattern, failing on the first malformed one
func CompileAll(patterns []string, mode Mode) (Set, error) {
	set := make(Set, 0, len(patterns))
	for _, p := range patterns {
		compiled, err := Compile(p, mode)
		if err != nil {
			return nil, err
		}
		set = append(set, compiled)
	}
	return set, nil
}

// MatchAny reports whether s matches at least one pattern in the set
func (s Set) MatchAny(str string) bool {
	for _, p := range s {
		if p.Match(str) {
			return true
		}
	}
	return false
}

// MatchAny compiles patterns and reports whether s matches one of them
func MatchAny(patterns []string, mode Mode, s string) (bool, error) {
	set, err := CompileAll(patterns, mode)
	if err != nil {
		return false, err
	}
	return set.MatchAny(s), nil
}
