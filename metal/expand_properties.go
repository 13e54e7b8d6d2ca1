package metal

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	endsWithEach    = regexp.MustCompile(`\.@each$`)
	unbalancedBrace = regexp.MustCompile(`\{[^}{]*\{|\}[^}{]*\}|\{[^}]*$`)
)

// ExpandProperties expands brace patterns in a dependent key and calls fn
// for each resulting key:
//
//	"foo.bar"          -> "foo.bar"
//	"foo.{bar,baz}"    -> "foo.bar", "foo.baz"
//	"{foo,bar}.{a,b}"  -> "foo.a", "foo.b", "bar.a", "bar.b"
//	"foo.@each"        -> "foo.[]"
//
// Braces cannot nest and the pattern cannot contain spaces.
func ExpandProperties(pattern string, fn func(key string)) error {
	if strings.Contains(pattern, " ") {
		return fmt.Errorf("brace expanded properties cannot contain a space, pattern: %q: %w", pattern, ErrInvalidOperation)
	}
	if unbalancedBrace.MatchString(pattern) {
		return fmt.Errorf("brace expanded properties have to be balanced and cannot be nested, pattern: %q: %w", pattern, ErrInvalidOperation)
	}

	start := strings.IndexByte(pattern, '{')
	if start < 0 {
		fn(endsWithEach.ReplaceAllString(pattern, ".[]"))
		return nil
	}
	dive("", pattern, start, fn)
	return nil
}

func dive(prefix, pattern string, start int, fn func(string)) {
	end := strings.IndexByte(pattern, '}')
	alternatives := strings.Split(pattern[start+1:end], ",")
	after := pattern[end+1:]
	prefix += pattern[:start]

	for _, alt := range alternatives {
		if next := strings.IndexByte(after, '{'); next >= 0 {
			dive(prefix+alt, after, next, fn)
			continue
		}
		fn(endsWithEach.ReplaceAllString(prefix+alt+after, ".[]"))
	}
}
