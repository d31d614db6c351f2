package formula

import (
	"iter"
	"regexp"
	"strings"
)

// lexemeRegex matches every lexeme the grammar knows about. Whitespace runs
// are matched so they can be skipped; anything between two matches is an
// unrecognised run that is yielded as-is and rejected during validation.
var lexemeRegex = regexp.MustCompile(
	`\(|\)|[+\-*/]|[a-zA-Z][0-9a-zA-Z]*|(?:\d+\.\d*|\d*\.\d+|\d+)(?:e[+-]?\d+)?|\s+`,
)

// Tokens returns a lazy sequence of the lexemes in s, left to right.
// Whitespace is dropped. Characters the grammar does not recognise are
// yielded as their own lexeme rather than discarded.
func Tokens(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := s
		for rest != "" {
			loc := lexemeRegex.FindStringIndex(rest)
			if loc == nil {
				yield(rest)
				return
			}
			if loc[0] > 0 && !yield(rest[:loc[0]]) {
				return
			}
			if lex := rest[loc[0]:loc[1]]; strings.TrimSpace(lex) != "" && !yield(lex) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}
