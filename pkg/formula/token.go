package formula

import "regexp"

// Kind classifies a token of an infix formula.
type Kind int

const (
	OpenParen Kind = iota
	CloseParen
	BinaryOp
	Number
	Variable
)

var kindNames = [...]string{"(", ")", "operator", "number", "variable"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is a single lexeme of a validated formula.
type Token struct {
	Text string
	Kind Kind
}

// operand reports whether the token ends a value: a number, a variable,
// or a closing parenthesis.
func (k Kind) operand() bool {
	return k == Number || k == Variable || k == CloseParen
}

var (
	variableRegex = regexp.MustCompile(`^[a-zA-Z][0-9a-zA-Z]*$`)
	numberRegex   = regexp.MustCompile(`^(?:\d+\.\d*|\d*\.\d+|\d+)(?:e[+-]?\d+)?$`)
)

// classify returns the kind of a lexeme produced by [Tokens].
// The second result is false for lexemes that are not part of the grammar.
func classify(s string) (Kind, bool) {
	switch s {
	case "(":
		return OpenParen, true
	case ")":
		return CloseParen, true
	case "+", "-", "*", "/":
		return BinaryOp, true
	}
	switch {
	case variableRegex.MatchString(s):
		return Variable, true
	case numberRegex.MatchString(s):
		return Number, true
	}
	return 0, false
}

// IsVariable reports whether s has the grammatical shape of a variable:
// a letter followed by letters or digits.
func IsVariable(s string) bool {
	return variableRegex.MatchString(s)
}
