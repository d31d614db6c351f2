package formula

import (
	"slices"
	"strings"

	"github.com/matzehuels/cellgraph/pkg/errors"
)

// Normalizer maps a variable name to its canonical form, for example by
// upper-casing it. The result must still look like a variable.
type Normalizer func(string) string

// Validator reports whether a normalised variable name is acceptable.
type Validator func(string) bool

// Formula is a validated infix expression over numbers, variables, the four
// binary operators, and parentheses.
//
// The zero value is the formula "0". A Formula is immutable and safe to
// copy and share.
type Formula struct {
	tokens []Token
}

var zeroTokens = []Token{{Text: "0", Kind: Number}}

// Parse is [New] with the identity normaliser and a validator that accepts
// every variable.
func Parse(s string) (Formula, error) {
	return New(s, nil, nil)
}

// MustParse is like [Parse] but panics if s is not a valid formula.
// It is intended for tests and package-level initialisation.
func MustParse(s string) Formula {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// New tokenizes and validates s.
//
// Each variable is passed through normalize, must still have the shape of a
// variable afterwards, and must then be accepted by valid. A nil normalize
// leaves names unchanged; a nil valid accepts all names.
//
// Every rejection is an *errors.Error with code [errors.ErrCodeInvalidFormula].
func New(s string, normalize Normalizer, valid Validator) (Formula, error) {
	if normalize == nil {
		normalize = func(v string) string { return v }
	}
	if valid == nil {
		valid = func(string) bool { return true }
	}

	var (
		tokens []Token
		opens  int
		closes int
	)
	for lex := range Tokens(s) {
		kind, ok := classify(lex)
		if !ok {
			return Formula{}, errors.New(errors.ErrCodeInvalidFormula, "invalid token %q", lex)
		}

		if kind == Variable {
			name := normalize(lex)
			if !IsVariable(name) {
				return Formula{}, errors.New(errors.ErrCodeInvalidFormula,
					"variable %q normalizes to %q, which is not a variable", lex, name)
			}
			if !valid(name) {
				return Formula{}, errors.New(errors.ErrCodeInvalidFormula, "invalid variable %q", name)
			}
			lex = name
		}

		if len(tokens) == 0 {
			if kind != Number && kind != Variable && kind != OpenParen {
				return Formula{}, errors.New(errors.ErrCodeInvalidFormula,
					"formula must start with a number, variable, or '(', got %q", lex)
			}
		} else {
			prev := tokens[len(tokens)-1]
			if prev.Kind.operand() {
				if kind != BinaryOp && kind != CloseParen {
					return Formula{}, errors.New(errors.ErrCodeInvalidFormula,
						"expected an operator or ')' after %q, got %q", prev.Text, lex)
				}
			} else if kind != Number && kind != Variable && kind != OpenParen {
				return Formula{}, errors.New(errors.ErrCodeInvalidFormula,
					"expected a number, variable, or '(' after %q, got %q", prev.Text, lex)
			}
		}

		switch kind {
		case OpenParen:
			opens++
		case CloseParen:
			closes++
			if closes > opens {
				return Formula{}, errors.New(errors.ErrCodeInvalidFormula, "unmatched ')'")
			}
		}
		tokens = append(tokens, Token{Text: lex, Kind: kind})
	}

	if len(tokens) == 0 {
		return Formula{}, errors.New(errors.ErrCodeInvalidFormula, "formula is empty")
	}
	if last := tokens[len(tokens)-1]; !last.Kind.operand() {
		return Formula{}, errors.New(errors.ErrCodeInvalidFormula,
			"formula must end with a number, variable, or ')', got %q", last.Text)
	}
	if opens != closes {
		return Formula{}, errors.New(errors.ErrCodeInvalidFormula, "unmatched '('")
	}
	return Formula{tokens: tokens}, nil
}

func (f Formula) toks() []Token {
	if len(f.tokens) == 0 {
		return zeroTokens
	}
	return f.tokens
}

// Tokens returns a copy of the formula's tokens in source order.
func (f Formula) Tokens() []Token {
	return slices.Clone(f.toks())
}

// String returns the formula's tokens concatenated without whitespace.
// Parsing the result with the same normaliser and validator yields an
// equal formula.
func (f Formula) String() string {
	var b strings.Builder
	for _, t := range f.toks() {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Variables returns the distinct normalised variable names, sorted.
func (f Formula) Variables() []string {
	var vars []string
	for _, t := range f.tokens {
		if t.Kind == Variable {
			vars = append(vars, t.Text)
		}
	}
	slices.Sort(vars)
	return slices.Compact(vars)
}

// Equal reports whether f and g have the same canonical string form.
func (f Formula) Equal(g Formula) bool {
	return f.String() == g.String()
}
