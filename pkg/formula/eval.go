package formula

import (
	"fmt"
	"strconv"
)

// Lookup resolves a normalised variable name to its numeric value.
// Any non-nil error means the variable is undefined.
type Lookup func(name string) (float64, error)

// EvalError describes why a formula could not be evaluated. It is an
// in-band result, not a failure of the engine.
type EvalError struct {
	Reason string
}

func (e *EvalError) Error() string { return e.Reason }

// Evaluate computes the value of f with the usual precedence: * and / bind
// tighter than + and -, operators of equal precedence associate left to
// right, and parentheses group.
//
// Undefined variables and division by zero yield an *EvalError. Evaluation
// never panics on a formula built by [New].
func (f Formula) Evaluate(lookup Lookup) (float64, error) {
	var (
		values []float64
		ops    []string
	)

	top := func() string {
		if len(ops) == 0 {
			return ""
		}
		return ops[len(ops)-1]
	}
	// reduce pops one operator and the two topmost values and pushes the result.
	reduce := func() error {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		a, b := values[len(values)-2], values[len(values)-1]
		v, err := apply(op, a, b)
		if err != nil {
			return err
		}
		values = append(values[:len(values)-2], v)
		return nil
	}

	for _, t := range f.toks() {
		switch t.Kind {
		case Number, Variable:
			var v float64
			if t.Kind == Number {
				v = parseNumber(t.Text)
			} else {
				var err error
				if lookup == nil {
					return 0, &EvalError{Reason: fmt.Sprintf("undefined variable %s", t.Text)}
				}
				if v, err = lookup(t.Text); err != nil {
					return 0, &EvalError{Reason: fmt.Sprintf("undefined variable %s", t.Text)}
				}
			}
			values = append(values, v)
			if op := top(); op == "*" || op == "/" {
				if err := reduce(); err != nil {
					return 0, err
				}
			}

		case BinaryOp:
			if t.Text == "+" || t.Text == "-" {
				if op := top(); op == "+" || op == "-" {
					if err := reduce(); err != nil {
						return 0, err
					}
				}
			}
			ops = append(ops, t.Text)

		case OpenParen:
			ops = append(ops, "(")

		case CloseParen:
			if op := top(); op == "+" || op == "-" {
				if err := reduce(); err != nil {
					return 0, err
				}
			}
			ops = ops[:len(ops)-1] // "("
			if op := top(); op == "*" || op == "/" {
				if err := reduce(); err != nil {
					return 0, err
				}
			}
		}
	}

	if len(ops) > 0 {
		if err := reduce(); err != nil {
			return 0, err
		}
	}
	return values[0], nil
}

func apply(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, &EvalError{Reason: "division by zero"}
		}
		return a / b, nil
	}
	return 0, &EvalError{Reason: fmt.Sprintf("unknown operator %q", op)}
}

// parseNumber converts a validated number token. Literals too large for a
// float64 become ±Inf.
func parseNumber(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
