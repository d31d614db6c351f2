// Package formula tokenizes, validates, and evaluates infix arithmetic
// formulas such as "(A1 + 2.5) * b7 / 1e3".
//
// # Grammar
//
// A formula is a sequence of tokens:
//
//   - "(" and ")"
//   - the binary operators + - * /
//   - numbers: 12, 1.5, .5, 3., 2e10, 1.5e-3
//   - variables: a letter followed by letters or digits (x, A1, foo42)
//
// Whitespace between tokens is ignored. There are no unary operators, so
// "-5" is rejected; write "0-5" instead.
//
// # Validation
//
// [New] checks the token stream in a single pass: the formula must not be
// empty, must start and end with an operand, operands and operators must
// alternate, and parentheses must balance. Variables are passed through a
// caller-supplied [Normalizer] and [Validator], which is how a sheet
// upper-cases cell references and restricts them to valid cell names:
//
//	f, err := formula.New("a1 + b2", strings.ToUpper, isCellName)
//	f.String()    // "A1+B2"
//	f.Variables() // [A1 B2]
//
// # Evaluation
//
// [Formula.Evaluate] resolves variables through a [Lookup] and computes the
// result with standard precedence using an operator stack and a value stack.
// Undefined variables and division by zero are reported as *[EvalError].
package formula
