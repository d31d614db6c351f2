// Package cell defines what a spreadsheet cell holds: its contents as the
// user entered them and the value computed from those contents.
//
// Contents and values are closed sum types. Contents is one of [Text],
// [Number], or [Formula]; Value is one of [Text], [Number], or [Error].
// Switch on them exhaustively:
//
//	switch v := c.Value.(type) {
//	case cell.Number:
//	case cell.Text:
//	case cell.Error:
//	}
package cell

import (
	"strconv"

	"github.com/matzehuels/cellgraph/pkg/formula"
)

// Contents is what a user entered into a cell.
type Contents interface {
	contents()
}

// Value is what a cell evaluates to.
type Value interface {
	value()
}

// Text is a literal string. The empty Text means the cell is empty.
type Text string

// Number is a literal or computed number.
type Number float64

// Formula is a validated formula entered with a leading "=".
type Formula struct {
	formula.Formula
}

// Error is the value of a formula that could not be evaluated.
type Error struct {
	Reason string
}

func (Text) contents()    {}
func (Number) contents()  {}
func (Formula) contents() {}

func (Text) value()   {}
func (Number) value() {}
func (Error) value()  {}

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }

// String returns the formula with its leading "=".
func (f Formula) String() string { return "=" + f.Formula.String() }

func (e Error) String() string { return "#ERROR: " + e.Reason }

// Cell is a named, non-empty cell and its last computed value.
type Cell struct {
	Name     string
	Contents Contents
	Value    Value
}

// New creates a cell whose value is not yet computed. Text and number
// contents evaluate to themselves immediately; formula cells hold the zero
// Number until [Cell.Recalculate] is called.
func New(name string, c Contents) *Cell {
	cl := &Cell{Name: name, Contents: c}
	switch c := c.(type) {
	case Text:
		cl.Value = c
	case Number:
		cl.Value = c
	case Formula:
		cl.Value = Number(0)
	}
	return cl
}

// Recalculate recomputes the cell's value from its contents. Formula
// evaluation failures are stored as an [Error] value.
func (c *Cell) Recalculate(lookup formula.Lookup) {
	switch ct := c.Contents.(type) {
	case Text:
		c.Value = ct
	case Number:
		c.Value = ct
	case Formula:
		v, err := ct.Evaluate(lookup)
		if err != nil {
			c.Value = Error{Reason: err.Error()}
			return
		}
		c.Value = Number(v)
	}
}

// IsEmpty reports whether the contents are the empty string.
func (c *Cell) IsEmpty() bool {
	return IsEmpty(c.Contents)
}

// IsEmpty reports whether c is nil or the empty Text.
func IsEmpty(c Contents) bool {
	if c == nil {
		return true
	}
	t, ok := c.(Text)
	return ok && t == ""
}

// Variables returns the cell names a formula refers to, or nil for other
// contents.
func Variables(c Contents) []string {
	if f, ok := c.(Formula); ok {
		return f.Variables()
	}
	return nil
}

// Serialize renders contents in the persisted record form: text as-is,
// numbers in shortest round-trip form, formulas with a leading "=".
func Serialize(c Contents) string {
	switch c := c.(type) {
	case Text:
		return string(c)
	case Number:
		return c.String()
	case Formula:
		return c.String()
	}
	return ""
}

// Display renders a value for output.
func Display(v Value) string {
	switch v := v.(type) {
	case Text:
		return string(v)
	case Number:
		return v.String()
	case Error:
		return v.String()
	}
	return ""
}
