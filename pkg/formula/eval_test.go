package formula

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func lookupFrom(vars map[string]float64) Lookup {
	return func(name string) (float64, error) {
		if v, ok := vars[name]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("no value for %s", name)
	}
}

func TestEvaluate(t *testing.T) {
	vars := map[string]float64{"x": 7, "y": 2, "A1": 3}

	tests := []struct {
		input string
		want  float64
	}{
		{"2+3", 5},
		{"(4+6)*(2+3)/2", 25},
		{"2+3*4", 14},
		{"2*3+4", 10},
		{"10-4-3", 3},
		{"8/4/2", 1},
		{"2-3*4+5", -5},
		{"1-2+3", 2},
		{"2*(3+4)*2", 28},
		{"((2))", 2},
		{"x*y-A1", 11},
		{"x/y", 3.5},
		{"1.5e2+.5", 150.5},
		{"2+(3*(4-1))/9", 3},
		{"100/(2*5)/5", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := MustParse(tt.input).Evaluate(lookupFrom(vars))
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	vars := map[string]float64{"x": 1, "y": 4}

	tests := []struct {
		input  string
		reason string
	}{
		{"x/0", "division by zero"},
		{"x/(y-y)", "division by zero"},
		{"1+2/0*3", "division by zero"},
		{"x+z", "undefined variable z"},
		{"(q)", "undefined variable q"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := MustParse(tt.input).Evaluate(lookupFrom(vars))
			var evalErr *EvalError
			if !errors.As(err, &evalErr) {
				t.Fatalf("Evaluate() error = %v, want *EvalError", err)
			}
			if evalErr.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", evalErr.Reason, tt.reason)
			}
		})
	}
}

func TestEvaluateNilLookup(t *testing.T) {
	_, err := MustParse("a+1").Evaluate(nil)
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Evaluate(nil) error = %v, want *EvalError", err)
	}
}

func TestEvaluateHugeLiteral(t *testing.T) {
	got, err := MustParse("1e400").Evaluate(nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("Evaluate() = %v, want +Inf", got)
	}
}
