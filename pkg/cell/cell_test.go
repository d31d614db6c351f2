package cell

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/cellgraph/pkg/formula"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		contents Contents
		want     Value
	}{
		{"text", Text("hello"), Text("hello")},
		{"number", Number(4.5), Number(4.5)},
		{"formula", Formula{formula.MustParse("1+2")}, Number(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("A1", tt.contents)
			if c.Value != tt.want {
				t.Errorf("Value = %v, want %v", c.Value, tt.want)
			}
		})
	}
}

func TestRecalculate(t *testing.T) {
	values := map[string]float64{"A1": 3}
	lookup := func(name string) (float64, error) {
		if v, ok := values[name]; ok {
			return v, nil
		}
		return 0, errors.New("missing")
	}

	c := New("B1", Formula{formula.MustParse("A1*A1")})
	c.Recalculate(lookup)
	if c.Value != Number(9) {
		t.Errorf("Value = %v, want 9", c.Value)
	}

	c = New("B2", Formula{formula.MustParse("A1/(A1-3)")})
	c.Recalculate(lookup)
	if diff := cmp.Diff(Value(Error{Reason: "division by zero"}), c.Value); diff != "" {
		t.Errorf("Value mismatch (-want +got):\n%s", diff)
	}

	c = New("B3", Formula{formula.MustParse("C9+1")})
	c.Recalculate(lookup)
	if diff := cmp.Diff(Value(Error{Reason: "undefined variable C9"}), c.Value); diff != "" {
		t.Errorf("Value mismatch (-want +got):\n%s", diff)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		contents Contents
		want     bool
	}{
		{"nil", nil, true},
		{"empty text", Text(""), true},
		{"space", Text(" "), false},
		{"zero", Number(0), false},
		{"formula", Formula{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEmpty(tt.contents); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name     string
		contents Contents
		want     string
	}{
		{"text", Text("total:"), "total:"},
		{"integer", Number(42), "42"},
		{"fraction", Number(0.1), "0.1"},
		{"large", Number(1e21), "1e+21"},
		{"negative", Number(-5.3), "-5.3"},
		{"formula", Formula{formula.MustParse("A1 + 2")}, "=A1+2"},
		{"zero formula", Formula{}, "=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Serialize(tt.contents); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Text("x"), "x"},
		{Number(2.5), "2.5"},
		{Number(math.Inf(1)), "+Inf"},
		{Error{Reason: "division by zero"}, "#ERROR: division by zero"},
	}
	for _, tt := range tests {
		if got := Display(tt.value); got != tt.want {
			t.Errorf("Display(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestVariables(t *testing.T) {
	if got := Variables(Text("A1")); got != nil {
		t.Errorf("Variables(text) = %v, want nil", got)
	}
	got := Variables(Formula{formula.MustParse("B2+A1*B2")})
	if diff := cmp.Diff([]string{"A1", "B2"}, got); diff != "" {
		t.Errorf("Variables() mismatch (-want +got):\n%s", diff)
	}
}
