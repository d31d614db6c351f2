package formula_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/cellgraph/pkg/formula"
)

func ExampleFormula_Evaluate() {
	f, err := formula.Parse("(4 + 6) * (2 + 3) / 2")
	if err != nil {
		panic(err)
	}
	v, _ := f.Evaluate(nil)
	fmt.Println(f, "=", v)
	// Output:
	// (4+6)*(2+3)/2 = 25
}

func ExampleNew() {
	f, _ := formula.New("a1 * b2 + a1", strings.ToUpper, nil)
	values := map[string]float64{"A1": 3, "B2": 4}
	v, _ := f.Evaluate(func(name string) (float64, error) {
		return values[name], nil
	})
	fmt.Println(f.String())
	fmt.Println(f.Variables())
	fmt.Println(v)
	// Output:
	// A1*B2+A1
	// [A1 B2]
	// 15
}

func ExampleFormula_Evaluate_divisionByZero() {
	f := formula.MustParse("1/(2-2)")
	_, err := f.Evaluate(nil)
	fmt.Println(err)
	// Output:
	// division by zero
}
