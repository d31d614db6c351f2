package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/cellgraph/pkg/cell"
	"github.com/matzehuels/cellgraph/pkg/dag"
	"github.com/matzehuels/cellgraph/pkg/sheet"
)

func TestToDOT(t *testing.T) {
	g := dag.New()
	for _, e := range [][2]string{{"A1", "B1"}, {"A1", "C1"}, {"B1", "C1"}, {"Z9", "C1"}} {
		if err := g.AddDependency(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	values := map[string]cell.Value{
		"A1": cell.Number(3),
		"B1": cell.Number(9),
		"C1": cell.Error{Reason: "undefined variable Z9"},
		"D1": cell.Text("label"),
	}

	dot := ToDOT(g, values, Options{Values: true, Highlight: "b1"})

	for _, want := range []string{
		`"A1" [label="A1\n3"];`,
		`"B1" [label="B1\n9", penwidth=3];`,
		`"C1" [label="C1\n#ERROR: undefined variable Z9", fillcolor="#f8d7da", color="#b02a37"];`,
		`"D1" [label="D1\nlabel"];`,
		`"Z9" [label="Z9", style="rounded,dashed", fontcolor=grey40];`,
		`"A1" -> "B1";`,
		`"Z9" -> "C1";`,
		`{ rank=source; "A1"; "Z9"; }`,
		`{ rank=sink; "C1"; }`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %s\n%s", want, dot)
		}
	}

	// Grid order: column before row, A before Z.
	if strings.Index(dot, `"D1" [`) > strings.Index(dot, `"Z9" [`) {
		t.Errorf("ToDOT() nodes out of grid order:\n%s", dot)
	}
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("ToDOT() is not a digraph:\n%s", dot)
	}
}

func TestToDOTRanksInGridOrder(t *testing.T) {
	g := dag.New()
	for _, e := range [][2]string{{"A10", "B1"}, {"A2", "B1"}} {
		if err := g.AddDependency(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	dot := ToDOT(g, nil, Options{})
	if !strings.Contains(dot, `{ rank=source; "A2"; "A10"; }`) {
		t.Errorf("ToDOT() source rank not in grid order:\n%s", dot)
	}

	if dot := ToDOT(dag.New(), map[string]cell.Value{"A1": cell.Number(1)}, Options{}); strings.Contains(dot, "rank=") {
		t.Errorf("ToDOT() without edges has rank hints:\n%s", dot)
	}
}

func TestToDOTNamesOnly(t *testing.T) {
	g := dag.New()
	if err := g.AddDependency("A1", "B1"); err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(g, map[string]cell.Value{"A1": cell.Number(1), "B1": cell.Number(2)}, Options{})
	if !strings.Contains(dot, `"A1" [label="A1"];`) {
		t.Errorf("ToDOT() labels include values without Options.Values:\n%s", dot)
	}
}

func TestSheetDOT(t *testing.T) {
	s := sheet.New()
	for _, e := range [][2]string{{"A1", "2"}, {"A2", "=A1*10"}, {"B1", "note"}} {
		if _, err := s.SetContentsOfCell(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	dot := SheetDOT(s, Options{Values: true})
	for _, want := range []string{`"A2" [label="A2\n20"];`, `"B1" [label="B1\nnote"];`, `"A1" -> "A2";`} {
		if !strings.Contains(dot, want) {
			t.Errorf("SheetDOT() missing %s\n%s", want, dot)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	g := dag.New()
	if err := g.AddDependency("A1", "B1"); err != nil {
		t.Fatal(err)
	}
	svg, err := RenderSVG(context.Background(), ToDOT(g, nil, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	out := string(svg)
	if !strings.Contains(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("RenderSVG() did not normalise the svg tag:\n%.300s", out)
	}
	if !strings.Contains(out, "A1") || !strings.Contains(out, "B1") {
		t.Error("RenderSVG() output is missing node labels")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if got := string(normalizeViewBox(in)); got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() changed svg without viewBox: %s", got)
	}
}
