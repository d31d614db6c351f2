package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/cellgraph/pkg/cell"
	"github.com/matzehuels/cellgraph/pkg/dag"
	"github.com/matzehuels/cellgraph/pkg/sheet"
)

// Options configures dependency diagram rendering.
type Options struct {
	// Values adds each cell's value below its name. When false, only the
	// name is shown.
	Values bool

	// Highlight draws the named cell with a bold outline, typically the
	// cell being edited. Empty highlights nothing.
	Highlight string
}

// ToDOT converts a dependency graph to Graphviz DOT. Edges point from a
// cell to the cells whose formulas read it, so values flow downwards.
//
// Nodes are the union of the graph's nodes and the keys of values, in grid
// order. A cell that is referenced but has no entry in values is drawn
// dashed; cells whose value is a cell.Error are filled red.
func ToDOT(g *dag.Graph, values map[string]cell.Value, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	seen := make(map[string]struct{}, len(values))
	for _, name := range g.Names() {
		seen[name] = struct{}{}
	}
	for name := range values {
		seen[name] = struct{}{}
	}
	names := slices.SortedFunc(maps.Keys(seen), sheet.CompareNames)

	for _, name := range names {
		v, ok := values[name]
		attrs := fmtAttrs(name, v, ok, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	// Inputs sit on the top rank and final results on the bottom one.
	writeRank(&buf, "source", g.Sources())
	writeRank(&buf, "sink", g.Sinks())

	buf.WriteString("\n")
	edges := g.Edges()
	slices.SortStableFunc(edges, func(a, b dag.Edge) int {
		if c := sheet.CompareNames(a.Dependee, b.Dependee); c != 0 {
			return c
		}
		return sheet.CompareNames(a.Dependent, b.Dependent)
	})
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Dependee, e.Dependent)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeRank(buf *bytes.Buffer, rank string, names []string) {
	if len(names) == 0 {
		return
	}
	slices.SortFunc(names, sheet.CompareNames)
	fmt.Fprintf(buf, "  { rank=%s;", rank)
	for _, name := range names {
		fmt.Fprintf(buf, " %q;", name)
	}
	buf.WriteString(" }\n")
}

func fmtAttrs(name string, v cell.Value, present bool, opts Options) []string {
	label := name
	if opts.Values && present {
		label += "\n" + cell.Display(v)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case !present:
		attrs = append(attrs, "style=\"rounded,dashed\"", "fontcolor=grey40")
	case isError(v):
		attrs = append(attrs, "fillcolor=\"#f8d7da\"", "color=\"#b02a37\"")
	}
	if opts.Highlight != "" && strings.EqualFold(opts.Highlight, name) {
		attrs = append(attrs, "penwidth=3")
	}
	return attrs
}

func isError(v cell.Value) bool {
	_, ok := v.(cell.Error)
	return ok
}

// SheetDOT renders the dependency graph of s together with the value of
// every non-empty cell.
func SheetDOT(s *sheet.Sheet, opts Options) string {
	return ToDOT(s.Graph(), Values(s), opts)
}

// Values returns the value of every non-empty cell in s.
func Values(s *sheet.Sheet) map[string]cell.Value {
	names := s.GetNamesOfAllNonemptyCells()
	values := make(map[string]cell.Value, len(names))
	for _, name := range names {
		if v, err := s.GetCellValue(name); err == nil {
			values[name] = v
		}
	}
	return values
}

// RenderSVG renders a DOT graph to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized <svg> tag with one whose
// viewBox starts at the origin and whose size is in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
