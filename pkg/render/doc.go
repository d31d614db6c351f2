// Package render draws a sheet's dependency graph.
//
// # Overview
//
// [ToDOT] turns a [dag.Graph] and the current cell values into Graphviz DOT
// text, and [RenderSVG] lays that text out with the WebAssembly build of
// Graphviz bundled by go-graphviz, so no system installation is needed.
//
//	dot := render.SheetDOT(s, render.Options{Values: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Arrows run from a cell to the cells that read it. Cells whose value is an
// evaluation error are filled red, and cells that are referenced but empty
// are drawn with a dashed outline.
//
// [dag.Graph]: github.com/matzehuels/cellgraph/pkg/dag.Graph
package render
