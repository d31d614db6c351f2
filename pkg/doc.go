// Package pkg provides the libraries behind cellgraph, a spreadsheet engine
// that keeps cell formulas and their dependency graph consistent.
//
// # Overview
//
// A sheet maps cell names to contents. Formula cells read other cells, and
// every edit recalculates the cells that depend on it in dependency order.
// Edits that would introduce a cycle are rejected and leave the sheet
// unchanged.
//
// # Architecture
//
//	workbook file (XML, JSON, YAML, TOML) or store
//	         ↓
//	    [io] package (decode document)
//	         ↓
//	    [sheet] package (cells + [dag] + [formula] evaluation)
//	         ↓
//	    [controller], [server], [render]
//
// # Quick Start
//
//	s := sheet.New()
//	s.SetContentsOfCell("A1", "3")
//	s.SetContentsOfCell("B1", "=A1 * 2")
//	v, _ := s.GetCellValue("B1") // cell.Number(6)
//
// # Main Packages
//
// ## Engine
//
// [formula] - Infix formula parsing, normalization and evaluation against a
// variable lookup.
//
// [dag] - Dependency graph between cell names with cycle detection and
// topological ordering for recalculation.
//
// [cell] - Cell contents (text, number, formula) and values (text, number,
// evaluation error).
//
// [sheet] - The spreadsheet itself: edits, recalculation, change tracking,
// loading and saving.
//
// ## Persistence
//
// [io] - Workbook documents in XML, JSON, YAML and TOML.
//
// [store] - Named workbook storage with file, memory, SQLite, Redis and
// MongoDB backends.
//
// [cache] - Caching of rendered artifacts such as SVG graphs.
//
// ## Frontends
//
// [controller] - Window and session logic shared by interactive frontends.
//
// [server] - HTTP API over one sheet.
//
// [render] - Dependency graphs as Graphviz DOT and SVG.
//
// ## Infrastructure
//
// [config] - TOML configuration under the XDG directories.
//
// [observability] - Hooks for sheet, store and HTTP events, with an
// OpenTelemetry metrics adapter.
//
// [errors] - Coded errors shared by every package.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/sheet/...    # Specific package
//
// Redis and MongoDB store tests run only when CELLGRAPH_REDIS_ADDR or
// CELLGRAPH_MONGO_URI point at a live server.
//
// [formula]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/formula
// [dag]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/dag
// [cell]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/cell
// [sheet]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/sheet
// [io]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/io
// [store]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/cache
// [controller]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/controller
// [server]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/server
// [render]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/render
// [config]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/cellgraph/pkg/buildinfo
package pkg
