// Package dag provides the dependency graph behind a spreadsheet: a
// directed graph over cell names where an edge (s, t) means t's formula
// refers to s.
//
// # Overview
//
// A sheet needs to answer two questions quickly. When a cell changes, which
// cells must be recomputed (its dependents)? When a formula is replaced,
// which references did it have before (its dependees)? [Graph] stores both
// directions for every node so each is a single map lookup.
//
// Nodes are keyed by name and exist only while they have edges. There are
// no pointers between nodes, so the graph can be copied cheaply with
// [Graph.Clone] and compared by value in tests.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddDependency("A1", "B1") // B1 refers to A1
//	g.AddDependency("B1", "C1") // C1 refers to B1
//
//	g.Dependents("A1")   // [B1]
//	g.Dependees("C1")    // [B1]
//	g.TopoFrom("A1")     // [A1 B1 C1], nil
//
// Replacing a formula replaces all incoming edges of its cell at once:
//
//	g.ReplaceDependees("C1", []string{"A1"})
//
// # Recalculation Order
//
// [Graph.TopoFrom] returns a start node and everything downstream of it in an
// order where every node comes after the nodes it depends on. It fails with
// [ErrCycle] if the walk revisits a node that is still on the DFS stack,
// which is how a sheet detects an edit that would make a cell depend on
// itself.
//
// # Empty Names
//
// An empty name stands for a missing argument. Mutators return
// [ErrEmptyName]; queries panic with it.
package dag
