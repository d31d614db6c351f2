package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrEmptyName is returned by the mutating methods of [Graph] when a
	// node name is empty. Query methods panic with it instead, since asking
	// about a nameless node is a programming error.
	ErrEmptyName = errors.New("node name must not be empty")

	// ErrCycle is returned by [Graph.TopoFrom] and [Graph.Validate] when a
	// directed cycle is found. The returned error wraps ErrCycle and names
	// the nodes on the cycle. Cycles are detected using depth-first search
	// with white/gray/black coloring.
	ErrCycle = errors.New("graph contains a cycle")
)

// Edge is an ordered pair: Dependent depends on Dependee.
type Edge struct {
	Dependee  string
	Dependent string
}

// node holds both adjacency directions of a vertex. A node exists only
// while at least one of its sets is non-empty.
type node struct {
	dependents map[string]struct{}
	dependees  map[string]struct{}
}

func newNode() *node {
	return &node{
		dependents: make(map[string]struct{}),
		dependees:  make(map[string]struct{}),
	}
}

func (n *node) isolated() bool {
	return len(n.dependents) == 0 && len(n.dependees) == 0
}

// Graph is a directed graph of named nodes where each edge (s, t) records
// that t depends on s. It answers both "who depends on s" (dependents) and
// "whom does t depend on" (dependees) in constant time per neighbour.
//
// Nodes are created implicitly by adding an edge and removed as soon as they
// have no edges left. Adding an existing edge or removing a missing one is a
// no-op.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes map[string]*node
	size  int
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// Clone returns an independent deep copy of g. Mutating either graph does
// not affect the other.
func (g *Graph) Clone() *Graph {
	c := &Graph{nodes: make(map[string]*node, len(g.nodes)), size: g.size}
	for name, n := range g.nodes {
		c.nodes[name] = &node{
			dependents: maps.Clone(n.dependents),
			dependees:  maps.Clone(n.dependees),
		}
	}
	return c
}

// Size returns the number of ordered pairs (edges) in the graph.
func (g *Graph) Size() int { return g.size }

// NodeCount returns the number of nodes that take part in at least one edge.
func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) get(name string) *node {
	n, ok := g.nodes[name]
	if !ok {
		n = newNode()
		g.nodes[name] = n
	}
	return n
}

func (g *Graph) prune(name string) {
	if n, ok := g.nodes[name]; ok && n.isolated() {
		delete(g.nodes, name)
	}
}

// AddDependency adds the edge (dependee, dependent), meaning dependent
// depends on dependee. It is a no-op if the edge already exists.
// Returns ErrEmptyName if either name is empty.
func (g *Graph) AddDependency(dependee, dependent string) error {
	if dependee == "" || dependent == "" {
		return ErrEmptyName
	}
	g.addEdge(dependee, dependent)
	return nil
}

func (g *Graph) addEdge(dependee, dependent string) {
	s := g.get(dependee)
	if _, ok := s.dependents[dependent]; ok {
		return
	}
	s.dependents[dependent] = struct{}{}
	g.get(dependent).dependees[dependee] = struct{}{}
	g.size++
}

// RemoveDependency removes the edge (dependee, dependent) if it exists and
// drops either endpoint that is left without edges.
// Returns ErrEmptyName if either name is empty.
func (g *Graph) RemoveDependency(dependee, dependent string) error {
	if dependee == "" || dependent == "" {
		return ErrEmptyName
	}
	g.removeEdge(dependee, dependent)
	return nil
}

func (g *Graph) removeEdge(dependee, dependent string) {
	s, ok := g.nodes[dependee]
	if !ok {
		return
	}
	if _, ok := s.dependents[dependent]; !ok {
		return
	}
	delete(s.dependents, dependent)
	delete(g.nodes[dependent].dependees, dependee)
	g.size--
	g.prune(dependee)
	g.prune(dependent)
}

// ReplaceDependents removes every edge (s, r) and adds (s, t) for each t in
// newDependents. Duplicates in newDependents are ignored.
// Returns ErrEmptyName if s or any element of newDependents is empty; the
// graph is left unchanged in that case.
func (g *Graph) ReplaceDependents(s string, newDependents []string) error {
	if s == "" || slices.Contains(newDependents, "") {
		return ErrEmptyName
	}
	if n, ok := g.nodes[s]; ok {
		for r := range n.dependents {
			g.removeEdge(s, r)
		}
	}
	for _, t := range newDependents {
		g.addEdge(s, t)
	}
	return nil
}

// ReplaceDependees removes every edge (r, t) and adds (s, t) for each s in
// newDependees. Duplicates in newDependees are ignored.
// Returns ErrEmptyName if t or any element of newDependees is empty; the
// graph is left unchanged in that case.
func (g *Graph) ReplaceDependees(t string, newDependees []string) error {
	if t == "" || slices.Contains(newDependees, "") {
		return ErrEmptyName
	}
	if n, ok := g.nodes[t]; ok {
		for r := range n.dependees {
			g.removeEdge(r, t)
		}
	}
	for _, s := range newDependees {
		g.addEdge(s, t)
	}
	return nil
}

func mustName(name string) {
	if name == "" {
		panic(ErrEmptyName)
	}
}

// Dependents returns the names that directly depend on s, sorted.
// Returns nil if s has no dependents or is not in the graph.
// Panics with ErrEmptyName if s is empty.
func (g *Graph) Dependents(s string) []string {
	mustName(s)
	if n, ok := g.nodes[s]; ok && len(n.dependents) > 0 {
		return slices.Sorted(maps.Keys(n.dependents))
	}
	return nil
}

// Dependees returns the names that t directly depends on, sorted.
// Returns nil if t has no dependees or is not in the graph.
// Panics with ErrEmptyName if t is empty.
func (g *Graph) Dependees(t string) []string {
	mustName(t)
	if n, ok := g.nodes[t]; ok && len(n.dependees) > 0 {
		return slices.Sorted(maps.Keys(n.dependees))
	}
	return nil
}

// HasDependents reports whether any node depends on s.
// Panics with ErrEmptyName if s is empty.
func (g *Graph) HasDependents(s string) bool {
	mustName(s)
	n, ok := g.nodes[s]
	return ok && len(n.dependents) > 0
}

// HasDependees reports whether t depends on any node.
// Panics with ErrEmptyName if t is empty.
func (g *Graph) HasDependees(t string) bool {
	mustName(t)
	n, ok := g.nodes[t]
	return ok && len(n.dependees) > 0
}

// Names returns the names of all nodes, sorted.
func (g *Graph) Names() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Edges returns every edge, sorted by dependee then dependent.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.size)
	for _, s := range g.Names() {
		for _, t := range slices.Sorted(maps.Keys(g.nodes[s].dependents)) {
			edges = append(edges, Edge{Dependee: s, Dependent: t})
		}
	}
	return edges
}

// Sources returns the nodes that depend on nothing, sorted.
func (g *Graph) Sources() []string {
	var out []string
	for _, name := range g.Names() {
		if len(g.nodes[name].dependees) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// Sinks returns the nodes nothing depends on, sorted.
func (g *Graph) Sinks() []string {
	var out []string
	for _, name := range g.Names() {
		if len(g.nodes[name].dependents) == 0 {
			out = append(out, name)
		}
	}
	return out
}

const (
	white = iota
	gray
	black
)

// TopoFrom returns start followed by every node that transitively depends
// on it, ordered so that each node appears after all of its dependees
// within the set. Neighbours are visited in name order, so the result is
// deterministic.
//
// If a cycle is reachable from start, TopoFrom returns an error wrapping
// ErrCycle and no order. start need not be in the graph; an unknown start
// yields just [start].
func (g *Graph) TopoFrom(start string) ([]string, error) {
	if start == "" {
		return nil, ErrEmptyName
	}
	post, err := g.visit(start, make(map[string]int))
	if err != nil {
		return nil, err
	}
	slices.Reverse(post)
	return post, nil
}

// Validate returns nil if the graph is acyclic, or an error wrapping
// ErrCycle naming the first cycle found.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (g *Graph) Validate() error {
	color := make(map[string]int, len(g.nodes))
	for _, name := range g.Names() {
		if color[name] == white {
			if _, err := g.visit(name, color); err != nil {
				return err
			}
		}
	}
	return nil
}

// visit runs a depth-first search along dependent edges from start, skipping
// nodes already colored black, and returns the newly finished nodes in
// post-order.
func (g *Graph) visit(start string, color map[string]int) ([]string, error) {
	var (
		post  []string
		stack []string
		cycle []string
	)

	var dfs func(name string) bool
	dfs = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)
		for _, dep := range g.sortedDependents(name) {
			switch color[dep] {
			case white:
				if !dfs(dep) {
					return false
				}
			case gray:
				i := slices.Index(stack, dep)
				cycle = append(slices.Clone(stack[i:]), dep)
				return false
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		post = append(post, name)
		return true
	}

	if !dfs(start) {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
	}
	return post, nil
}

func (g *Graph) sortedDependents(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(n.dependents))
}
