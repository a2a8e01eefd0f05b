package graph

import (
	"container/heap"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/causalcore/internal/ir"
)

// Graph is a hydrated, read-only causal graph.
type Graph struct {
	nodes  map[string]ir.NodeSpec
	order  []string       // declaration order
	index  map[string]int // name -> declaration index
	out    map[string][]ir.EdgeSpec
	in     map[string][]ir.EdgeSpec
	succ   map[string][]string // distinct children, first-edge order
	pred   map[string][]string // distinct parents, first-edge order
	edges  int
	limits Limits
}

// Option configures hydration.
type Option func(*Graph)

// WithLimits sets the size caps used by Hydrate and path queries.
func WithLimits(l Limits) Option {
	return func(g *Graph) {
		g.limits = l.normalized()
	}
}

// Hydrate builds a Graph from a serialized spec.
//
// Returns an ir.Error with ErrCodeMalformedGraph on duplicate nodes,
// dangling edges, self-loops, exact duplicate edges or cycles, and
// ErrCodeGraphTooLarge when the node count exceeds the configured cap.
func Hydrate(spec ir.DAGSpec, opts ...Option) (*Graph, error) {
	g := &Graph{
		nodes:  make(map[string]ir.NodeSpec, len(spec.Nodes)),
		index:  make(map[string]int, len(spec.Nodes)),
		out:    make(map[string][]ir.EdgeSpec),
		in:     make(map[string][]ir.EdgeSpec),
		succ:   make(map[string][]string),
		pred:   make(map[string][]string),
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if len(spec.Nodes) > g.limits.MaxNodes {
		return nil, ir.NewError(ir.ErrCodeGraphTooLarge,
			"graph has %d nodes, limit is %d", len(spec.Nodes), g.limits.MaxNodes)
	}

	for i, n := range spec.Nodes {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			return nil, malformed("node %d has a blank name", i)
		}
		if name != n.Name {
			return nil, malformed("node %q has surrounding whitespace", n.Name)
		}
		if _, dup := g.nodes[name]; dup {
			return nil, malformed("duplicate node %q", name).WithDetail("node", name)
		}
		if !ir.ValidNodeKinds[n.Kind] {
			return nil, malformed("node %q has invalid kind %q", name, n.Kind).WithDetail("node", name)
		}
		g.nodes[name] = n
		g.index[name] = i
		g.order = append(g.order, name)
	}

	seen := make(map[ir.EdgeSpec]bool, len(spec.Edges))
	for i, e := range spec.Edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, malformed("edge %d references unknown node %q", i, e.From).WithDetail("edge", edgeLabel(e))
		}
		if _, ok := g.nodes[e.To]; !ok {
			return nil, malformed("edge %d references unknown node %q", i, e.To).WithDetail("edge", edgeLabel(e))
		}
		if e.From == e.To {
			return nil, malformed("self-loop on %q", e.From).WithDetail("edge", edgeLabel(e))
		}
		if !ir.ValidSigns[e.Sign] {
			return nil, malformed("edge %s has invalid sign %q", edgeLabel(e), e.Sign).WithDetail("edge", edgeLabel(e))
		}
		if seen[e] {
			return nil, malformed("duplicate edge %s", edgeLabel(e)).WithDetail("edge", edgeLabel(e))
		}
		seen[e] = true

		if !g.HasEdge(e.From, e.To) {
			g.succ[e.From] = append(g.succ[e.From], e.To)
			g.pred[e.To] = append(g.pred[e.To], e.From)
		}
		g.out[e.From] = append(g.out[e.From], e)
		g.in[e.To] = append(g.in[e.To], e)
		g.edges++
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, malformed("cycle detected: %s", strings.Join(cycle, " -> ")).
			WithDetail("cycle", strings.Join(cycle, " -> "))
	}

	return g, nil
}

// MustHydrate is like Hydrate but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHydrate(spec ir.DAGSpec, opts ...Option) *Graph {
	g, err := Hydrate(spec, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

func malformed(format string, args ...any) *ir.Error {
	return ir.NewError(ir.ErrCodeMalformedGraph, format, args...)
}

func edgeLabel(e ir.EdgeSpec) string {
	return e.From + "->" + e.To
}

// Limits returns the caps this graph was hydrated with.
func (g *Graph) Limits() Limits {
	return g.limits
}

// Len returns the node count.
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of declared edges, parallel edges included.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Has reports whether a node exists.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Node returns the declaration of a node.
func (g *Graph) Node(name string) (ir.NodeSpec, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns node names in declaration order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns all edges grouped by source in declaration order of nodes.
func (g *Graph) Edges() []ir.EdgeSpec {
	out := make([]ir.EdgeSpec, 0, g.edges)
	for _, name := range g.order {
		out = append(out, g.out[name]...)
	}
	return out
}

// Parents returns the distinct direct causes of a node.
func (g *Graph) Parents(name string) []string {
	return append([]string(nil), g.pred[name]...)
}

// Children returns the distinct direct effects of a node.
func (g *Graph) Children(name string) []string {
	return append([]string(nil), g.succ[name]...)
}

// HasEdge reports whether at least one edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	for _, c := range g.succ[from] {
		if c == to {
			return true
		}
	}
	return false
}

// EdgesBetween returns every edge from -> to, parallel edges included.
func (g *Graph) EdgesBetween(from, to string) []ir.EdgeSpec {
	var out []ir.EdgeSpec
	for _, e := range g.out[from] {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// IncomingEdges returns every edge into a node.
func (g *Graph) IncomingEdges(name string) []ir.EdgeSpec {
	return append([]ir.EdgeSpec(nil), g.in[name]...)
}

// Sources returns nodes without parents in declaration order.
func (g *Graph) Sources() []string {
	var out []string
	for _, name := range g.order {
		if len(g.pred[name]) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// AncestorsOf returns every node with a directed path to name, in
// declaration order. The node itself is not included.
//
// Breadth-first over reverse edges; the visited set is bounded by the node
// count, so a walk that exceeds it reports the graph as malformed.
func (g *Graph) AncestorsOf(name string) ([]string, error) {
	return g.AncestorsAvoiding(name, "")
}

// AncestorsAvoiding returns the ancestors of name reachable without passing
// through blocked. The blocked node itself is excluded from the result.
func (g *Graph) AncestorsAvoiding(name, blocked string) ([]string, error) {
	if !g.Has(name) {
		return nil, unknownNode(name)
	}
	visited, err := g.walk(name, blocked, g.pred)
	if err != nil {
		return nil, err
	}
	return g.sortByDeclaration(visited), nil
}

// DescendantsOf returns every node reachable from name, in declaration order.
func (g *Graph) DescendantsOf(name string) ([]string, error) {
	if !g.Has(name) {
		return nil, unknownNode(name)
	}
	visited, err := g.walk(name, "", g.succ)
	if err != nil {
		return nil, err
	}
	return g.sortByDeclaration(visited), nil
}

// walk performs a bounded BFS from start over adjacency, never entering
// blocked. The start node is excluded from the result.
func (g *Graph) walk(start, blocked string, adjacency map[string][]string) (map[string]bool, error) {
	visited := make(map[string]bool)
	queue := []string{start}
	steps := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if next == blocked || next == start || visited[next] {
				continue
			}
			visited[next] = true
			steps++
			if steps > len(g.order) {
				return nil, malformed("walk from %q exceeded %d nodes", start, len(g.order))
			}
			queue = append(queue, next)
		}
	}
	return visited, nil
}

func (g *Graph) sortByDeclaration(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		return g.index[out[i]] < g.index[out[j]]
	})
	return out
}

func unknownNode(name string) *ir.Error {
	return ir.NewError(ir.ErrCodeInvalidClaim, "unknown node %q", name).WithDetail("node", name)
}

// TopoOrder returns a deterministic topological order of all nodes.
//
// Determinism: the ready queue is a min-heap by declaration index.
func (g *Graph) TopoOrder() []string {
	indeg := make(map[string]int, len(g.order))
	for _, name := range g.order {
		indeg[name] = len(g.pred[name])
	}

	ready := &intMinHeap{}
	heap.Init(ready)
	for _, name := range g.order {
		if indeg[name] == 0 {
			heap.Push(ready, g.index[name])
		}
	}

	out := make([]string, 0, len(g.order))
	for ready.Len() > 0 {
		name := g.order[heap.Pop(ready).(int)]
		out = append(out, name)
		for _, child := range g.succ[name] {
			indeg[child]--
			if indeg[child] == 0 {
				heap.Push(ready, g.index[child])
			}
		}
	}
	return out
}

// Distances returns the length of the shortest directed path from every
// ancestor of target to target. The target maps to 0.
func (g *Graph) Distances(target string) map[string]int {
	dist := map[string]int{target: 0}
	queue := []string{target}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, p := range g.pred[current] {
			if _, ok := dist[p]; ok {
				continue
			}
			dist[p] = dist[current] + 1
			queue = append(queue, p)
		}
	}
	return dist
}

// String renders a compact edge list, used in logs.
func (g *Graph) String() string {
	parts := make([]string, 0, g.edges)
	for _, e := range g.Edges() {
		parts = append(parts, edgeLabel(e)+"("+string(e.Sign)+")")
	}
	return "graph[" + strconv.Itoa(len(g.order)) + " nodes: " + strings.Join(parts, ", ") + "]"
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

var _ fmt.Stringer = (*Graph)(nil)
