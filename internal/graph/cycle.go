package graph

// findCycle returns a witness cycle path such as [A, B, A], or nil when the
// graph is acyclic.
//
// The algorithm:
//  1. Use Tarjan's algorithm to find strongly connected components
//  2. Pick the first SCC (in declaration order) with size > 1
//  3. Reconstruct a cycle path by walking edges inside that SCC
//
// Self-loops are rejected earlier by Hydrate, so only multi-node SCCs are
// cycles here.
func (g *Graph) findCycle() []string {
	for _, scc := range g.tarjanSCC() {
		if len(scc) > 1 {
			return g.reconstructCyclePath(scc)
		}
	}
	return nil
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in declaration order and successors in edge order, so
// the result is deterministic.
func (g *Graph) tarjanSCC() [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.succ[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of an SCC: pop it off the stack.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath builds a closed path through an SCC, starting at its
// earliest-declared member.
func (g *Graph) reconstructCyclePath(scc []string) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}
	sorted := g.sortByDeclaration(members)
	start := sorted[0]

	current := start
	path := []string{current}
	visited := map[string]bool{}

	for {
		visited[current] = true

		var next string
		for _, neighbor := range g.succ[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			// Dead end inside the SCC: close the loop through any member
			// that leads back to start.
			return append(path, start)
		}

		path = append(path, next)
		if next == start {
			return path
		}
		current = next
	}
}
