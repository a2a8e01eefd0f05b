package graph

import "iter"

// PathsBetween lazily yields every simple directed path from -> to.
// Each yielded slice is a fresh copy owned by the caller.
//
// Branches that cannot reach `to` are pruned up front, so enumeration cost
// is proportional to the number of paths rather than the size of the
// graph. Unknown endpoints yield nothing. A path from a node to itself is
// the single-node path.
func (g *Graph) PathsBetween(from, to string) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		if !g.Has(from) || !g.Has(to) {
			return
		}
		if from == to {
			yield([]string{from})
			return
		}

		reaches, err := g.walk(to, "", g.pred)
		if err != nil || !reaches[from] {
			return
		}
		reaches[to] = true

		onPath := map[string]bool{from: true}
		path := []string{from}

		var dfs func(current string) bool
		dfs = func(current string) bool {
			for _, next := range g.succ[current] {
				if onPath[next] || !reaches[next] {
					continue
				}
				path = append(path, next)
				if next == to {
					if !yield(append([]string(nil), path...)) {
						return false
					}
				} else {
					onPath[next] = true
					if !dfs(next) {
						return false
					}
					onPath[next] = false
				}
				path = path[:len(path)-1]
			}
			return true
		}
		dfs(from)
	}
}

// CollectPaths gathers the simple paths from -> to up to Limits.MaxPaths.
// truncated reports whether enumeration stopped at the cap.
func (g *Graph) CollectPaths(from, to string) (paths [][]string, truncated bool) {
	budget := newPathBudget(g.limits.MaxPaths)
	for p := range g.PathsBetween(from, to) {
		if !budget.take() {
			return paths, true
		}
		paths = append(paths, p)
	}
	return paths, false
}

// CountPathsThrough enumerates the paths from every source in sources to
// target and counts, per node, how many of them pass through it.
// The shared MaxPaths budget covers all sources together.
func (g *Graph) CountPathsThrough(sources []string, target string) (through map[string]int, total int, truncated bool) {
	through = make(map[string]int)
	budget := newPathBudget(g.limits.MaxPaths)
	for _, source := range sources {
		for p := range g.PathsBetween(source, target) {
			if !budget.take() {
				return through, total, true
			}
			total++
			for _, node := range p {
				through[node]++
			}
		}
	}
	return through, total, false
}
