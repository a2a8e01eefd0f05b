package graph

// Default size caps.
const (
	// DefaultMaxNodes bounds the graphs Hydrate accepts.
	DefaultMaxNodes = 500

	// DefaultMaxPaths bounds the simple paths collected per query.
	DefaultMaxPaths = 10000
)

// Limits caps graph size and path exploration.
//
// The two limits work together to bound every query:
//   - MaxNodes: bounds ancestor searches and topological passes
//   - MaxPaths: bounds simple-path enumeration, which is exponential in
//     branching factor
type Limits struct {
	MaxNodes int `json:"max_nodes"`
	MaxPaths int `json:"max_paths"`
}

// DefaultLimits returns the default caps.
func DefaultLimits() Limits {
	return Limits{
		MaxNodes: DefaultMaxNodes,
		MaxPaths: DefaultMaxPaths,
	}
}

// normalized fills zero or negative fields with defaults.
func (l Limits) normalized() Limits {
	if l.MaxNodes <= 0 {
		l.MaxNodes = DefaultMaxNodes
	}
	if l.MaxPaths <= 0 {
		l.MaxPaths = DefaultMaxPaths
	}
	return l
}

// pathBudget counts collected paths against MaxPaths.
type pathBudget struct {
	max     int
	current int
}

func newPathBudget(max int) *pathBudget {
	return &pathBudget{max: max}
}

// take consumes one path. It returns false once the budget is spent.
func (b *pathBudget) take() bool {
	if b.current >= b.max {
		return false
	}
	b.current++
	return true
}
