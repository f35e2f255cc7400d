package motionplan

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
)

// searchNode is the per-state bookkeeping of one search episode.
type searchNode struct {
	id     int
	g      float64
	h      float64
	parent int

	heapIndex int
	inOpen    bool
	closed    bool
	incons    bool
}

// openHeap is a binary heap of nodes ordered by f = g + epsilon*h. The
// epsilon pointer is shared with the search so that re-keying a tier is a
// single heap.Init.
type openHeap struct {
	nodes   []*searchNode
	epsilon *float64
}

func (oh *openHeap) Len() int { return len(oh.nodes) }

func (oh *openHeap) Less(i, j int) bool {
	return oh.key(oh.nodes[i]) < oh.key(oh.nodes[j])
}

func (oh *openHeap) Swap(i, j int) {
	oh.nodes[i], oh.nodes[j] = oh.nodes[j], oh.nodes[i]
	oh.nodes[i].heapIndex = i
	oh.nodes[j].heapIndex = j
}

func (oh *openHeap) Push(x interface{}) {
	n := x.(*searchNode)
	n.heapIndex = len(oh.nodes)
	n.inOpen = true
	oh.nodes = append(oh.nodes, n)
}

func (oh *openHeap) Pop() interface{} {
	n := oh.nodes[len(oh.nodes)-1]
	oh.nodes = oh.nodes[:len(oh.nodes)-1]
	n.heapIndex = -1
	n.inOpen = false
	return n
}

func (oh *openHeap) key(n *searchNode) float64 {
	return n.g + *oh.epsilon*n.h
}

func (oh *openHeap) minKey() float64 {
	if len(oh.nodes) == 0 {
		return math.Inf(1)
	}
	return oh.key(oh.nodes[0])
}

// phaseStats records one epsilon tier of an anytime episode.
type phaseStats struct {
	epsilon      float64
	expansions   int
	planningTime time.Duration
	solutionCost float64
}

// araStar is an anytime bounded-suboptimal search over the graph exposed by a
// lattice. It finds a first solution quickly at an inflated epsilon, then, as
// long as budget remains, decreases epsilon and reuses previously computed
// g-values, repairing the inconsistencies each decrease introduces. At
// epsilon 1 the solution is optimal under the lattice's cost and heuristic
// model.
//
// The search is an explicit state machine: improvePath runs one tier to
// completion and advanceEpsilon steps to the next, so tests can drive tiers
// individually. A search episode is single-threaded; nothing here is safe for
// concurrent use.
type araStar struct {
	env    *lattice
	opts   *PlannerOptions
	logger golog.Logger
	clk    clock.Clock

	epsilon float64
	nodes   map[int]*searchNode
	open    *openHeap
	incons  []*searchNode

	startID    int
	best       *searchNode
	expansions int
	phases     []phaseStats
	deadline   time.Time
	unbounded  bool
}

func newARAStar(env *lattice, startID int, opts *PlannerOptions, clk clock.Clock, logger golog.Logger) *araStar {
	a := &araStar{
		env:     env,
		opts:    opts,
		logger:  logger,
		clk:     clk,
		epsilon: opts.Epsilon,
		nodes:   map[int]*searchNode{},
		startID: startID,
	}
	a.open = &openHeap{epsilon: &a.epsilon}

	start := a.node(startID)
	start.g = 0
	heap.Push(a.open, start)
	return a
}

// node returns the bookkeeping for a state, creating it at infinite cost on
// first sight. The heuristic is computed once per state per episode.
func (a *araStar) node(id int) *searchNode {
	if n, ok := a.nodes[id]; ok {
		return n
	}
	n := &searchNode{
		id:        id,
		g:         math.Inf(1),
		h:         a.env.heuristic(id),
		parent:    -1,
		heapIndex: -1,
	}
	a.nodes[id] = n
	return n
}

func (a *araStar) budgetExceeded() bool {
	return !a.unbounded && a.clk.Now().After(a.deadline)
}

// improvePath expands open-list states in best-first order until the best
// known solution is provably within epsilon of optimal for this tier, the
// open list empties, or the budget expires. The time budget is polled
// cooperatively after each full expansion.
func (a *araStar) improvePath(ctx context.Context) error {
	for {
		if a.best != nil && a.best.g <= a.open.minKey() {
			return nil
		}
		if a.open.Len() == 0 {
			if a.best != nil {
				return nil
			}
			return &SearchExhaustedError{Expansions: a.expansions}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if a.budgetExceeded() {
			if a.best != nil {
				return nil
			}
			return &SearchExhaustedError{Expansions: a.expansions, TimedOut: true}
		}

		n := heap.Pop(a.open).(*searchNode)
		n.closed = true
		a.expansions++

		isGoal, err := a.env.isGoal(n.id)
		if err != nil {
			return err
		}
		if isGoal && (a.best == nil || n.g < a.best.g) {
			a.best = n
		}

		edges, err := a.env.successors(n.id)
		if err != nil {
			return err
		}
		for _, edge := range edges {
			succ := a.node(edge.id)
			newG := n.g + edge.cost
			if newG >= succ.g {
				continue
			}
			succ.g = newG
			succ.parent = n.id
			switch {
			case succ.inOpen:
				heap.Fix(a.open, succ.heapIndex)
			case succ.closed:
				// a closed state got cheaper: inadmissible to re-expand at
				// this epsilon, repaired when the next tier begins
				if !succ.incons {
					succ.incons = true
					a.incons = append(a.incons, succ)
				}
			default:
				heap.Push(a.open, succ)
			}
		}
	}
}

// advanceEpsilon steps the episode to the next tier: epsilon decreases toward
// 1, inconsistent states rejoin the open list, closed marks are cleared, and
// every open key is recomputed under the new epsilon.
func (a *araStar) advanceEpsilon() {
	a.epsilon = math.Max(1, a.epsilon-a.opts.EpsilonDecrement)

	for _, n := range a.incons {
		n.incons = false
		if !n.inOpen {
			n.inOpen = true
			n.heapIndex = len(a.open.nodes)
			a.open.nodes = append(a.open.nodes, n)
		}
	}
	a.incons = a.incons[:0]

	for _, n := range a.nodes {
		n.closed = false
	}
	heap.Init(a.open)
}

// run executes the full anytime episode: repeated improvePath passes with
// decreasing epsilon until optimality, exhaustion, cancellation, or the
// budget expires. It returns the best path found as state ids.
func (a *araStar) run(ctx context.Context, budget time.Duration) ([]int, error) {
	a.unbounded = budget <= 0
	a.deadline = a.clk.Now().Add(budget)

	for {
		phaseStart := a.clk.Now()
		phaseExpansions := a.expansions

		err := a.improvePath(ctx)
		if err != nil {
			if a.best == nil {
				return nil, err
			}
			break
		}

		a.phases = append(a.phases, phaseStats{
			epsilon:      a.epsilon,
			expansions:   a.expansions - phaseExpansions,
			planningTime: a.clk.Since(phaseStart),
			solutionCost: a.best.g,
		})
		a.logger.Debugf("epsilon %.3f: cost %.4f after %d expansions", a.epsilon, a.best.g, a.expansions)

		if a.epsilon <= 1 || a.budgetExceeded() {
			break
		}
		a.advanceEpsilon()
	}
	return a.extractPath(), nil
}

// extractPath follows predecessor links back from the best goal state and
// reverses the result.
func (a *araStar) extractPath() []int {
	if a.best == nil {
		return nil
	}
	var path []int
	for id := a.best.id; id != -1; id = a.nodes[id].parent {
		path = append(path, id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// solutionEpsilon is the suboptimality bound of the best solution found.
func (a *araStar) solutionEpsilon() float64 {
	if len(a.phases) == 0 {
		return a.opts.Epsilon
	}
	return a.phases[len(a.phases)-1].epsilon
}
