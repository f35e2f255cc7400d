package motionplan

import (
	"math"
	"strconv"
	"strings"

	"github.com/edaniels/golog"

	"go.viam.com/latticeplan/collision"
	"go.viam.com/latticeplan/referenceframe"
	"go.viam.com/latticeplan/spatialmath"
)

// goalSpec is the planner's internal view of a goal: a configuration, a
// Cartesian pose for a named link, or both.
type goalSpec struct {
	configuration []referenceframe.Input
	pose          spatialmath.Pose
	link          string
}

// successorEdge is one outgoing edge of a lattice state.
type successorEdge struct {
	id   int
	cost float64
}

// lattice presents the discretized configuration space to the search as a
// graph, without ever materializing it. States are an arena of configurations
// indexed by integer id, with a hash map from discretized coordinates to id.
// Ids are valid for the lifetime of one planning call.
type lattice struct {
	model   referenceframe.Model
	checker *collision.Checker
	actions *ActionSet
	opts    *PlannerOptions
	goal    goalSpec
	logger  golog.Logger

	configurations [][]referenceframe.Input
	ids            map[string]int
}

func newLattice(
	model referenceframe.Model,
	checker *collision.Checker,
	actions *ActionSet,
	opts *PlannerOptions,
	goal goalSpec,
	logger golog.Logger,
) *lattice {
	return &lattice{
		model:   model,
		checker: checker,
		actions: actions,
		opts:    opts,
		goal:    goal,
		logger:  logger,
		ids:     map[string]int{},
	}
}

// key produces the discretized coordinate key of a configuration:
// configurations within the lattice resolution of each other share a key.
func (l *lattice) key(cfg []referenceframe.Input) string {
	var b strings.Builder
	for i, input := range cfg {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(math.Round(input.Value/l.opts.LatticeResolution)), 10))
	}
	return b.String()
}

// stateID returns the integer id of the configuration's lattice state,
// registering the configuration in the arena on first visit.
func (l *lattice) stateID(cfg []referenceframe.Input) int {
	k := l.key(cfg)
	if id, ok := l.ids[k]; ok {
		return id
	}
	id := len(l.configurations)
	l.configurations = append(l.configurations, append([]referenceframe.Input(nil), cfg...))
	l.ids[k] = id
	return id
}

// configuration returns the arena configuration for a state id.
func (l *lattice) configuration(id int) []referenceframe.Input {
	return l.configurations[id]
}

// distToGoal is the joint-space distance used to switch between long and
// short primitives. Pose goals fall back to workspace distance scaled by reach.
func (l *lattice) distToGoal(cfg []referenceframe.Input) float64 {
	if l.goal.configuration != nil {
		return referenceframe.InputsL2Distance(cfg, l.goal.configuration)
	}
	pose, err := l.model.Transform(cfg, l.goal.link)
	if err != nil {
		return math.Inf(1)
	}
	return spatialmath.PoseDelta(pose, l.goal.pose) / l.opts.Reach
}

// successors applies every active motion primitive to the state's
// configuration, discarding any successor whose connecting motion is
// infeasible. Generation order is deterministic for a given configuration.
func (l *lattice) successors(id int) ([]successorEdge, error) {
	from := l.configuration(id)
	primitives := l.actions.Primitives(l.distToGoal(from), l.opts.ShortDistanceThreshold)

	var edges []successorEdge
	for _, p := range primitives {
		to := l.actions.Apply(p, from)
		if referenceframe.CheckLimits(l.model, to) != nil {
			continue
		}
		ok, err := l.checker.CheckEdge(from, to)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		succID := l.stateID(to)
		if succID == id {
			continue
		}
		cost := referenceframe.InputsL2Distance(from, l.configuration(succID))
		edges = append(edges, successorEdge{id: succID, cost: cost})
	}
	return edges, nil
}

// heuristic estimates the remaining cost to the goal. It never overestimates:
// goal tolerances are subtracted, and for pose goals the workspace distance is
// divided by the configured reach, an upper bound on how far the end effector
// moves per unit of joint-space cost. Both forms satisfy the triangle
// inequality across edges, so closed states never need re-expansion at a
// fixed epsilon.
func (l *lattice) heuristic(id int) float64 {
	cfg := l.configuration(id)
	if l.goal.configuration != nil {
		slack := l.opts.JointTolerance * math.Sqrt(float64(len(cfg)))
		return math.Max(0, referenceframe.InputsL2Distance(cfg, l.goal.configuration)-slack)
	}
	pose, err := l.model.Transform(cfg, l.goal.link)
	if err != nil {
		return 0
	}
	return math.Max(0, (spatialmath.PoseDelta(pose, l.goal.pose)-l.opts.PosTolerance)/l.opts.Reach)
}

// isGoal reports whether the state satisfies the goal to within the configured
// tolerances.
func (l *lattice) isGoal(id int) (bool, error) {
	cfg := l.configuration(id)
	if l.goal.configuration != nil {
		return referenceframe.InputsLinfDistance(cfg, l.goal.configuration) <= l.opts.JointTolerance, nil
	}
	pose, err := l.model.Transform(cfg, l.goal.link)
	if err != nil {
		return false, err
	}
	return spatialmath.PoseDelta(pose, l.goal.pose) <= l.opts.PosTolerance &&
		spatialmath.OrientationBetween(pose, l.goal.pose) <= l.opts.OrientTolerance, nil
}
