package motionplan

import (
	"go.viam.com/latticeplan/referenceframe"
)

// Trajectory is the ordered sequence of joint configurations a robot should
// visit to realize a plan, from start to goal inclusive.
type Trajectory [][]referenceframe.Input

// Cost is the total joint-space path length of the trajectory.
func (traj Trajectory) Cost() float64 {
	total := 0.
	for i := 1; i < len(traj); i++ {
		total += referenceframe.InputsL2Distance(traj[i-1], traj[i])
	}
	return total
}

// Statistics keys reported with every successful plan.
const (
	StatInitialEpsilon      = "initial epsilon"
	StatInitialExpansions   = "initial solution expansions"
	StatInitialPlanningTime = "initial solution planning time"
	StatFinalEpsilon        = "final epsilon"
	StatFinalEpsilonTime    = "final epsilon planning time"
	StatSolutionEpsilon     = "solution epsilon"
	StatExpansions          = "expansions"
	StatSolutionCost        = "solution cost"
	StatTotalPlanningTime   = "total planning time"
)

// Plan is the result of a successful planning call: the trajectory, the joint
// names each configuration is ordered over, and keyed statistics about the
// search that produced it. Times are reported in seconds.
type Plan struct {
	Trajectory Trajectory
	JointNames []string
	Stats      map[string]float64
}
