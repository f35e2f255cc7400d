package motionplan

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// default values for planning options.
const (
	// initial heuristic inflation: the first solution is within this factor of optimal.
	defaultEpsilon = 10.0

	// amount epsilon decreases between anytime improvement passes.
	defaultEpsilonDecrement = 1.0

	// joint-space discretization of the lattice, radians.
	defaultLatticeResolution = 0.02

	// two configurations closer than this in every joint satisfy a configuration goal.
	defaultJointTolerance = 0.02

	// Cartesian position tolerance for pose goals, world units.
	defaultPosTolerance = 0.02

	// orientation tolerance for pose goals, radians.
	defaultOrientTolerance = 0.1

	// within this joint-space distance of a configuration goal, short-distance
	// primitives activate.
	defaultShortDistanceThreshold = 0.4

	// upper bound on end-effector displacement per unit of joint-space motion,
	// used to keep the workspace heuristic admissible. Callers should set this
	// to the reach of their arm.
	defaultReach = 1.0
)

// PlannerOptions specify how the lattice is discretized and how the anytime
// search trades solution quality for time.
type PlannerOptions struct {
	// Epsilon is the initial heuristic inflation factor, >= 1. The first
	// solution found is guaranteed to cost no more than Epsilon times the
	// optimal solution under the lattice's cost model.
	Epsilon float64 `json:"epsilon"`

	// EpsilonDecrement is subtracted from epsilon before each anytime
	// improvement pass, stopping at 1.
	EpsilonDecrement float64 `json:"epsilon_decrement"`

	// LatticeResolution is the joint-space discretization: configurations
	// within this distance per joint map to the same lattice state.
	LatticeResolution float64 `json:"lattice_resolution"`

	// JointTolerance bounds how far, per joint, a state may be from a
	// configuration goal and still satisfy it.
	JointTolerance float64 `json:"joint_tolerance"`

	// PosTolerance and OrientTolerance bound pose-goal satisfaction.
	PosTolerance    float64 `json:"pos_tolerance"`
	OrientTolerance float64 `json:"orient_tolerance"`

	// ShortDistanceThreshold is the joint-space distance to the goal below
	// which short-distance motion primitives activate.
	ShortDistanceThreshold float64 `json:"short_distance_threshold"`

	// Reach is an upper bound on end-effector displacement per unit of
	// joint-space motion. Overestimating it weakens the pose-goal heuristic;
	// underestimating it breaks admissibility.
	Reach float64 `json:"reach"`
}

// NewBasicPlannerOptions returns planner options with defaults suitable for a
// small arm in a meter-scale workspace.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		Epsilon:                defaultEpsilon,
		EpsilonDecrement:       defaultEpsilonDecrement,
		LatticeResolution:      defaultLatticeResolution,
		JointTolerance:         defaultJointTolerance,
		PosTolerance:           defaultPosTolerance,
		OrientTolerance:        defaultOrientTolerance,
		ShortDistanceThreshold: defaultShortDistanceThreshold,
		Reach:                  defaultReach,
	}
}

// applyExtra overlays free-form per-request options onto the options struct.
func (o *PlannerOptions) applyExtra(extra map[string]interface{}) error {
	if len(extra) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           o,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(extra)
}

func (o *PlannerOptions) validate() error {
	if o.Epsilon < 1 {
		return errors.Errorf("epsilon must be at least 1, got %f", o.Epsilon)
	}
	if o.EpsilonDecrement <= 0 {
		return errors.Errorf("epsilon decrement must be positive, got %f", o.EpsilonDecrement)
	}
	if o.LatticeResolution <= 0 {
		return errors.Errorf("lattice resolution must be positive, got %f", o.LatticeResolution)
	}
	if o.JointTolerance < 0 || o.PosTolerance < 0 || o.OrientTolerance < 0 {
		return errors.New("goal tolerances must be non-negative")
	}
	if o.Reach <= 0 {
		return errors.Errorf("reach must be positive, got %f", o.Reach)
	}
	return nil
}
