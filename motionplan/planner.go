// Package motionplan plans collision-free joint trajectories for an
// articulated robot by searching a discretized configuration-space lattice
// with an anytime bounded-suboptimal heuristic search.
package motionplan

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/latticeplan/collision"
	"go.viam.com/latticeplan/referenceframe"
	"go.viam.com/latticeplan/spatialmath"
)

// Request describes one planning problem: a start configuration, a goal given
// as a configuration or as a Cartesian pose for a link, and optional per-call
// search parameters.
type Request struct {
	// Start is the configuration the trajectory must begin at.
	Start []referenceframe.Input

	// GoalConfiguration is a joint-space goal. Exactly one of
	// GoalConfiguration and GoalPose must be set.
	GoalConfiguration []referenceframe.Input

	// GoalPose is a Cartesian goal for GoalLink. GoalLink defaults to the
	// model's last joint frame.
	GoalPose *spatialmath.Pose
	GoalLink string

	// PosTolerance and OrientTolerance override the planner's pose-goal
	// tolerances when positive.
	PosTolerance    float64
	OrientTolerance float64

	// TimeBudget bounds the whole planning call. Zero means unbounded. When
	// the budget expires the best solution found so far is returned, if any.
	TimeBudget time.Duration

	// Epsilon and EpsilonDecrement override the anytime schedule when positive.
	Epsilon          float64
	EpsilonDecrement float64

	// Extra carries free-form overrides for any PlannerOptions field.
	Extra map[string]interface{}
}

// Planner translates motion-plan requests into lattice searches and state
// paths back into joint trajectories. A Planner is safe to reuse across
// sequential calls; concurrent calls must not mutate the occupancy grid.
type Planner struct {
	model   referenceframe.Model
	checker *collision.Checker
	actions *ActionSet
	opts    *PlannerOptions
	logger  golog.Logger
	clk     clock.Clock
}

// NewPlanner assembles a planner from its collaborators.
func NewPlanner(
	model referenceframe.Model,
	checker *collision.Checker,
	actions *ActionSet,
	opts *PlannerOptions,
	logger golog.Logger,
) (*Planner, error) {
	if opts == nil {
		return nil, errNoPlannerOptions
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if model == nil || checker == nil || actions == nil {
		return nil, errors.New("planner requires a model, a checker and an action set")
	}
	if actions.DoF() != len(model.DoF()) {
		return nil, errors.Errorf("action set has %d joints but model has %d", actions.DoF(), len(model.DoF()))
	}
	return &Planner{
		model:   model,
		checker: checker,
		actions: actions,
		opts:    opts,
		logger:  logger,
		clk:     clock.New(),
	}, nil
}

// CanService reports whether the request is well formed for this planner's
// robot model, accumulating every defect found.
func (p *Planner) CanService(req *Request) error {
	var err error
	dof := len(p.model.DoF())
	if len(req.Start) != dof {
		err = multierr.Combine(err, referenceframe.NewIncorrectDoFError(len(req.Start), dof))
	} else if limitErr := referenceframe.CheckLimits(p.model, req.Start); limitErr != nil {
		err = multierr.Combine(err, errors.Wrap(limitErr, "start"))
	}

	switch {
	case req.GoalConfiguration == nil && req.GoalPose == nil:
		err = multierr.Combine(err, errors.New("request has neither a goal configuration nor a goal pose"))
	case req.GoalConfiguration != nil && req.GoalPose != nil:
		err = multierr.Combine(err, errors.New("request has both a goal configuration and a goal pose"))
	case req.GoalConfiguration != nil:
		if len(req.GoalConfiguration) != dof {
			err = multierr.Combine(err, referenceframe.NewIncorrectDoFError(len(req.GoalConfiguration), dof))
		} else if limitErr := referenceframe.CheckLimits(p.model, req.GoalConfiguration); limitErr != nil {
			err = multierr.Combine(err, errors.Wrap(limitErr, "goal"))
		}
	}
	return err
}

// Plan validates the request, runs an anytime search episode, and converts the
// resulting state path into a joint trajectory with keyed statistics. On
// failure a typed error is returned and no partial trajectory.
func (p *Planner) Plan(ctx context.Context, req *Request) (*Plan, error) {
	if err := p.CanService(req); err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	opts, err := p.requestOptions(req)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	// per-episode checker: collision state caching is keyed on the last
	// configuration evaluated and must not be shared across callers
	checker := p.checker.Clone()

	if err := p.validateState(checker, req.Start, "start"); err != nil {
		return nil, err
	}
	goal, err := p.goalSpec(req, opts)
	if err != nil {
		return nil, err
	}
	if goal.configuration != nil {
		if err := p.validateState(checker, goal.configuration, "goal"); err != nil {
			return nil, err
		}
	}

	env := newLattice(p.model, checker, p.actions, opts, goal, p.logger)
	search := newARAStar(env, env.stateID(req.Start), opts, p.clk, p.logger)

	episodeStart := p.clk.Now()
	ids, err := search.run(ctx, req.TimeBudget)
	if err != nil {
		return nil, err
	}

	traj := make(Trajectory, 0, len(ids))
	for _, id := range ids {
		traj = append(traj, env.configuration(id))
	}
	return &Plan{
		Trajectory: traj,
		JointNames: p.model.JointNames(),
		Stats:      p.stats(search, p.clk.Since(episodeStart)),
	}, nil
}

// requestOptions overlays the request's overrides onto a copy of the
// planner's options.
func (p *Planner) requestOptions(req *Request) (*PlannerOptions, error) {
	opts := *p.opts
	if err := opts.applyExtra(req.Extra); err != nil {
		return nil, err
	}
	if req.Epsilon > 0 {
		opts.Epsilon = req.Epsilon
	}
	if req.EpsilonDecrement > 0 {
		opts.EpsilonDecrement = req.EpsilonDecrement
	}
	if req.PosTolerance > 0 {
		opts.PosTolerance = req.PosTolerance
	}
	if req.OrientTolerance > 0 {
		opts.OrientTolerance = req.OrientTolerance
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// validateState checks a single endpoint configuration, mapping the collision
// result onto the error taxonomy: a collision and an excursion outside the
// monitored workspace are both invalid, but reported distinctly.
func (p *Planner) validateState(checker *collision.Checker, cfg []referenceframe.Input, which string) error {
	check, err := checker.CheckState(cfg)
	if err != nil {
		return err
	}
	switch {
	case check.OutOfBounds:
		return &InvalidStateError{State: which, Reason: "sphere " + check.Sphere + " is outside the monitored workspace"}
	case check.Collides:
		return &InvalidStateError{State: which, Reason: "sphere " + check.Sphere + " is in collision"}
	}
	return nil
}

func (p *Planner) goalSpec(req *Request, opts *PlannerOptions) (goalSpec, error) {
	if req.GoalConfiguration != nil {
		return goalSpec{configuration: req.GoalConfiguration}, nil
	}
	link := req.GoalLink
	if link == "" {
		names := p.model.JointNames()
		link = names[len(names)-1]
	}
	// fail fast if the link does not exist on the model
	if _, err := p.model.Transform(req.Start, link); err != nil {
		return goalSpec{}, &ConfigurationError{Err: err}
	}
	return goalSpec{pose: *req.GoalPose, link: link}, nil
}

func (p *Planner) stats(search *araStar, total time.Duration) map[string]float64 {
	stats := map[string]float64{
		StatExpansions:        float64(search.expansions),
		StatSolutionEpsilon:   search.solutionEpsilon(),
		StatSolutionCost:      search.best.g,
		StatTotalPlanningTime: total.Seconds(),
	}
	if len(search.phases) > 0 {
		first := search.phases[0]
		last := search.phases[len(search.phases)-1]
		stats[StatInitialEpsilon] = first.epsilon
		stats[StatInitialExpansions] = float64(first.expansions)
		stats[StatInitialPlanningTime] = first.planningTime.Seconds()
		stats[StatFinalEpsilon] = last.epsilon
		stats[StatFinalEpsilonTime] = last.planningTime.Seconds()
	}
	return stats
}
