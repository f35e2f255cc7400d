package collision

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/latticeplan/grid"
	"go.viam.com/latticeplan/referenceframe"
)

// CheckSphere tests a single sphere of the given state against the grid.
// It returns whether the sphere is clear, the measured obstacle distance, and
// whether the sphere's center fell outside the monitored workspace. Out of
// bounds is not the same as in collision: the caller decides how to treat a
// sphere that has left the monitored region, so the two outcomes are reported
// separately.
//
// A sphere is in collision when the obstacle distance is less than or equal to
// its effective radius: the model radius, plus half the grid resolution to
// account for voxel discretization error, plus the caller's padding.
func CheckSphere(
	g *grid.OccupancyGrid,
	state *RobotCollisionState,
	idx int,
	padding float64,
) (clear bool, dist float64, oob bool, err error) {
	ss, err := state.UpdateSphere(idx)
	if err != nil {
		return false, 0, false, err
	}

	gx, gy, gz := g.WorldToGrid(ss.Center)
	if !g.IsInBounds(gx, gy, gz) {
		return false, 0, true, nil
	}

	obstacleDist := g.Distance(gx, gy, gz)
	effectiveRadius := state.model.spheres[idx].Radius + 0.5*g.Resolution() + padding
	if obstacleDist <= effectiveRadius {
		return false, obstacleDist, false, nil
	}
	return true, obstacleDist, false, nil
}

// StateCheck is the outcome of validating a full configuration.
type StateCheck struct {
	// Valid is true when every sphere cleared its effective radius inside the
	// monitored workspace.
	Valid bool
	// Clearance is the minimum obstacle distance over all spheres when Valid.
	Clearance float64
	// Collides reports that some sphere was within its effective radius of an obstacle.
	Collides bool
	// OutOfBounds reports that some sphere's center left the monitored workspace.
	OutOfBounds bool
	// Sphere names the first offending sphere when the state is invalid.
	Sphere string
}

// CheckerConfig controls a Checker's safety margin and edge sampling.
type CheckerConfig struct {
	// Padding is an additional safety margin added to every sphere's effective radius.
	Padding float64 `json:"padding"`
	// EdgeResolution is the maximum joint-space motion, per joint, between
	// interpolated waypoints validated along an edge. Zero checks endpoints
	// only; edge checking is then incomplete through thin obstacles, which is
	// an explicit caller choice.
	EdgeResolution float64 `json:"edge_resolution"`
}

// Checker validates configurations and motions against an occupancy grid.
// A Checker owns its collision state and must not be shared across concurrent
// evaluations; use Clone for that.
type Checker struct {
	grid   *grid.OccupancyGrid
	state  *RobotCollisionState
	config CheckerConfig
	logger golog.Logger
}

// NewChecker binds a robot collision model to an occupancy grid.
func NewChecker(g *grid.OccupancyGrid, model *RobotCollisionModel, config CheckerConfig, logger golog.Logger) (*Checker, error) {
	if g == nil || model == nil {
		return nil, errors.New("a checker requires both a grid and a collision model")
	}
	if config.Padding < 0 {
		return nil, errors.Errorf("padding must be non-negative, got %f", config.Padding)
	}
	if config.EdgeResolution < 0 {
		return nil, errors.Errorf("edge resolution must be non-negative, got %f", config.EdgeResolution)
	}
	return &Checker{
		grid:   g,
		state:  model.NewState(),
		config: config,
		logger: logger,
	}, nil
}

// Clone returns an independent Checker sharing the same read-only grid and
// model, for use by another evaluation context.
func (c *Checker) Clone() *Checker {
	return &Checker{
		grid:   c.grid,
		state:  c.state.Clone(),
		config: c.config,
		logger: c.logger,
	}
}

// Grid returns the occupancy grid this checker validates against.
func (c *Checker) Grid() *grid.OccupancyGrid {
	return c.grid
}

// CheckState validates every sphere of the configuration, short-circuiting on
// the first violation. A configuration with any sphere out of the monitored
// region is conservatively invalid for planning, but the result distinguishes
// that outcome from a true collision.
func (c *Checker) CheckState(inputs []referenceframe.Input) (StateCheck, error) {
	c.state.SetInputs(inputs)
	minDist := math.Inf(1)
	for i, sm := range c.state.model.spheres {
		clear, dist, oob, err := CheckSphere(c.grid, c.state, i, c.config.Padding)
		if err != nil {
			return StateCheck{}, err
		}
		if oob {
			c.logger.Debugf("sphere %q is out of bounds", sm.Name)
			return StateCheck{OutOfBounds: true, Sphere: sm.Name}, nil
		}
		if !clear {
			return StateCheck{Collides: true, Clearance: dist, Sphere: sm.Name}, nil
		}
		if dist < minDist {
			minDist = dist
		}
	}
	return StateCheck{Valid: true, Clearance: minDist}, nil
}

// CheckEdge validates the motion between two configurations. Waypoints are
// interpolated so that no joint moves more than the configured edge resolution
// between consecutive checks; with a resolution of zero only the endpoints are
// validated.
func (c *Checker) CheckEdge(from, to []referenceframe.Input) (bool, error) {
	steps := 1
	if c.config.EdgeResolution > 0 {
		steps = int(math.Ceil(referenceframe.InputsLinfDistance(from, to) / c.config.EdgeResolution))
		if steps < 1 {
			steps = 1
		}
	}
	for i := 0; i <= steps; i++ {
		waypoint := referenceframe.InterpolateInputs(from, to, float64(i)/float64(steps))
		check, err := c.CheckState(waypoint)
		if err != nil {
			return false, err
		}
		if !check.Valid {
			return false, nil
		}
	}
	return true, nil
}
