package motionplan

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/latticeplan/referenceframe"
	"go.viam.com/latticeplan/spatialmath"
)

func (w *planarWorld) newLatticeTo(goal goalSpec) *lattice {
	return newLattice(w.model, w.checker.Clone(), w.planner.actions, w.opts, goal, w.logger)
}

func configGoal(values ...float64) goalSpec {
	return goalSpec{configuration: referenceframe.FloatsToInputs(values)}
}

func TestLatticeStateIDDedup(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env := w.newLatticeTo(configGoal(0.3, 0))

	// configurations within half a lattice cell of each other share a state
	a := env.stateID(referenceframe.FloatsToInputs([]float64{0.1, 0.2}))
	b := env.stateID(referenceframe.FloatsToInputs([]float64{0.11, 0.19}))
	test.That(t, a, test.ShouldEqual, b)

	c := env.stateID(referenceframe.FloatsToInputs([]float64{0.13, 0.2}))
	test.That(t, c, test.ShouldNotEqual, a)

	// the first-registered configuration is the state's representative
	cfg := env.configuration(a)
	test.That(t, cfg[0].Value, test.ShouldEqual, 0.1)
	test.That(t, cfg[1].Value, test.ShouldEqual, 0.2)
}

func TestLatticeSuccessorsFreeSpace(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env := w.newLatticeTo(configGoal(0.3, 0))

	// far from the goal only the coarse primitives are active
	far := env.stateID(referenceframe.FloatsToInputs([]float64{0, 0}))
	edges, err := env.successors(far)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edges), test.ShouldEqual, 4)
	for _, e := range edges {
		test.That(t, e.cost, test.ShouldAlmostEqual, 0.1, 1e-9)
	}

	// near the goal the fine primitives take over
	near := env.stateID(referenceframe.FloatsToInputs([]float64{0.25, 0}))
	edges, err = env.successors(near)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edges), test.ShouldEqual, 4)
	for _, e := range edges {
		test.That(t, e.cost, test.ShouldAlmostEqual, 0.05, 1e-9)
	}
}

func TestLatticeSuccessorsRespectLimits(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env := w.newLatticeTo(configGoal(0.3, 0))

	corner := env.stateID(referenceframe.FloatsToInputs([]float64{0.45, 0.45}))
	edges, err := env.successors(corner)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edges), test.ShouldEqual, 2)
	for _, e := range edges {
		cfg := env.configuration(e.id)
		test.That(t, cfg[0].Value, test.ShouldBeLessThanOrEqualTo, 0.45)
		test.That(t, cfg[1].Value, test.ShouldBeLessThanOrEqualTo, 0.45)
	}
}

func TestLatticeSuccessorsBlocked(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	w.grid.AddBox(r3.Vector{X: 0, Y: -0.1, Z: 0}, r3.Vector{X: 0.1, Y: 0.7, Z: 0.1})
	env := w.newLatticeTo(configGoal(0.3, 0))

	// right next to the wall: the step toward it is rejected, the rest survive
	beside := env.stateID(referenceframe.FloatsToInputs([]float64{-0.15, 0}))
	edges, err := env.successors(beside)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edges), test.ShouldEqual, 3)
	for _, e := range edges {
		test.That(t, env.configuration(e.id)[0].Value, test.ShouldBeLessThanOrEqualTo, -0.14)
	}
}

func TestLatticeSuccessorsDeterministic(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env := w.newLatticeTo(configGoal(0.3, 0))

	id := env.stateID(referenceframe.FloatsToInputs([]float64{0, 0}))
	first, err := env.successors(id)
	test.That(t, err, test.ShouldBeNil)
	second, err := env.successors(id)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(first), test.ShouldEqual, len(second))
	for i := range first {
		test.That(t, first[i].id, test.ShouldEqual, second[i].id)
		test.That(t, first[i].cost, test.ShouldEqual, second[i].cost)
	}
}

func TestLatticeConfigurationGoal(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env := w.newLatticeTo(configGoal(0.3, 0))

	within := env.stateID(referenceframe.FloatsToInputs([]float64{0.305, 0}))
	hit, err := env.isGoal(within)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)

	outside := env.stateID(referenceframe.FloatsToInputs([]float64{0.33, 0}))
	hit, err = env.isGoal(outside)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)
}

func TestLatticeHeuristic(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env := w.newLatticeTo(configGoal(0.3, 0))

	slack := w.opts.JointTolerance * math.Sqrt(2)
	start := env.stateID(referenceframe.FloatsToInputs([]float64{-0.3, 0}))
	test.That(t, env.heuristic(start), test.ShouldAlmostEqual, 0.6-slack, 1e-9)

	atGoal := env.stateID(referenceframe.FloatsToInputs([]float64{0.3, 0}))
	test.That(t, env.heuristic(atGoal), test.ShouldEqual, 0)
}

func TestLatticePoseGoal(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	goalPose := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3, Y: 0.1})
	env := w.newLatticeTo(goalSpec{pose: goalPose, link: "body"})

	origin := env.stateID(referenceframe.FloatsToInputs([]float64{0, 0}))
	dist := math.Sqrt(0.3*0.3 + 0.1*0.1)
	test.That(t, env.distToGoal(env.configuration(origin)), test.ShouldAlmostEqual, dist/w.opts.Reach, 1e-9)
	test.That(t, env.heuristic(origin), test.ShouldAlmostEqual, (dist-w.opts.PosTolerance)/w.opts.Reach, 1e-9)

	hit, err := env.isGoal(origin)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)

	at := env.stateID(referenceframe.FloatsToInputs([]float64{0.3, 0.1}))
	hit, err = env.isGoal(at)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
	test.That(t, env.heuristic(at), test.ShouldEqual, 0)
}
