package motionplan

import (
	"container/heap"
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"go.viam.com/latticeplan/referenceframe"
)

func (w *planarWorld) newSearch(start, goal []float64, opts *PlannerOptions) (*lattice, *araStar) {
	env := newLattice(
		w.model,
		w.checker.Clone(),
		w.planner.actions,
		opts,
		goalSpec{configuration: referenceframe.FloatsToInputs(goal)},
		w.logger,
	)
	a := newARAStar(env, env.stateID(referenceframe.FloatsToInputs(start)), opts, clock.New(), w.logger)
	return env, a
}

func TestAnytimePhases(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env, a := w.newSearch([]float64{-0.3, 0}, []float64{0.3, 0}, w.opts)

	ids, err := a.run(context.Background(), 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(ids), test.ShouldBeGreaterThanOrEqualTo, 2)

	first := env.configuration(ids[0])
	last := env.configuration(ids[len(ids)-1])
	test.That(t, first[0].Value, test.ShouldAlmostEqual, -0.3)
	test.That(t, referenceframe.InputsLinfDistance(last, referenceframe.FloatsToInputs([]float64{0.3, 0})),
		test.ShouldBeLessThanOrEqualTo, w.opts.JointTolerance)

	test.That(t, len(a.phases), test.ShouldEqual, 3)
	test.That(t, a.phases[0].epsilon, test.ShouldEqual, 3)
	test.That(t, a.phases[1].epsilon, test.ShouldEqual, 2)
	test.That(t, a.phases[2].epsilon, test.ShouldEqual, 1)

	total := 0
	for i, phase := range a.phases {
		total += phase.expansions
		if i > 0 {
			test.That(t, phase.solutionCost, test.ShouldBeLessThanOrEqualTo, a.phases[i-1].solutionCost)
		}
	}
	test.That(t, total, test.ShouldEqual, a.expansions)
	test.That(t, a.phases[2].solutionCost, test.ShouldAlmostEqual, 0.6, 1e-6)
	test.That(t, a.solutionEpsilon(), test.ShouldEqual, 1)
}

func TestEpsilonFloorsAtOne(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	opts := *w.opts
	opts.Epsilon = 2.5
	opts.EpsilonDecrement = 1
	_, a := w.newSearch([]float64{-0.3, 0}, []float64{0.3, 0}, &opts)

	_, err := a.run(context.Background(), 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(a.phases), test.ShouldEqual, 3)
	test.That(t, a.phases[0].epsilon, test.ShouldEqual, 2.5)
	test.That(t, a.phases[1].epsilon, test.ShouldEqual, 1.5)
	test.That(t, a.phases[2].epsilon, test.ShouldEqual, 1)
}

func TestBudgetKeepsBestSolution(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env, a := w.newSearch([]float64{-0.3, 0}, []float64{0.3, 0}, w.opts)

	a.unbounded = true
	err := a.improvePath(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.best, test.ShouldNotBeNil)
	firstCost := a.best.g

	// the budget expires between tiers: the solution already in hand survives
	a.advanceEpsilon()
	a.unbounded = false
	a.deadline = a.clk.Now().Add(-time.Second)
	err = a.improvePath(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.best, test.ShouldNotBeNil)
	test.That(t, a.best.g, test.ShouldBeLessThanOrEqualTo, firstCost)

	ids := a.extractPath()
	test.That(t, len(ids), test.ShouldBeGreaterThanOrEqualTo, 2)
	test.That(t, env.configuration(ids[0])[0].Value, test.ShouldAlmostEqual, -0.3)
}

func TestBudgetExpiredWithoutSolution(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	_, a := w.newSearch([]float64{-0.3, 0}, []float64{0.3, 0}, w.opts)

	a.unbounded = false
	a.deadline = a.clk.Now().Add(-time.Second)
	err := a.improvePath(context.Background())
	see, ok := err.(*SearchExhaustedError)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, see.TimedOut, test.ShouldBeTrue)
	test.That(t, a.extractPath(), test.ShouldBeNil)
}

func TestAdvanceEpsilonMechanics(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	env, a := w.newSearch([]float64{-0.3, 0}, []float64{0.3, 0}, w.opts)

	n := a.node(env.stateID(referenceframe.FloatsToInputs([]float64{-0.2, 0})))
	n.g = 1
	n.closed = true
	n.incons = true
	a.incons = append(a.incons, n)

	a.advanceEpsilon()
	test.That(t, a.epsilon, test.ShouldEqual, 2)
	test.That(t, n.inOpen, test.ShouldBeTrue)
	test.That(t, n.closed, test.ShouldBeFalse)
	test.That(t, n.incons, test.ShouldBeFalse)
	test.That(t, len(a.incons), test.ShouldEqual, 0)
	test.That(t, a.open.minKey(), test.ShouldBeLessThan, math.Inf(1))
}

func TestOpenHeapOrdering(t *testing.T) {
	epsilon := 1.0
	oh := &openHeap{epsilon: &epsilon}
	test.That(t, oh.minKey(), test.ShouldEqual, math.Inf(1))

	shallow := &searchNode{id: 1, g: 0, h: 10}
	deep := &searchNode{id: 2, g: 12, h: 1}
	heap.Push(oh, shallow)
	heap.Push(oh, deep)

	// at epsilon 1 the low-g node wins; inflating re-orders in favor of low h
	test.That(t, oh.minKey(), test.ShouldEqual, 10.0)
	test.That(t, heap.Pop(oh).(*searchNode).id, test.ShouldEqual, 1)

	heap.Push(oh, shallow)
	epsilon = 3
	heap.Init(oh)
	test.That(t, oh.minKey(), test.ShouldEqual, 15.0)
	test.That(t, heap.Pop(oh).(*searchNode).id, test.ShouldEqual, 2)
}

func TestAnytimeLogsPhases(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	logger, logs := golog.NewObservedTestLogger(t)
	env := newLattice(w.model, w.checker.Clone(), w.planner.actions, w.opts, configGoal(0.3, 0), logger)
	a := newARAStar(env, env.stateID(referenceframe.FloatsToInputs([]float64{-0.3, 0})), w.opts, clock.New(), logger)

	_, err := a.run(context.Background(), 0)
	test.That(t, err, test.ShouldBeNil)
	phaseLogs := logs.FilterLevelExact(zapcore.DebugLevel).FilterMessageSnippet("epsilon")
	test.That(t, phaseLogs.Len(), test.ShouldEqual, 3)
}

func TestSolutionEpsilonBeforeAnyPhase(t *testing.T) {
	w := newPlanarWorld(t, 0.45)
	_, a := w.newSearch([]float64{-0.3, 0}, []float64{0.3, 0}, w.opts)
	test.That(t, a.solutionEpsilon(), test.ShouldEqual, w.opts.Epsilon)
}
