package motionplan

import (
	"github.com/pkg/errors"

	"go.viam.com/latticeplan/referenceframe"
)

// PrimitiveType partitions motion primitives by when they are active during a search.
type PrimitiveType int

const (
	// LongDistance primitives are coarse motions used far from the goal.
	LongDistance PrimitiveType = iota
	// ShortDistance primitives are fine motions that activate near the goal.
	ShortDistance
)

func (t PrimitiveType) String() string {
	switch t {
	case LongDistance:
		return "long_distance"
	case ShortDistance:
		return "short_distance"
	default:
		return "unknown"
	}
}

// MotionPrimitive is one parameterized transformation producing a candidate
// successor configuration from a source configuration by a fixed joint-space delta.
type MotionPrimitive struct {
	Type  PrimitiveType `json:"type"`
	ID    int           `json:"id"`
	Delta []float64     `json:"delta"`
}

// ActionSet is the ordered collection of motion primitives the lattice expands
// states with. Iteration order is fixed at construction so that successor
// generation is deterministic and reproducible.
type ActionSet struct {
	primitives []MotionPrimitive
}

// NewActionSet builds an action set from explicit primitives. Every delta must
// have the same dimension.
func NewActionSet(primitives []MotionPrimitive) (*ActionSet, error) {
	if len(primitives) == 0 {
		return nil, errors.New("an action set requires at least one primitive")
	}
	dof := len(primitives[0].Delta)
	for _, p := range primitives {
		if len(p.Delta) != dof {
			return nil, errors.Errorf("primitive %d has %d joints, expected %d", p.ID, len(p.Delta), dof)
		}
	}
	return &ActionSet{primitives: primitives}, nil
}

// NewUniformActionSet builds the standard per-joint primitive set: for each
// joint, a positive and negative long-distance step of the coarse magnitude,
// and a positive and negative short-distance step of the fine magnitude.
func NewUniformActionSet(dof int, coarse, fine float64) (*ActionSet, error) {
	if dof <= 0 {
		return nil, errors.Errorf("dof must be positive, got %d", dof)
	}
	if coarse <= 0 || fine <= 0 {
		return nil, errors.Errorf("step magnitudes must be positive, got coarse %f fine %f", coarse, fine)
	}
	var primitives []MotionPrimitive
	id := 0
	add := func(pType PrimitiveType, joint int, magnitude float64) {
		delta := make([]float64, dof)
		delta[joint] = magnitude
		primitives = append(primitives, MotionPrimitive{Type: pType, ID: id, Delta: delta})
		id++
	}
	for joint := 0; joint < dof; joint++ {
		add(LongDistance, joint, coarse)
		add(LongDistance, joint, -coarse)
	}
	for joint := 0; joint < dof; joint++ {
		add(ShortDistance, joint, fine)
		add(ShortDistance, joint, -fine)
	}
	return &ActionSet{primitives: primitives}, nil
}

// DoF returns the joint dimension of the set's primitives.
func (as *ActionSet) DoF() int {
	return len(as.primitives[0].Delta)
}

// Primitives returns, in fixed order, the primitives active at the given
// joint-space distance to the goal: short-distance primitives within the
// threshold, long-distance primitives otherwise. A non-positive threshold
// keeps every primitive active everywhere.
func (as *ActionSet) Primitives(distToGoal, shortThreshold float64) []MotionPrimitive {
	if shortThreshold <= 0 {
		return as.primitives
	}
	near := distToGoal <= shortThreshold
	active := make([]MotionPrimitive, 0, len(as.primitives))
	for _, p := range as.primitives {
		if (p.Type == ShortDistance) == near {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return as.primitives
	}
	return active
}

// Apply produces the target configuration of the primitive from a source configuration.
func (as *ActionSet) Apply(p MotionPrimitive, from []referenceframe.Input) []referenceframe.Input {
	to := make([]referenceframe.Input, len(from))
	for i, input := range from {
		to[i] = referenceframe.Input{Value: input.Value + p.Delta[i]}
	}
	return to
}
