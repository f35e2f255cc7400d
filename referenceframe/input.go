// Package referenceframe defines the joint-space vocabulary of the planner and
// the kinematic model collaborator it plans over.
package referenceframe

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Input wraps the input to a mutable joint, e.g. a joint angle or a gantry position.
//   - revolute inputs should be in radians.
//   - prismatic inputs should be in mm.
type Input struct {
	Value float64
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(positions []float64) []Input {
	inputs := make([]Input, len(positions))
	for i, f := range positions {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	positions := make([]float64, len(inputs))
	for i, f := range inputs {
		positions[i] = f.Value
	}
	return positions
}

// InterpolateInputs will return a set of inputs that are the specified percent
// between the two given sets of inputs. For example, setting by to 0.5 will
// return the inputs halfway between the from/to values, and 0.25 would return
// one quarter of the way from "from" to "to".
func InterpolateInputs(from, to []Input, by float64) []Input {
	var newVals []Input
	for i, j1 := range from {
		newVals = append(newVals, Input{j1.Value + ((to[i].Value - j1.Value) * by)})
	}
	return newVals
}

// InputsL2Distance returns the square root of the sum of squared distances
// between the two given sets of inputs.
func InputsL2Distance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	diff := make([]float64, 0, len(from))
	for i, f := range from {
		diff = append(diff, f.Value-to[i].Value)
	}
	// 2 is the L value returning a standard L2 Normalization
	return floats.Norm(diff, 2)
}

// InputsLinfDistance returns the greatest distance between any single pair of
// corresponding inputs in the two given sets.
func InputsLinfDistance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	dist := 0.
	for i, f := range from {
		dist = math.Max(dist, math.Abs(f.Value-to[i].Value))
	}
	return dist
}

// InputsAlmostEqual returns whether the two sets of inputs are equal to within
// the given tolerance in every dimension.
func InputsAlmostEqual(a, b []Input, epsilon float64) bool {
	if len(a) != len(b) {
		return false
	}
	return floats.EqualApprox(InputsToFloats(a), InputsToFloats(b), epsilon)
}
