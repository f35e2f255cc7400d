// Package collision approximates robot links as spheres and tests them against
// an occupancy grid's distance field.
package collision

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/latticeplan/referenceframe"
)

// SphereModel is the immutable descriptor of one bounding sphere: the link it
// is attached to, its center in that link's frame, and its radius. Models are
// created once at load time and never mutated.
type SphereModel struct {
	Name   string    `json:"name"`
	Link   string    `json:"link"`
	Center r3.Vector `json:"center"`
	Radius float64   `json:"radius"`
}

// RobotCollisionModel owns the full set of sphere models for the planning
// group, in a fixed deterministic order, together with the kinematic model
// used to place them in the world.
type RobotCollisionModel struct {
	model   referenceframe.Model
	spheres []SphereModel
}

// NewRobotCollisionModel validates the sphere set and binds it to a kinematic model.
func NewRobotCollisionModel(model referenceframe.Model, spheres []SphereModel) (*RobotCollisionModel, error) {
	if model == nil {
		return nil, errors.New("a collision model requires a kinematic model")
	}
	if len(spheres) == 0 {
		return nil, errors.New("a collision model requires at least one sphere")
	}
	seen := map[string]bool{}
	for _, s := range spheres {
		if s.Radius <= 0 {
			return nil, errors.Errorf("sphere %q must have a positive radius, got %f", s.Name, s.Radius)
		}
		if seen[s.Name] {
			return nil, errors.Errorf("duplicate sphere name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return &RobotCollisionModel{model: model, spheres: spheres}, nil
}

// Spheres returns the sphere models in their fixed check order.
func (m *RobotCollisionModel) Spheres() []SphereModel {
	return m.spheres
}

// NewState returns a fresh collision state for evaluating configurations
// against this model. States are not safe for concurrent use; concurrent
// evaluators must each own one, via NewState or Clone.
func (m *RobotCollisionModel) NewState() *RobotCollisionState {
	return &RobotCollisionState{
		model:  m,
		states: make([]SphereState, len(m.spheres)),
	}
}

// SphereState is the mutable world-frame placement of one sphere model,
// recomputed lazily when the state's configuration changes.
type SphereState struct {
	Center r3.Vector
	dirty  bool
}

// RobotCollisionState caches the world-space sphere centers for the most
// recently presented configuration. The cache is keyed on that configuration:
// presenting the same inputs again performs no kinematics work.
type RobotCollisionState struct {
	model      *RobotCollisionModel
	states     []SphereState
	lastInputs []referenceframe.Input
}

// SetInputs presents a configuration to the state. If it differs from the last
// configuration used, every sphere is marked stale; otherwise this is a no-op.
func (s *RobotCollisionState) SetInputs(inputs []referenceframe.Input) {
	if s.lastInputs != nil && inputsEqual(s.lastInputs, inputs) {
		return
	}
	s.lastInputs = append([]referenceframe.Input(nil), inputs...)
	for i := range s.states {
		s.states[i].dirty = true
	}
}

// UpdateSphere refreshes the world center of the indexed sphere if it is
// stale, and returns its current state.
func (s *RobotCollisionState) UpdateSphere(idx int) (SphereState, error) {
	if s.lastInputs == nil {
		return SphereState{}, errors.New("no configuration has been set on the collision state")
	}
	if s.states[idx].dirty {
		sm := s.model.spheres[idx]
		pose, err := s.model.model.Transform(s.lastInputs, sm.Link)
		if err != nil {
			return SphereState{}, errors.Wrapf(err, "updating sphere %q", sm.Name)
		}
		s.states[idx].Center = pose.TransformPoint(sm.Center)
		s.states[idx].dirty = false
	}
	return s.states[idx], nil
}

// Clone returns an independent copy of the state, for handing to another
// evaluation context.
func (s *RobotCollisionState) Clone() *RobotCollisionState {
	clone := &RobotCollisionState{
		model:  s.model,
		states: append([]SphereState(nil), s.states...),
	}
	if s.lastInputs != nil {
		clone.lastInputs = append([]referenceframe.Input(nil), s.lastInputs...)
	}
	return clone
}

// cache identity requires exact equality, not tolerance: two configurations
// within discretization tolerance may still place spheres differently.
func inputsEqual(a, b []referenceframe.Input) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}
