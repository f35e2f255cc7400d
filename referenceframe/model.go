package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/latticeplan/spatialmath"
)

// Limit represents the limits of motion for a single joint.
type Limit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Model is the kinematic collaborator the planner consumes. It answers forward
// kinematics queries for named links and describes the joints being planned
// over. Implementations must be safe for concurrent read-only use.
type Model interface {
	// Name returns the name of the model.
	Name() string

	// Transform computes the world pose of the named link at the given configuration.
	Transform(inputs []Input, link string) (spatialmath.Pose, error)

	// DoF returns the motion limits of each planned joint, in order.
	DoF() []Limit

	// JointNames returns the ordered names of the planned joints.
	JointNames() []string
}

// JointConfig describes one revolute joint of a SimpleModel: the fixed
// translation from the previous link frame to the joint origin, and the axis
// the joint rotates about. The link frame named by Name sits at the joint
// origin and rotates with the joint.
type JointConfig struct {
	Name        string    `json:"name"`
	Translation r3.Vector `json:"translation"`
	Axis        r3.Vector `json:"axis"`
	Limit       Limit     `json:"limit"`
}

// SimpleModel is a serial chain of revolute joints, sufficient for the test
// arms and demo scenarios the planner ships with. Real deployments supply
// their own Model implementation.
type SimpleModel struct {
	name   string
	joints []JointConfig
}

// NewSimpleModel constructs a serial-chain model from an ordered list of joints.
func NewSimpleModel(name string, joints []JointConfig) (*SimpleModel, error) {
	if len(joints) == 0 {
		return nil, errors.New("a model requires at least one joint")
	}
	seen := map[string]bool{}
	for _, j := range joints {
		if j.Name == "" {
			return nil, errors.New("all joints must be named")
		}
		if seen[j.Name] {
			return nil, errors.Errorf("duplicate joint name %q", j.Name)
		}
		if j.Limit.Min > j.Limit.Max {
			return nil, errors.Errorf("joint %q has limit min %f greater than max %f", j.Name, j.Limit.Min, j.Limit.Max)
		}
		seen[j.Name] = true
	}
	return &SimpleModel{name: name, joints: joints}, nil
}

// Name returns the name of this model.
func (m *SimpleModel) Name() string {
	return m.name
}

// Transform computes the world pose of the named link frame by walking the
// chain from the base, applying each joint's fixed translation and rotation in
// order until the link is reached.
func (m *SimpleModel) Transform(inputs []Input, link string) (spatialmath.Pose, error) {
	if len(inputs) != len(m.joints) {
		return spatialmath.Pose{}, NewIncorrectDoFError(len(inputs), len(m.joints))
	}
	pose := spatialmath.NewZeroPose()
	for i, joint := range m.joints {
		pose = spatialmath.Compose(pose, spatialmath.NewPoseFromPoint(joint.Translation))
		pose = spatialmath.Compose(pose, spatialmath.RotationAboutAxis(joint.Axis, inputs[i].Value))
		if joint.Name == link {
			return pose, nil
		}
	}
	return spatialmath.Pose{}, NewLinkMissingError(link, m.name)
}

// DoF returns the limits of each joint in chain order.
func (m *SimpleModel) DoF() []Limit {
	limits := make([]Limit, 0, len(m.joints))
	for _, j := range m.joints {
		limits = append(limits, j.Limit)
	}
	return limits
}

// JointNames returns the ordered joint names of the chain.
func (m *SimpleModel) JointNames() []string {
	names := make([]string, 0, len(m.joints))
	for _, j := range m.joints {
		names = append(names, j.Name)
	}
	return names
}

// CheckLimits returns an error describing every input that falls outside the
// corresponding joint's limits, or nil if the configuration is within bounds.
func CheckLimits(m Model, inputs []Input) error {
	limits := m.DoF()
	if len(inputs) != len(limits) {
		return NewIncorrectDoFError(len(inputs), len(limits))
	}
	names := m.JointNames()
	var err error
	for i, input := range inputs {
		if input.Value < limits[i].Min || input.Value > limits[i].Max {
			err = multierr.Combine(err,
				errors.Errorf("joint %q input %f out of bounds [%f, %f]",
					names[i], input.Value, limits[i].Min, limits[i].Max))
		}
	}
	return err
}
