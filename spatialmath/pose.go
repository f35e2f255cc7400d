// Package spatialmath defines the poses and orientations used to place robot
// links and obstacles in a common world frame.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/latticeplan/utils"
)

// Pose represents a position and orientation in 3D space. The orientation is
// stored as a unit quaternion.
type Pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns a pose at the world origin with no rotation.
func NewZeroPose() Pose {
	return Pose{orientation: quat.Number{Real: 1}}
}

// NewPoseFromPoint returns a pose at the given point with no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return Pose{point: point, orientation: quat.Number{Real: 1}}
}

// NewPose returns a pose at the given point with the given orientation.
func NewPose(point r3.Vector, orientation *EulerAngles) Pose {
	return Pose{point: point, orientation: orientation.Quaternion()}
}

// Point returns the position component of the pose.
func (p Pose) Point() r3.Vector {
	return p.point
}

// Orientation returns the orientation component of the pose as a unit quaternion.
func (p Pose) Orientation() quat.Number {
	return p.orientation
}

// TransformPoint applies the pose's rotation to the given point and then
// translates it by the pose's position, mapping a point from the pose's local
// frame into its parent frame.
func (p Pose) TransformPoint(pt r3.Vector) r3.Vector {
	q := quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}
	rotated := quat.Mul(quat.Mul(p.orientation, q), quat.Conj(p.orientation))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}.Add(p.point)
}

// Compose returns the pose equivalent to applying a and then b, e.g. the pose
// of b were it expressed in the frame of a.
func Compose(a, b Pose) Pose {
	return Pose{
		point:       a.TransformPoint(b.point),
		orientation: quat.Mul(a.orientation, b.orientation),
	}
}

// PoseDelta returns the linear distance between the points of two poses.
func PoseDelta(a, b Pose) float64 {
	return a.point.Sub(b.point).Norm()
}

// OrientationBetween returns the angle in radians of the rotation taking the
// orientation of a to the orientation of b.
func OrientationBetween(a, b Pose) float64 {
	dot := a.orientation.Real*b.orientation.Real +
		a.orientation.Imag*b.orientation.Imag +
		a.orientation.Jmag*b.orientation.Jmag +
		a.orientation.Kmag*b.orientation.Kmag
	// a quaternion and its negation represent the same rotation
	dot = utils.Clamp(math.Abs(dot), 0, 1)
	return 2 * math.Acos(dot)
}

// PoseAlmostEqual returns whether both the points and orientations of the two
// poses are within epsilon of one another.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	return PoseDelta(a, b) < epsilon && OrientationBetween(a, b) < epsilon
}

// EulerAngles are three angles used to represent the rotation of an object,
// applied in ZYX (yaw, pitch, roll) order.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Quaternion returns the unit quaternion corresponding to the Euler angles.
func (ea *EulerAngles) Quaternion() quat.Number {
	cy := math.Cos(ea.Yaw / 2)
	sy := math.Sin(ea.Yaw / 2)
	cp := math.Cos(ea.Pitch / 2)
	sp := math.Sin(ea.Pitch / 2)
	cr := math.Cos(ea.Roll / 2)
	sr := math.Sin(ea.Roll / 2)

	return quat.Number{
		Real: cy*cp*cr + sy*sp*sr,
		Imag: cy*cp*sr - sy*sp*cr,
		Jmag: sy*cp*sr + cy*sp*cr,
		Kmag: sy*cp*cr - cy*sp*sr,
	}
}

// RotationAboutZ returns a pose at the origin rotated about the Z axis by theta radians.
func RotationAboutZ(theta float64) Pose {
	return Pose{
		orientation: quat.Number{Real: math.Cos(theta / 2), Kmag: math.Sin(theta / 2)},
	}
}

// RotationAboutAxis returns a pose at the origin rotated about the given axis
// by theta radians. The axis need not be normalized.
func RotationAboutAxis(axis r3.Vector, theta float64) Pose {
	if axis.Norm() == 0 {
		return NewZeroPose()
	}
	axis = axis.Normalize()
	s := math.Sin(theta / 2)
	return Pose{
		orientation: quat.Number{
			Real: math.Cos(theta / 2),
			Imag: axis.X * s,
			Jmag: axis.Y * s,
			Kmag: axis.Z * s,
		},
	}
}
