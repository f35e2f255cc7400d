package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestTransformPoint(t *testing.T) {
	// no rotation, pure translation
	p := NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3})
	pt := p.TransformPoint(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, pt.X, test.ShouldAlmostEqual, 2)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 2)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 3)

	// 90 degree rotation about Z maps +X to +Y
	p = RotationAboutZ(math.Pi / 2)
	pt = p.TransformPoint(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, pt.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 1)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 0)
}

func TestCompose(t *testing.T) {
	// two quarter turns about Z compose to a half turn
	quarter := RotationAboutZ(math.Pi / 2)
	half := Compose(quarter, quarter)
	pt := half.TransformPoint(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, pt.X, test.ShouldAlmostEqual, -1)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0, 1e-9)

	// translation in a rotated frame
	arm := Compose(quarter, NewPoseFromPoint(r3.Vector{X: 1, Y: 0, Z: 0}))
	test.That(t, arm.Point().X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, arm.Point().Y, test.ShouldAlmostEqual, 1)
}

func TestOrientationBetween(t *testing.T) {
	a := NewZeroPose()
	b := RotationAboutZ(math.Pi / 2)
	test.That(t, OrientationBetween(a, b), test.ShouldAlmostEqual, math.Pi/2, 1e-9)
	test.That(t, OrientationBetween(a, a), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestEulerAngles(t *testing.T) {
	yaw := &EulerAngles{Yaw: math.Pi / 2}
	p := NewPose(r3.Vector{}, yaw)
	pt := p.TransformPoint(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, pt.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 1)
}

func TestPoseAlmostEqual(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 1})
	b := NewPoseFromPoint(r3.Vector{X: 1 + 1e-9})
	test.That(t, PoseAlmostEqual(a, b, 1e-6), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(a, RotationAboutZ(1), 1e-6), test.ShouldBeFalse)
}
