package referenceframe

import "github.com/pkg/errors"

// NewIncorrectDoFError returns an error indicating that a configuration has
// the wrong number of joint values for the model consuming it.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match model DoF, expected %d but got %d", expected, actual)
}

// NewLinkMissingError returns an error indicating the named link does not
// exist on the named model.
func NewLinkMissingError(link, model string) error {
	return errors.Errorf("link %q not found on model %q", link, model)
}

// NewJointMissingError returns an error indicating that a named joint required
// by the model was absent from a supplied joint-to-value mapping.
func NewJointMissingError(joint string) error {
	return errors.Errorf("joint %q was not found in the supplied robot state", joint)
}
