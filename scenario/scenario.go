// Package scenario loads self-contained planning problems: an initial named
// joint configuration and a set of collision cubes to populate the occupancy
// grid with. Scenarios drive the demo binary and reproducible planner tests.
package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/latticeplan/grid"
	"go.viam.com/latticeplan/referenceframe"
)

// CollisionCube is one axis-aligned box obstacle, centered at Center with
// full extents Dims, expressed in the scenario's planning frame.
type CollisionCube struct {
	ID     string    `json:"id"`
	Center r3.Vector `json:"center"`
	Dims   r3.Vector `json:"dims"`
}

// Scenario is a loadable planning problem.
type Scenario struct {
	// PlanningFrame names the frame the cubes are expressed in. When set, it
	// must match the grid the scenario is applied to.
	PlanningFrame string `json:"planning_frame"`

	// InitialState maps joint names to start positions. Joints are resolved
	// by name so scenario files are robust to joint ordering.
	InitialState map[string]float64 `json:"initial_state"`

	Objects []CollisionCube `json:"objects"`
}

// Load decodes a scenario from JSON.
func Load(r io.Reader) (*Scenario, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode scenario")
	}
	var s Scenario
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode scenario")
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads a scenario from a JSON file.
func LoadFile(path string) (*Scenario, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func (s *Scenario) validate() error {
	var err error
	seen := map[string]bool{}
	for _, cube := range s.Objects {
		if cube.ID == "" {
			err = multierr.Combine(err, errors.New("all collision cubes must have an id"))
			continue
		}
		if seen[cube.ID] {
			err = multierr.Combine(err, errors.Errorf("duplicate collision cube id %q", cube.ID))
		}
		seen[cube.ID] = true
		if cube.Dims.X <= 0 || cube.Dims.Y <= 0 || cube.Dims.Z <= 0 {
			err = multierr.Combine(err, errors.Errorf("collision cube %q must have positive dimensions", cube.ID))
		}
	}
	return err
}

// Apply inserts every collision cube into the grid.
func (s *Scenario) Apply(g *grid.OccupancyGrid) error {
	if s.PlanningFrame != "" && s.PlanningFrame != g.ReferenceFrame() {
		return errors.Errorf("scenario is expressed in frame %q but the grid is in frame %q",
			s.PlanningFrame, g.ReferenceFrame())
	}
	for _, cube := range s.Objects {
		g.AddBox(cube.Center, cube.Dims)
	}
	return nil
}

// StartInputs resolves the scenario's named initial state against the model's
// planned joints, in model order. Every planned joint must be present.
func (s *Scenario) StartInputs(model referenceframe.Model) ([]referenceframe.Input, error) {
	names := model.JointNames()
	inputs := make([]referenceframe.Input, 0, len(names))
	for _, name := range names {
		position, ok := s.InitialState[name]
		if !ok {
			return nil, referenceframe.NewJointMissingError(name)
		}
		inputs = append(inputs, referenceframe.Input{Value: position})
	}
	return inputs, nil
}

// WritePathCSV writes a joint trajectory as CSV: a header row of joint names
// followed by one row of positions per waypoint.
func WritePathCSV(model referenceframe.Model, path [][]referenceframe.Input, w io.Writer) error {
	for i, name := range model.JointNames() {
		if i != 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, name); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	for _, point := range path {
		for i, input := range point {
			if i != 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%f", input.Value); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
