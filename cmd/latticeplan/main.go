// Package main plans a collision-free trajectory for a demo two-link arm
// through a scenario's obstacles and writes the result as CSV.
package main

import (
	"context"
	"flag"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/latticeplan/collision"
	"go.viam.com/latticeplan/grid"
	"go.viam.com/latticeplan/motionplan"
	"go.viam.com/latticeplan/referenceframe"
	"go.viam.com/latticeplan/scenario"
)

var logger = golog.NewDevelopmentLogger("latticeplan")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	scenarioPath := flags.String("scenario", "", "path to a scenario JSON file")
	goalFlag := flags.String("goal", "1.57,0", "goal joint positions, comma separated radians")
	outPath := flags.String("out", "", "write the solution path to this CSV file")
	budget := flags.Duration("budget", 5*time.Second, "planning time budget")
	epsilon := flags.Float64("epsilon", 0, "initial heuristic inflation, 0 for the default")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	model, err := demoArm()
	if err != nil {
		return err
	}
	g, err := grid.NewOccupancyGrid(
		r3.Vector{X: 4.4, Y: 4.4, Z: 0.4},
		r3.Vector{X: -2.2, Y: -2.2, Z: -0.2},
		0.05, 0.5, "world")
	if err != nil {
		return err
	}

	start := referenceframe.FloatsToInputs([]float64{0, 0})
	if *scenarioPath != "" {
		scene, err := scenario.LoadFile(*scenarioPath)
		if err != nil {
			return err
		}
		if err := scene.Apply(g); err != nil {
			return err
		}
		if start, err = scene.StartInputs(model); err != nil {
			return err
		}
		logger.Infow("loaded scenario", "path", *scenarioPath, "objects", len(scene.Objects))
	}

	goal, err := parseGoal(*goalFlag, len(model.DoF()))
	if err != nil {
		return err
	}

	cm, err := demoCollisionModel(model)
	if err != nil {
		return err
	}
	checker, err := collision.NewChecker(g, cm, collision.CheckerConfig{
		Padding:        0.01,
		EdgeResolution: 0.05,
	}, logger)
	if err != nil {
		return err
	}
	actions, err := motionplan.NewUniformActionSet(len(model.DoF()), 0.2, 0.05)
	if err != nil {
		return err
	}

	opts := motionplan.NewBasicPlannerOptions()
	opts.LatticeResolution = 0.05
	opts.Reach = 2.0
	planner, err := motionplan.NewPlanner(model, checker, actions, opts, logger)
	if err != nil {
		return err
	}

	plan, err := planner.Plan(ctx, &motionplan.Request{
		Start:             start,
		GoalConfiguration: goal,
		TimeBudget:        *budget,
		Epsilon:           *epsilon,
	})
	if err != nil {
		return err
	}

	logger.Infow("plan found", "waypoints", len(plan.Trajectory), "cost", plan.Trajectory.Cost())
	keys := make([]string, 0, len(plan.Stats))
	for key := range plan.Stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		logger.Infof("%s: %g", key, plan.Stats[key])
	}

	if *outPath != "" {
		//nolint:gosec
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		if err := scenario.WritePathCSV(model, plan.Trajectory, f); err != nil {
			return multierr.Combine(err, f.Close())
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Infow("wrote path", "path", *outPath)
	}
	return nil
}

func demoArm() (referenceframe.Model, error) {
	return referenceframe.NewSimpleModel("demo-arm", []referenceframe.JointConfig{
		{
			Name:  "shoulder",
			Axis:  r3.Vector{Z: 1},
			Limit: referenceframe.Limit{Min: -3.1, Max: 3.1},
		},
		{
			Name:        "elbow",
			Translation: r3.Vector{X: 1},
			Axis:        r3.Vector{Z: 1},
			Limit:       referenceframe.Limit{Min: -3.1, Max: 3.1},
		},
	})
}

func demoCollisionModel(model referenceframe.Model) (*collision.RobotCollisionModel, error) {
	spheres := []collision.SphereModel{
		{Name: "upper1", Link: "shoulder", Center: r3.Vector{X: 0.25}, Radius: 0.08},
		{Name: "upper2", Link: "shoulder", Center: r3.Vector{X: 0.5}, Radius: 0.08},
		{Name: "upper3", Link: "shoulder", Center: r3.Vector{X: 0.75}, Radius: 0.08},
		{Name: "fore1", Link: "elbow", Center: r3.Vector{X: 0.25}, Radius: 0.08},
		{Name: "fore2", Link: "elbow", Center: r3.Vector{X: 0.5}, Radius: 0.08},
		{Name: "fore3", Link: "elbow", Center: r3.Vector{X: 0.75}, Radius: 0.08},
		{Name: "tool", Link: "elbow", Center: r3.Vector{X: 1}, Radius: 0.08},
	}
	return collision.NewRobotCollisionModel(model, spheres)
}

func parseGoal(value string, dof int) ([]referenceframe.Input, error) {
	parts := strings.Split(value, ",")
	if len(parts) != dof {
		return nil, errors.Errorf("goal has %d joints, expected %d", len(parts), dof)
	}
	goal := make([]float64, 0, dof)
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot parse goal joint %q", part)
		}
		goal = append(goal, v)
	}
	return referenceframe.FloatsToInputs(goal), nil
}
