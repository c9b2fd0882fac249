package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/golang/geo/r3"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/ctrlib/internal/analysis"
	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/experiment"
	"github.com/san-kum/ctrlib/internal/impedance"
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

func showDamping(cmd *cobra.Command, args []string) error {
	sp, err := impedance.ParseComputationalSpace(spaceArg)
	if err != nil {
		return err
	}
	var d *impedance.Dissipative
	if sp == impedance.Joint {
		d, err = impedance.NewJoint(len(velocity))
	} else {
		d, err = impedance.NewCartesian(sp)
	}
	if err != nil {
		return err
	}
	if err := d.SetDampingEigenvalues(eigen); err != nil {
		return err
	}
	if err := d.ComputeDamping(velocity); err != nil {
		return err
	}

	fmt.Printf("space: %s\n", sp)
	fmt.Printf("eigenvalues: %v\n", d.DampingEigenvalues())
	fmt.Printf("velocity: %v\n\n", velocity)
	fmt.Printf("D = %v\n", mat.Formatted(d.Damping(), mat.Prefix("    "), mat.Squeeze()))
	return nil
}

// robotModel builds the arm of the reach preset of the named robot.
func robotModel(name string) (*robot.Model, error) {
	cfg := config.GetPreset(name, "reach")
	if cfg == nil {
		return nil, fmt.Errorf("unknown robot: %s", name)
	}
	return experiment.BuildModel(cfg)
}

func solve(cmd *cobra.Command, args []string) error {
	model, err := robotModel(robotArg(args))
	if err != nil {
		return err
	}
	orientation := quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
	target, err := state.CartesianPoseFrom(model.EndEffector(), r3.Vector{X: targetX, Y: targetY}, orientation, model.BaseFrame())
	if err != nil {
		return err
	}

	seed := state.NewJointPositionsWithNames(model.Name(), model.JointNames())
	q, err := model.InverseGeometry(target, seed, robot.DefaultInverseGeometryParameters())
	if err != nil {
		log.Debugw("inverse geometry failed", "robot", model.Name(), "error", err)
		return err
	}
	reached, err := model.ForwardGeometry(q, "")
	if err != nil {
		return err
	}
	residual := reached.Position().Sub(target.Position()).Norm()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOINT\tPOSITION")
	for i, name := range q.Names() {
		fmt.Fprintf(w, "%s\t%.6f\n", name, q.Data()[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nreached: %v\n", reached.Position())
	fmt.Printf("residual: %.3g\n", residual)
	return nil
}

// settlingTime is the time after which the joint speed of result stays under
// tol.
func settlingTime(result *sim.Result, joints int, tol float64) (float64, bool) {
	speeds := make([]float64, len(result.States))
	for i, x := range result.States {
		speeds[i] = x[joints:].Norm()
	}
	return analysis.SettlingTime(result.Times, speeds, tol)
}

func sweepDamping(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Controller != "impedance" {
		return fmt.Errorf("sweep needs the impedance controller, got %s", cfg.Controller)
	}
	reg := experiment.NewRegistry()

	points, sweepErr := analysis.Sweep(sweepLo, sweepHi, steps, func(scale float64) (float64, error) {
		runCfg := cfg.Clone()
		for i := range runCfg.Impedance.Eigenvalues {
			runCfg.Impedance.Eigenvalues[i] *= scale
		}
		exp, err := experiment.New(reg, runCfg)
		if err != nil {
			return 0, err
		}
		result, err := exp.Run(context.Background())
		if err != nil {
			return 0, err
		}
		ts, ok := settlingTime(result, exp.Model().NbJoints(), tol)
		if !ok {
			return math.Inf(1), nil
		}
		log.Debugw("sweep point", "scale", scale, "settling_time", ts)
		return ts, nil
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCALE\tSETTLING TIME")
	var curve []float64
	for _, p := range points {
		switch {
		case p.Err != nil:
			fmt.Fprintf(w, "%.3f\terror: %v\n", p.Param, p.Err)
		case math.IsInf(p.Value, 1):
			fmt.Fprintf(w, "%.3f\tnot settled\n", p.Param)
		default:
			fmt.Fprintf(w, "%.3f\t%.3fs\n", p.Param, p.Value)
			curve = append(curve, p.Value)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(curve) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(curve,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("settling time vs damping scale"),
		))
	}
	return sweepErr
}

func estimateStability(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	exp, err := experiment.New(reg, cfg)
	if err != nil {
		return err
	}
	build := func() (*sim.Simulator, error) {
		e, err := experiment.New(reg, cfg.Clone())
		if err != nil {
			return nil, err
		}
		return e.GetSimulator(), nil
	}

	lambda, err := analysis.LyapunovExponent(context.Background(), build, exp.InitialState(), exp.SimConfig(), 1e-6)
	if err != nil {
		return err
	}
	fmt.Printf("robot: %s (%s mode, %s)\n", cfg.Robot.Name, cfg.Mode, cfg.Controller)
	fmt.Printf("lyapunov exponent: %.4f 1/s\n", lambda)
	switch {
	case lambda < -1e-3:
		fmt.Println("closed loop is contracting")
	case lambda > 1e-3:
		fmt.Println("closed loop is diverging")
	default:
		fmt.Println("closed loop is marginal")
	}
	return nil
}
