package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/experiment"
	"github.com/san-kum/ctrlib/internal/viz"
)

var (
	dataDir   string
	verbose   bool
	themeName string

	dt           float64
	duration     float64
	seed         int64
	integrator   string
	controller   string
	mode         string
	space        string
	perturbation float64
	numRuns      int
	configFile   string
	preset       string
	noSave       bool

	columns  []string
	joint    string
	column   string
	outFile  string
	svgFile  string
	pathOnly bool
	tol      float64
	eigen    []float64
	velocity []float64
	spaceArg string
	targetX  float64
	targetY  float64
	yaw      float64
	sweepLo  float64
	sweepHi  float64
	steps    int
)

var log *zap.SugaredLogger

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// addRunFlags registers the flags overriding the configuration of a run.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration")
	f.Int64Var(&seed, "seed", 0, "random seed")
	f.StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, verlet)")
	f.StringVar(&controller, "controller", "impedance", "controller (impedance, pid, none)")
	f.StringVar(&mode, "mode", config.ModeJoint, "attractor space (joint, task)")
	f.StringVar(&space, "space", "", "computational space of the impedance controller")
	f.Float64Var(&perturbation, "perturbation", 0, "initial position noise of ensemble runs")
}

// main registers commands and flags and opens the preset picker when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "ctrlib",
		Short: "impedance control lab for planar arms",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			log, err = newLogger(verbose)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry(), viz.GetTheme(themeName))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ctrlib", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log run lifecycle events")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "cyberpunk", "color theme")

	runCmd := &cobra.Command{
		Use:   "run [robot]",
		Short: "run a closed-loop simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "number of ensemble runs")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live [robot]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to plot (default: positions and torques)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of one joint",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&joint, "joint", "", "joint name (default: first joint)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and convergence analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "", "column to analyze (default: first position)")
	analyzeCmd.Flags().Float64Var(&tol, "tol", 1e-3, "settling tolerance")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render the arm and end-effector trail of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	svgCmd.Flags().StringVarP(&svgFile, "output", "o", "", "output file (default: stdout)")
	svgCmd.Flags().BoolVar(&pathOnly, "path", false, "draw only the end-effector path")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [robot]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	dampingCmd := &cobra.Command{
		Use:   "damping",
		Short: "print the damping matrix aligned with a twist",
		RunE:  showDamping,
	}
	dampingCmd.Flags().StringVar(&spaceArg, "space", "full", "computational space")
	dampingCmd.Flags().Float64SliceVar(&eigen, "eigenvalues", []float64{1, 1, 1, 1, 1, 1}, "damping eigenvalues")
	dampingCmd.Flags().Float64SliceVar(&velocity, "velocity", []float64{1, 0, 0, 0, 0, 1}, "twist: vx,vy,vz,wx,wy,wz")

	solveCmd := &cobra.Command{
		Use:   "solve [robot]",
		Short: "solve the inverse geometry of an end-effector pose",
		Args:  cobra.MaximumNArgs(1),
		RunE:  solve,
	}
	solveCmd.Flags().Float64Var(&targetX, "x", 1, "target x")
	solveCmd.Flags().Float64Var(&targetY, "y", 1, "target y")
	solveCmd.Flags().Float64Var(&yaw, "yaw", 0, "target yaw")

	sweepCmd := &cobra.Command{
		Use:   "sweep [robot]",
		Short: "sweep a scale of the damping eigenvalues",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepDamping,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepLo, "min", 0.25, "lowest scale")
	sweepCmd.Flags().Float64Var(&sweepHi, "max", 4, "highest scale")
	sweepCmd.Flags().IntVar(&steps, "steps", 16, "number of scales")
	sweepCmd.Flags().Float64Var(&tol, "tol", 1e-3, "settling tolerance")

	stabilityCmd := &cobra.Command{
		Use:   "stability [robot]",
		Short: "estimate the closed-loop Lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  estimateStability,
	}
	addRunFlags(stabilityCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, phaseCmd, analyzeCmd, exportCmd,
		svgCmd, scenarioCmd, presetsCmd, dampingCmd, solveCmd, sweepCmd, stabilityCmd)

	err := rootCmd.Execute()
	if log != nil {
		_ = log.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

func robotArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "planar2"
}

// loadConfig resolves the configuration of a run: the preset (or the reach
// preset of the robot), then the config file, then the flags the user set.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	robot := robotArg(args)
	name := preset
	if name == "" {
		name = "reach"
	}
	cfg := config.GetPreset(robot, name)
	if cfg == nil {
		if preset != "" || len(args) > 0 {
			return nil, fmt.Errorf("unknown preset: %s/%s (available: %v)", robot, name, config.ListPresets(robot))
		}
		cfg = config.DefaultConfig()
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("space") {
		cfg.Impedance.Space = space
	}
	if flags.Changed("perturbation") {
		cfg.Perturbation = perturbation
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
