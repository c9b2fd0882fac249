package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/golang/geo/r3"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/ctrlib/internal/analysis"
	"github.com/san-kum/ctrlib/internal/automation"
	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/experiment"
	"github.com/san-kum/ctrlib/internal/export"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
	"github.com/san-kum/ctrlib/internal/storage"
	"github.com/san-kum/ctrlib/internal/viz"
)

// progress logs the closed loop once per second of simulated time.
type progress struct {
	log  *zap.SugaredLogger
	next float64
}

func (p *progress) OnStep(x sim.State, u sim.Control, t float64) {
	if t < p.next {
		return
	}
	p.log.Debugw("step", "t", t, "state_norm", x.Norm(), "control_norm", sim.State(u).Norm())
	p.next = t + 1
}

func sortedMetrics(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	if numRuns > 1 {
		return runEnsemble(cmd.Context(), reg, st, cfg)
	}

	exp, err := experiment.New(reg, cfg)
	if err != nil {
		return err
	}
	exp.GetSimulator().AddObserver(&progress{log: log})

	log.Infow("running simulation", "robot", cfg.Robot.Name, "mode", cfg.Mode,
		"controller", cfg.Controller, "integrator", cfg.Integrator)
	start := time.Now()
	result, err := exp.Run(context.Background())
	if err != nil {
		log.Errorw("simulation failed", "error", err)
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if !noSave {
		runID, err := st.Save(storage.MetadataFor(cfg, exp.Model().JointNames(), result), cfg, result)
		if err != nil {
			return err
		}
		log.Infow("run stored", "id", runID, "dir", dataDir)
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	for _, name := range sortedMetrics(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func runEnsemble(ctx context.Context, reg *experiment.Registry, st *storage.Store, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	model, err := experiment.BuildModel(cfg)
	if err != nil {
		return err
	}
	simCfg := sim.Config{Dt: cfg.Dt, Duration: cfg.Duration, ValidateState: true}

	log.Infow("running ensemble", "runs", numRuns, "perturbation", cfg.Perturbation)
	start := time.Now()
	results, runErr := sim.NewEnsemble(experiment.Factory(reg, cfg), numRuns, cfg.Seed).Run(ctx, simCfg)
	fmt.Printf("completed %d runs in %v\n\n", numRuns, time.Since(start))

	var names []string
	values := make(map[string][]float64)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, r := range results {
		if r == nil {
			continue
		}
		if names == nil {
			names = sortedMetrics(r.Metrics)
			fmt.Fprintln(w, "RUN\tSEED\tID\t"+strings.ToUpper(strings.Join(names, "\t")))
		}
		runCfg := cfg.Clone()
		runCfg.Seed = cfg.Seed + int64(i)
		id := "-"
		if !noSave {
			saved, err := st.Save(storage.MetadataFor(runCfg, model.JointNames(), r), runCfg, r)
			if err != nil {
				runErr = multierr.Append(runErr, err)
			} else {
				id = saved
			}
		}
		row := fmt.Sprintf("%d\t%d\t%s", i, runCfg.Seed, id)
		for _, name := range names {
			row += fmt.Sprintf("\t%.6f", r.Metrics[name])
			values[name] = append(values[name], r.Metrics[name])
		}
		fmt.Fprintln(w, row)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nsummary:")
	for _, name := range names {
		mean, std := stat.MeanStdDev(values[name], nil)
		fmt.Printf("  %s: %.6f ± %.6f\n", name, mean, std)
	}
	if runErr != nil {
		log.Errorw("ensemble had failures", "error", runErr)
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(exp, viz.GetTheme(themeName))
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROBOT\tMODE\tTIME\tDURATION\tDT\tINTEG\tCTRL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Robot,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Controller,
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	traj, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(traj.Rows) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, traj, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	selected := columns
	if len(selected) == 0 {
		for _, j := range meta.Joints {
			selected = append(selected, "q_"+j)
		}
		for _, j := range meta.Joints {
			selected = append(selected, "tau_"+j)
		}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("robot: %s (%s mode, %s)\n", meta.Robot, meta.Mode, meta.Controller)
	fmt.Printf("samples: %d\n\n", len(traj.Rows))
	for _, name := range selected {
		data, err := traj.Column(name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	name := joint
	if name == "" {
		name = meta.Joints[0]
	}
	qs, err := traj.Column("q_" + name)
	if err != nil {
		return err
	}
	dqs, err := traj.Column("dq_" + name)
	if err != nil {
		return err
	}
	portrait, err := analysis.NewPhasePortrait("q_"+name, qs, "dq_"+name, dqs)
	if err != nil {
		return err
	}
	fmt.Print(portrait.ASCII(70, 20))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	name := column
	if name == "" {
		name = "q_" + meta.Joints[0]
	}
	data, err := traj.Column(name)
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("column: %s\n\n", name)

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 8 {
		graph := asciigraph.Plot(ps[1:max(len(ps)/4, 2)],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+name+")"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	if freq, err := analysis.DominantFrequency(data, meta.Dt); err == nil {
		fmt.Printf("dominant frequency: %.3f hz\n", freq)
		if freq > 0 {
			fmt.Printf("period: %.3f s\n", 1.0/freq)
		}
	}

	final := data[len(data)-1]
	deviation := make([]float64, len(data))
	for i, v := range data {
		deviation[i] = v - final
	}
	if rate, err := analysis.DecayRate(traj.Times[:len(traj.Times)-1], deviation[:len(deviation)-1]); err == nil {
		fmt.Printf("decay rate: %.3f 1/s\n", rate)
	}
	if ts, ok := analysis.SettlingTime(traj.Times, deviation, tol); ok {
		fmt.Printf("settling time (±%g): %.3f s\n", tol, ts)
	} else {
		fmt.Printf("settling time (±%g): not settled\n", tol)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	var out io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := storage.New(dataDir).Export(args[0], out); err != nil {
		return err
	}
	if outFile != "" {
		log.Infow("run exported", "id", args[0], "file", outFile)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	robots := config.Robots()
	if len(args) > 0 {
		robots = args
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROBOT\tPRESET\tMODE\tCONTROLLER\tSPACE")
	for _, robot := range robots {
		names := config.ListPresets(robot)
		if len(names) == 0 {
			fmt.Fprintf(w, "%s\t(none)\t\t\t\n", robot)
			continue
		}
		for _, name := range names {
			cfg := config.GetPreset(robot, name)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", robot, name, cfg.Mode, cfg.Controller, cfg.Impedance.Space)
		}
	}
	return w.Flush()
}

func renderRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(meta.ID)
	if err != nil {
		return err
	}
	model, err := experiment.BuildModel(cfg)
	if err != nil {
		return err
	}

	n := model.NbJoints()
	path := make([]r3.Vector, 0, len(traj.Rows))
	var final state.JointPositions
	for _, row := range traj.Rows {
		q, err := state.JointPositionsFrom(model.Name(), model.JointNames(), row[:n])
		if err != nil {
			return err
		}
		pose, err := model.ForwardGeometry(q, "")
		if err != nil {
			return err
		}
		path = append(path, pose.Position())
		final = q
	}

	theme := viz.GetTheme(themeName)
	var svg string
	if pathOnly {
		svg = export.PathSVG(path, 600, 600, string(theme.Primary))
	} else {
		canvas := viz.NewCanvas(60, 30)
		view := viz.NewViewport(canvas, model.Reach()*1.1)
		for _, p := range path {
			view.Point(p)
		}
		links, err := viz.Links(model, final)
		if err != nil {
			return err
		}
		viz.DrawArm(view, links)
		svg = export.CanvasSVG(canvas, 4, string(theme.Primary))
	}

	if svgFile == "" {
		_, err = io.WriteString(os.Stdout, svg)
		return err
	}
	if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
		return err
	}
	log.Infow("svg written", "id", meta.ID, "file", svgFile)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	if scenario.Description != "" {
		fmt.Printf("%s: %s\n\n", scenario.Name, scenario.Description)
	}

	results, runErr := automation.RunScenario(context.Background(), scenario, experiment.NewRegistry(), st, log)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTEPS\tSTABLE\tRUN ID")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", r.Name, r.Result.StepsTaken, r.Stable, id)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}
