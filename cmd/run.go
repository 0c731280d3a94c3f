package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reactsim/reactsim/sim"
	"github.com/reactsim/reactsim/sim/loggers"
	"github.com/reactsim/reactsim/sim/model"
	"github.com/reactsim/reactsim/sim/trace"
)

// runSimulation loads the model, wires the loggers selected by cfg, and runs
// it. Reports go to out.
func runSimulation(cfg RunConfig, out io.Writer) (*sim.Simulation, error) {
	spec, err := model.LoadModelSpec(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	s := sim.NewSimulation(sim.NewSimulationKey(cfg.Seed))
	if _, err := model.Build(spec, s); err != nil {
		return nil, fmt.Errorf("building model %s: %w", cfg.ModelPath, err)
	}
	if cfg.LogPeriod > 0 {
		if err := s.SetLogPeriod(cfg.LogPeriod); err != nil {
			return nil, err
		}
	}
	if err := s.SetBaseOutputFolder(cfg.Output); err != nil {
		return nil, err
	}
	for _, task := range selectLoggers(cfg, out) {
		if err := s.AddLogger(task); err != nil {
			return nil, err
		}
	}
	if cfg.Trace {
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	}

	runtime := cfg.Runtime
	if runtime == 0 {
		runtime = spec.Runtime
	}
	if runtime == 0 {
		logrus.Warnf("runtime is 0; only the initial sample will be written")
	}

	startTime := time.Now()
	if err := s.Run(runtime); err != nil {
		return s, err
	}
	logrus.Infof("Simulation complete in %s (seed=%d, %d events)", time.Since(startTime), cfg.Seed, s.Counts().Total())

	if s.Trace != nil {
		printTraceSummary(out, trace.Summarize(s.Trace))
	}
	return s, nil
}

func selectLoggers(cfg RunConfig, out io.Writer) []sim.LoggerTask {
	var tasks []sim.LoggerTask
	if cfg.CSV {
		tasks = append(tasks, loggers.NewCSVLogger(""))
	}
	if cfg.SQLite {
		tasks = append(tasks, loggers.NewSQLiteLogger(""))
	}
	if cfg.Metrics {
		tasks = append(tasks, loggers.NewMetricsLogger(""))
	}
	if cfg.Progress {
		tasks = append(tasks, loggers.NewProgressLogger(loggers.DefaultProgressSteps))
	}
	if cfg.Summary {
		tasks = append(tasks, loggers.NewSummaryLogger(out))
	}
	return tasks
}

func printTraceSummary(out io.Writer, summary *trace.TraceSummary) {
	fmt.Fprintf(out, "=== Event Trace ===\n")
	fmt.Fprintf(out, "Total Events: %d (propensity %d, delayed %d)\n",
		summary.TotalEvents, summary.PropensityCount, summary.DelayedCount)
	if summary.TotalEvents == 0 {
		return
	}
	fmt.Fprintf(out, "First/Last Event: t=%g / t=%g\n", summary.FirstClock, summary.LastClock)
	names := make([]string, 0, len(summary.FireCounts))
	for name := range summary.FireCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %d\n", name, summary.FireCounts[name])
	}
}
