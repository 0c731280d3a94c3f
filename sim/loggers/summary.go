package loggers

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/reactsim/reactsim/sim"
)

// StateSummary holds the statistics of one state's sampled population.
type StateSummary struct {
	State   string
	Samples int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	Final   float64
}

// SummaryLogger accumulates every sample and computes per-state statistics
// at Uninitialize. The table is printed to Out when it is non-nil.
type SummaryLogger struct {
	Out io.Writer

	states  []sim.State
	series  [][]float64
	summary []StateSummary
}

// NewSummaryLogger creates a SummaryLogger printing to out (may be nil).
func NewSummaryLogger(out io.Writer) *SummaryLogger {
	return &SummaryLogger{Out: out}
}

// Summary returns the statistics of the last run in state registration order.
func (l *SummaryLogger) Summary() []StateSummary {
	return l.summary
}

func (l *SummaryLogger) WritesToDisk() bool { return false }

func (l *SummaryLogger) Initialize(_ string, s *sim.Simulation) error {
	l.states = populations(s)
	l.series = make([][]float64, len(l.states))
	l.summary = nil
	return nil
}

func (l *SummaryLogger) WriteLog(_ float64) error {
	for i, st := range l.states {
		l.series[i] = append(l.series[i], float64(st.Num()))
	}
	return nil
}

func (l *SummaryLogger) Uninitialize() error {
	l.summary = make([]StateSummary, 0, len(l.states))
	for i, st := range l.states {
		xs := l.series[i]
		if len(xs) == 0 {
			continue
		}
		mean, std := stat.MeanStdDev(xs, nil)
		if len(xs) == 1 {
			std = 0
		}
		l.summary = append(l.summary, StateSummary{
			State:   st.Name(),
			Samples: len(xs),
			Mean:    mean,
			StdDev:  std,
			Min:     floats.Min(xs),
			Max:     floats.Max(xs),
			Final:   xs[len(xs)-1],
		})
	}
	l.series = nil
	for _, s := range l.summary {
		logrus.Debugf("summary %s: mean=%.3f sd=%.3f min=%g max=%g final=%g",
			s.State, s.Mean, s.StdDev, s.Min, s.Max, s.Final)
	}
	if l.Out == nil {
		return nil
	}
	return l.print()
}

func (l *SummaryLogger) print() error {
	w := tabwriter.NewWriter(l.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "State\tSamples\tMean\tStdDev\tMin\tMax\tFinal")
	for _, s := range l.summary {
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%g\t%g\t%g\n",
			s.State, s.Samples, s.Mean, s.StdDev, s.Min, s.Max, s.Final)
	}
	return w.Flush()
}
