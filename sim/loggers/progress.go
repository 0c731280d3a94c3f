package loggers

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/reactsim/reactsim/sim"
)

// DefaultProgressSteps is the number of progress reports per run.
const DefaultProgressSteps = 10

// ProgressLogger reports progress through logrus each time the sampled time
// crosses another 1/steps of the run's horizon.
type ProgressLogger struct {
	steps int

	sim     *sim.Simulation
	next    int
	reports int
}

// NewProgressLogger creates a ProgressLogger; steps <= 0 selects DefaultProgressSteps.
func NewProgressLogger(steps int) *ProgressLogger {
	if steps <= 0 {
		steps = DefaultProgressSteps
	}
	return &ProgressLogger{steps: steps}
}

// Reports returns how many progress lines the last run produced.
func (l *ProgressLogger) Reports() int {
	return l.reports
}

func (l *ProgressLogger) WritesToDisk() bool { return false }

func (l *ProgressLogger) Initialize(_ string, s *sim.Simulation) error {
	l.sim = s
	l.next = 1
	l.reports = 0
	return nil
}

func (l *ProgressLogger) WriteLog(time float64) error {
	horizon := l.sim.Horizon
	if horizon <= 0 {
		return nil
	}
	reached := int(math.Floor(time / horizon * float64(l.steps)))
	if reached < l.next {
		return nil
	}
	l.next = reached + 1
	l.reports++
	counts := l.sim.Counts()
	logrus.WithFields(logrus.Fields{
		"time":       time,
		"propensity": counts.Propensity,
		"delayed":    counts.Delayed,
	}).Infof("progress %d%%", min(100, reached*100/l.steps))
	return nil
}

func (l *ProgressLogger) Uninitialize() error { return nil }
