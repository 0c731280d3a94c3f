package loggers

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reactsim/reactsim/sim"
)

// DefaultMetricsFile is the textfile written by MetricsLogger when no name is given.
const DefaultMetricsFile = "reactsim.prom"

// MetricsLogger keeps Prometheus gauges in step with the sampled populations
// and writes them in the text exposition format at Uninitialize, for pickup
// by a node-exporter textfile collector.
type MetricsLogger struct {
	fileName string
	path     string

	registry   *prometheus.Registry
	population *prometheus.GaugeVec
	clock      prometheus.Gauge
	events     *prometheus.GaugeVec
	samples    prometheus.Counter

	sim    *sim.Simulation
	states []sim.State
}

// NewMetricsLogger creates a MetricsLogger writing fileName inside the output folder.
func NewMetricsLogger(fileName string) *MetricsLogger {
	if fileName == "" {
		fileName = DefaultMetricsFile
	}
	return &MetricsLogger{fileName: fileName}
}

// Path returns the textfile written by the last run.
func (l *MetricsLogger) Path() string {
	return l.path
}

// Registry exposes the gauges, e.g. for serving them over HTTP.
func (l *MetricsLogger) Registry() *prometheus.Registry {
	return l.registry
}

func (l *MetricsLogger) WritesToDisk() bool { return true }

func (l *MetricsLogger) Initialize(outputFolder string, s *sim.Simulation) error {
	l.path = filepath.Join(outputFolder, l.fileName)
	l.registry = prometheus.NewRegistry()
	l.population = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reactsim_population",
		Help: "Population of a state at the last sample.",
	}, []string{"state"})
	l.clock = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reactsim_time",
		Help: "Simulation time of the last sample.",
	})
	l.events = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reactsim_events",
		Help: "Events fired so far, by reaction kind.",
	}, []string{"kind"})
	l.samples = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reactsim_samples_total",
		Help: "Samples taken by the log manager.",
	})
	for _, c := range []prometheus.Collector{l.population, l.clock, l.events, l.samples} {
		if err := l.registry.Register(c); err != nil {
			return fmt.Errorf("register metric: %w", err)
		}
	}
	l.sim = s
	l.states = populations(s)
	return nil
}

func (l *MetricsLogger) WriteLog(time float64) error {
	for _, st := range l.states {
		l.population.WithLabelValues(st.Name()).Set(float64(st.Num()))
	}
	l.clock.Set(time)
	counts := l.sim.Counts()
	l.events.WithLabelValues("propensity").Set(float64(counts.Propensity))
	l.events.WithLabelValues("delayed").Set(float64(counts.Delayed))
	l.samples.Inc()
	return nil
}

func (l *MetricsLogger) Uninitialize() error {
	if l.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(l.path, l.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
