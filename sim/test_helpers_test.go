package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testMolecule records when it was created and in which order.
type testMolecule struct {
	Created float64
	Seq     int
	Gen     int
}

type seqFactory struct {
	next int
}

func (f *seqFactory) Initialize(m *testMolecule, time float64) {
	m.Created = time
	m.Seq = f.next
	f.next++
}

func (f *seqFactory) Modify(m *testMolecule, _ float64) {
	m.Gen++
}

// recordingLogger keeps every sample in memory.
type recordingLogger struct {
	sim           *Simulation
	folder        string
	disk          bool
	times         []float64
	rows          []map[string]uint64
	initialized   bool
	uninitialized bool
}

func (l *recordingLogger) Initialize(outputFolder string, sim *Simulation) error {
	l.sim = sim
	l.folder = outputFolder
	l.initialized = true
	return nil
}

func (l *recordingLogger) WriteLog(time float64) error {
	row := make(map[string]uint64)
	for _, s := range l.sim.States() {
		row[s.Name()] = s.Num()
	}
	l.times = append(l.times, time)
	l.rows = append(l.rows, row)
	return nil
}

func (l *recordingLogger) Uninitialize() error {
	l.uninitialized = true
	return nil
}

func (l *recordingLogger) WritesToDisk() bool {
	return l.disk
}

func (l *recordingLogger) last() map[string]uint64 {
	return l.rows[len(l.rows)-1]
}

// newDecayModel builds A -> B with rate k.
func newDecayModel(t *testing.T, seed int64, k float64, a0 uint64) (*Simulation, *recordingLogger) {
	t.Helper()
	s := NewSimulation(NewSimulationKey(seed))
	_, err := s.CreateSimpleState("A", a0)
	require.NoError(t, err)
	_, err = s.CreateSimpleState("B", 0)
	require.NoError(t, err)
	r, err := s.CreatePropensityReaction("decay", ConstantRate(k))
	require.NoError(t, err)
	require.NoError(t, s.AddReactant(r, "A", 1))
	require.NoError(t, s.AddProduct(r, "B", 1))
	log := &recordingLogger{}
	require.NoError(t, s.AddLogger(log))
	return s, log
}
