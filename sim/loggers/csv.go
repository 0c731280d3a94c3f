package loggers

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/reactsim/reactsim/sim"
)

// DefaultCSVFile is the table written by CSVLogger when no name is given.
const DefaultCSVFile = "populations.csv"

// CSVLogger writes one row per sample: the time followed by the population
// of every non-choice state, under a "Time,<state…>" header.
type CSVLogger struct {
	fileName string
	path     string

	file   *os.File
	writer *csv.Writer
	states []sim.State
	row    []string
}

// NewCSVLogger creates a CSVLogger writing fileName inside the output folder.
func NewCSVLogger(fileName string) *CSVLogger {
	if fileName == "" {
		fileName = DefaultCSVFile
	}
	return &CSVLogger{fileName: fileName}
}

// Path returns the file written by the last Initialize.
func (l *CSVLogger) Path() string {
	return l.path
}

func (l *CSVLogger) WritesToDisk() bool { return true }

func (l *CSVLogger) Initialize(outputFolder string, s *sim.Simulation) error {
	l.path = filepath.Join(outputFolder, l.fileName)
	file, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("creating population table: %w", err)
	}
	l.file = file
	l.writer = csv.NewWriter(file)
	l.states = populations(s)
	l.row = make([]string, len(l.states)+1)

	header := append([]string{"Time"}, names(l.states)...)
	if err := l.writer.Write(header); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing CSV header: %w", err)
	}
	return nil
}

func (l *CSVLogger) WriteLog(time float64) error {
	l.row[0] = strconv.FormatFloat(time, 'g', -1, 64)
	for i, st := range l.states {
		l.row[i+1] = strconv.FormatUint(st.Num(), 10)
	}
	if err := l.writer.Write(l.row); err != nil {
		return fmt.Errorf("writing CSV row at t=%g: %w", time, err)
	}
	return nil
}

func (l *CSVLogger) Uninitialize() error {
	if l.file == nil {
		return nil
	}
	l.writer.Flush()
	werr := l.writer.Error()
	cerr := l.file.Close()
	l.file, l.writer = nil, nil
	if werr != nil {
		return fmt.Errorf("flushing population table: %w", werr)
	}
	return cerr
}
