package sim

import (
	"errors"
	"fmt"
)

// LoggerTask is a sampling sink driven by the LogManager.
type LoggerTask interface {
	// Initialize prepares the task; outputFolder is empty when no task
	// writes to disk.
	Initialize(outputFolder string, sim *Simulation) error
	// WriteLog records one sample at the given time.
	WriteLog(time float64) error
	// Uninitialize flushes and releases the task's resources.
	Uninitialize() error
	// WritesToDisk reports whether the task needs the output folder.
	WritesToDisk() bool
}

// DefaultLogPeriod is the sampling interval used until SetLogPeriod is called.
const DefaultLogPeriod = 1.0

// LogManager emits samples on the fixed grid 0, p, 2p, … and always before
// the state change that follows the grid point, so a sample at g reflects the
// state held over the whole interval up to g.
type LogManager struct {
	period   float64
	gridStep int64
	tasks    []LoggerTask
}

// NewLogManager creates a LogManager with DefaultLogPeriod.
func NewLogManager() *LogManager {
	return &LogManager{period: DefaultLogPeriod}
}

// Period returns the sampling interval.
func (lm *LogManager) Period() float64 {
	return lm.period
}

// LastLogTime returns the last grid point written.
func (lm *LogManager) LastLogTime() float64 {
	return float64(lm.gridStep) * lm.period
}

// Tasks returns the registered tasks in registration order.
func (lm *LogManager) Tasks() []LoggerTask {
	return lm.tasks
}

// Initialize prepares every task and writes the sample at time 0.
func (lm *LogManager) Initialize(outputFolder string, sim *Simulation) error {
	lm.gridStep = 0
	for i, task := range lm.tasks {
		if err := task.Initialize(outputFolder, sim); err != nil {
			// release what was already set up
			for _, done := range lm.tasks[:i] {
				_ = done.Uninitialize()
			}
			return fmt.Errorf("initialize logger %T: %w", task, err)
		}
	}
	return lm.write(0)
}

// NotifyBeforeChange writes one sample for every grid point strictly before
// time that has not been written yet.
func (lm *LogManager) NotifyBeforeChange(time float64) error {
	for float64(lm.gridStep+1)*lm.period < time {
		lm.gridStep++
		if err := lm.write(lm.LastLogTime()); err != nil {
			return err
		}
	}
	return nil
}

// Uninitialize catches up to finalTime, writes the unconditional final
// sample, and releases every task. When flush is false (aborted run) no
// further samples are written.
func (lm *LogManager) Uninitialize(finalTime float64, flush bool) error {
	var errs []error
	if flush {
		if err := lm.NotifyBeforeChange(finalTime); err != nil {
			errs = append(errs, err)
		} else if err := lm.write(finalTime); err != nil {
			errs = append(errs, err)
		}
	}
	for _, task := range lm.tasks {
		if err := task.Uninitialize(); err != nil {
			errs = append(errs, fmt.Errorf("uninitialize logger %T: %w", task, err))
		}
	}
	return errors.Join(errs...)
}

func (lm *LogManager) writesToDisk() bool {
	for _, task := range lm.tasks {
		if task.WritesToDisk() {
			return true
		}
	}
	return false
}

func (lm *LogManager) write(time float64) error {
	for _, task := range lm.tasks {
		if err := task.WriteLog(time); err != nil {
			return fmt.Errorf("logger %T at t=%g: %w", task, time, err)
		}
	}
	return nil
}
