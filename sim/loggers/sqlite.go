package loggers

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/reactsim/reactsim/sim"
)

// DefaultSQLiteFile is the database written by SQLiteLogger when no name is given.
const DefaultSQLiteFile = "samples.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS samples (
	time  REAL    NOT NULL,
	state TEXT    NOT NULL,
	count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_state_time ON samples (state, time);
DELETE FROM samples;`

// SQLiteLogger stores every sample as (time, state, count) rows in a SQLite
// database. A run is written inside one transaction, committed at
// Uninitialize; a rerun replaces the previous run's rows.
type SQLiteLogger struct {
	fileName string
	path     string

	db     *sql.DB
	tx     *sql.Tx
	insert *sql.Stmt
	states []sim.State
}

// NewSQLiteLogger creates a SQLiteLogger writing fileName inside the output folder.
func NewSQLiteLogger(fileName string) *SQLiteLogger {
	if fileName == "" {
		fileName = DefaultSQLiteFile
	}
	return &SQLiteLogger{fileName: fileName}
}

// Path returns the database written by the last Initialize.
func (l *SQLiteLogger) Path() string {
	return l.path
}

func (l *SQLiteLogger) WritesToDisk() bool { return true }

func (l *SQLiteLogger) Initialize(outputFolder string, s *sim.Simulation) error {
	l.path = filepath.Clean(filepath.Join(outputFolder, l.fileName))
	db, err := sql.Open("sqlite", l.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return fmt.Errorf("create samples table: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("begin transaction: %w", err)
	}
	insert, err := tx.Prepare(`INSERT INTO samples (time, state, count) VALUES (?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		_ = db.Close()
		return fmt.Errorf("prepare insert: %w", err)
	}
	l.db, l.tx, l.insert = db, tx, insert
	l.states = populations(s)
	return nil
}

func (l *SQLiteLogger) WriteLog(time float64) error {
	for _, st := range l.states {
		if _, err := l.insert.Exec(time, st.Name(), int64(st.Num())); err != nil {
			return fmt.Errorf("insert sample %s at t=%g: %w", st.Name(), time, err)
		}
	}
	return nil
}

func (l *SQLiteLogger) Uninitialize() error {
	if l.db == nil {
		return nil
	}
	defer func() {
		_ = l.db.Close()
		l.db, l.tx, l.insert = nil, nil, nil
	}()
	_ = l.insert.Close()
	if err := l.tx.Commit(); err != nil {
		return fmt.Errorf("commit samples: %w", err)
	}
	return nil
}
