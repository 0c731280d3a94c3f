package loggers

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVLogger_WritesHeaderAndGridRows(t *testing.T) {
	// GIVEN a decay model logging to a CSV table
	dir := t.TempDir()
	s := newDecay(t, dir, 100, 0.1)
	l := NewCSVLogger("")
	require.NoError(t, s.AddLogger(l))

	// WHEN it runs past the last grid point
	require.NoError(t, s.Run(10.5))

	// THEN the table has the header, 11 grid rows and the final row
	assert.Equal(t, filepath.Join(dir, DefaultCSVFile), l.Path())
	f, err := os.Open(l.Path())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 1+11+1)
	assert.Equal(t, []string{"Time", "A", "B"}, records[0], "choice states are not sampled")
	assert.Equal(t, []string{"0", "100", "0"}, records[1])
	assert.Equal(t, "10.5", records[len(records)-1][0])
	for i, row := range records[1:] {
		a, err := strconv.Atoi(row[1])
		require.NoError(t, err)
		b, err := strconv.Atoi(row[2])
		require.NoError(t, err)
		assert.Equal(t, 100, a+b, "row %d", i)
	}
	for i := 1; i <= 11; i++ {
		assert.Equal(t, strconv.Itoa(i-1), records[i][0])
	}
}

func TestCSVLogger_MissingFolder_InitializeFails(t *testing.T) {
	s := newDecay(t, t.TempDir(), 1, 0)
	l := NewCSVLogger("out.csv")
	err := l.Initialize(filepath.Join(t.TempDir(), "missing", "deeper"), s)
	assert.Error(t, err)
	assert.NoError(t, l.Uninitialize(), "uninitialize after a failed initialize is a no-op")
}
