package cmd

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decayConfig(t *testing.T) RunConfig {
	t.Helper()
	return RunConfig{
		ModelPath: filepath.Join("testdata", "decay.yaml"),
		Seed:      42,
		Output:    t.TempDir(),
		LogLevel:  "error",
		CSV:       true,
		Summary:   true,
	}
}

func TestRunSimulation_AllLoggers_WriteOutputs(t *testing.T) {
	// GIVEN a run with every logger and the trace enabled
	cfg := decayConfig(t)
	cfg.SQLite, cfg.Metrics, cfg.Progress, cfg.Trace = true, true, true, true
	var out bytes.Buffer

	// WHEN the simulation runs
	s, err := runSimulation(cfg, &out)
	require.NoError(t, err)

	// THEN it ran to the model's runtime and every output exists
	assert.Equal(t, 10.0, s.Clock)
	for _, name := range []string{"populations.csv", "samples.db", "reactsim.prom"} {
		_, err := os.Stat(filepath.Join(cfg.Output, name))
		assert.NoError(t, err, name)
	}
	output := out.String()
	assert.Contains(t, output, "State")
	assert.Contains(t, output, "=== Event Trace ===")
	assert.Contains(t, output, "  decay: "+strconv.Itoa(s.Counts().Propensity))
}

func TestRunSimulation_FlagsOverrideModel(t *testing.T) {
	// GIVEN runtime and log period overrides
	cfg := decayConfig(t)
	cfg.Runtime = 4.5
	cfg.LogPeriod = 0.5
	cfg.Summary = false

	// WHEN the simulation runs
	s, err := runSimulation(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	// THEN the table holds samples 0, 0.5, …, 4.0 and the final 4.5
	assert.Equal(t, 4.5, s.Clock)
	f, err := os.Open(filepath.Join(cfg.Output, "populations.csv"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+9+1)
	assert.Equal(t, "4.5", records[len(records)-1][0])
	for _, row := range records[1:] {
		a, _ := strconv.Atoi(row[1])
		b, _ := strconv.Atoi(row[2])
		assert.Equal(t, 100, a+b)
	}
}

func TestRunSimulation_SameSeed_SameResult(t *testing.T) {
	run := func(seed int64) uint64 {
		cfg := decayConfig(t)
		cfg.Seed = seed
		cfg.CSV, cfg.Summary = false, false
		s, err := runSimulation(cfg, &bytes.Buffer{})
		require.NoError(t, err)
		a, _ := s.GetState("A")
		return a.Num()
	}
	assert.Equal(t, run(5), run(5))
}

func TestRunSimulation_MissingModel_ReturnsError(t *testing.T) {
	cfg := decayConfig(t)
	cfg.ModelPath = filepath.Join(t.TempDir(), "absent.yaml")
	_, err := runSimulation(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestValidateModel_ValidFile_PrintsSummary(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, validateModel(filepath.Join("testdata", "decay.yaml"), &out))
	assert.Contains(t, out.String(), "model decay OK: 2 species, 1 propensity reactions, 0 delayed reactions")
}

func TestValidateModel_UnknownState_ReturnsError(t *testing.T) {
	// GIVEN a model whose reaction names an undeclared state
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := "species:\n  - name: A\nreactions:\n  - name: r\n    rate: \"1\"\n    products:\n      - state: Z\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	// WHEN it is validated THEN the error names the state
	err := validateModel(path, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Z"`)
}
