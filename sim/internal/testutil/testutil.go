// Package testutil provides shared test infrastructure for the reactsim
// packages: model fixtures and tolerance assertions for stochastic results.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gonum.org/v1/gonum/stat"
)

// ModelPath returns the path of a fixture under the repository's
// testdata/models directory, failing the test if it does not exist.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/models/.
func ModelPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "models", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Model fixture %s: %v", name, err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertMeanWithin checks that the sample mean of xs lies within sigmas
// standard errors of want.
func AssertMeanWithin(t *testing.T, name string, xs []float64, want, sigmas float64) {
	t.Helper()
	if len(xs) < 2 {
		t.Fatalf("%s: need at least 2 samples, got %d", name, len(xs))
	}
	mean, std := stat.MeanStdDev(xs, nil)
	stdErr := stat.StdErr(std, float64(len(xs)))
	if math.Abs(mean-want) > sigmas*stdErr {
		t.Errorf("%s: mean %v, want %v ± %v (%g standard errors of %v)", name, mean, want, sigmas*stdErr, sigmas, stdErr)
	}
}
