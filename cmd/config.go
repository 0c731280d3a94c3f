package cmd

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// RunConfig holds the settings of one `reactsim run`. Values come from
// REACTSIM_* environment variables and are overridden by flags that were set
// explicitly on the command line.
type RunConfig struct {
	ModelPath string  `env:"REACTSIM_MODEL"`
	Seed      int64   `env:"REACTSIM_SEED" envDefault:"42"`
	Runtime   float64 `env:"REACTSIM_RUNTIME"`    // 0 = model's runtime
	LogPeriod float64 `env:"REACTSIM_LOG_PERIOD"` // 0 = model's log period
	Output    string  `env:"REACTSIM_OUTPUT" envDefault:"."`
	LogLevel  string  `env:"REACTSIM_LOG_LEVEL" envDefault:"info"`

	CSV      bool `env:"REACTSIM_CSV" envDefault:"true"`
	SQLite   bool `env:"REACTSIM_SQLITE"`
	Metrics  bool `env:"REACTSIM_METRICS"`
	Progress bool `env:"REACTSIM_PROGRESS"`
	Summary  bool `env:"REACTSIM_SUMMARY" envDefault:"true"`
	Trace    bool `env:"REACTSIM_TRACE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// registerRunFlags binds every RunConfig field to a flag on fs.
func registerRunFlags(fs *pflag.FlagSet, cfg *RunConfig) {
	fs.StringVar(&cfg.ModelPath, "model", "", "Path to the YAML model description")
	fs.Int64Var(&cfg.Seed, "seed", 42, "Seed for the random source")
	fs.Float64Var(&cfg.Runtime, "runtime", 0, "Simulation runtime (0 = model's runtime)")
	fs.Float64Var(&cfg.LogPeriod, "log-period", 0, "Sampling interval (0 = model's log period)")
	fs.StringVar(&cfg.Output, "output", ".", "Folder for disk-writing loggers")
	fs.StringVar(&cfg.LogLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.BoolVar(&cfg.CSV, "csv", true, "Write the population table as CSV")
	fs.BoolVar(&cfg.SQLite, "sqlite", false, "Store samples in a SQLite database")
	fs.BoolVar(&cfg.Metrics, "metrics", false, "Write a Prometheus textfile with the final populations")
	fs.BoolVar(&cfg.Progress, "progress", false, "Log progress every 10% of the runtime")
	fs.BoolVar(&cfg.Summary, "summary", true, "Print per-state summary statistics")
	fs.BoolVar(&cfg.Trace, "trace", false, "Record every fired event and print per-reaction counts")
}

// resolveRunConfig starts from the environment and applies every flag the
// user changed.
func resolveRunConfig(fs *pflag.FlagSet, fromFlags RunConfig) (RunConfig, error) {
	var cfg RunConfig
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	overrides := []struct {
		flag  string
		apply func()
	}{
		{"model", func() { cfg.ModelPath = fromFlags.ModelPath }},
		{"seed", func() { cfg.Seed = fromFlags.Seed }},
		{"runtime", func() { cfg.Runtime = fromFlags.Runtime }},
		{"log-period", func() { cfg.LogPeriod = fromFlags.LogPeriod }},
		{"output", func() { cfg.Output = fromFlags.Output }},
		{"log", func() { cfg.LogLevel = fromFlags.LogLevel }},
		{"csv", func() { cfg.CSV = fromFlags.CSV }},
		{"sqlite", func() { cfg.SQLite = fromFlags.SQLite }},
		{"metrics", func() { cfg.Metrics = fromFlags.Metrics }},
		{"progress", func() { cfg.Progress = fromFlags.Progress }},
		{"summary", func() { cfg.Summary = fromFlags.Summary }},
		{"trace", func() { cfg.Trace = fromFlags.Trace }},
	}
	for _, o := range overrides {
		if fs.Changed(o.flag) {
			o.apply()
		}
	}
	if cfg.ModelPath == "" {
		return cfg, fmt.Errorf("model file not provided; use --model or REACTSIM_MODEL")
	}
	if cfg.Runtime < 0 {
		return cfg, fmt.Errorf("--runtime must be non-negative, got %g", cfg.Runtime)
	}
	if cfg.LogPeriod < 0 {
		return cfg, fmt.Errorf("--log-period must be non-negative, got %g", cfg.LogPeriod)
	}
	return cfg, nil
}
