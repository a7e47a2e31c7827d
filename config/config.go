// Package config assembles a run's settings from defaults, an optional TOML
// file and FISHNET_* environment variables, in that order of precedence
// (command-line flags are applied last by the caller).
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"runtime"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/goenrich"
	"github.com/carbocation/fishnet/identify"
	"github.com/carbocation/fishnet/sweep"
	"github.com/carbocation/pfx"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)


type Config struct {
	// Store is the artifact root: a directory, gs://bucket/prefix,
	// s3://bucket/prefix or mem://.
	Store  string          `toml:"store" envconfig:"FISHNET_STORE"`
	Layout artifact.Layout `toml:"layout" envconfig:"FISHNET_LAYOUT"`

	Workers  int    `toml:"workers" envconfig:"FISHNET_WORKERS"`
	LogLevel string `toml:"log_level" envconfig:"FISHNET_LOG_LEVEL"`

	GOFDRCutoff       float64   `toml:"go_fdr_cutoff" envconfig:"FISHNET_GO_FDR_CUTOFF"`
	RankFraction      float64   `toml:"rank_fraction" envconfig:"FISHNET_RANK_FRACTION"`
	RankStep          int       `toml:"rank_step" envconfig:"FISHNET_RANK_STEP"`
	CandidateFraction float64   `toml:"candidate_fraction" envconfig:"FISHNET_CANDIDATE_FRACTION"`
	PvalueLadder      []float64 `toml:"pvalue_ladder" envconfig:"FISHNET_PVALUE_LADDER"`

	Permutations int    `toml:"permutations" envconfig:"FISHNET_PERMUTATIONS"`
	Seed         uint64 `toml:"seed" envconfig:"FISHNET_SEED"`
	Resume       bool   `toml:"resume" envconfig:"FISHNET_RESUME"`

	IdentifyFDR          float64 `toml:"identify_fdr" envconfig:"FISHNET_IDENTIFY_FDR"`
	IdentifyPercentile   float64 `toml:"identify_percentile" envconfig:"FISHNET_IDENTIFY_PERCENTILE"`
	IdentifyRankFraction float64 `toml:"identify_rank_fraction" envconfig:"FISHNET_IDENTIFY_RANK_FRACTION"`

	// MetricsFile, if set, receives the run's counters in Prometheus
	// textfile format.
	MetricsFile string `toml:"metrics_file" envconfig:"FISHNET_METRICS_FILE"`
}

// Default returns the production settings.
func Default() Config {
	return Config{
		Store:                ".",
		Layout:               artifact.DefaultLayout(),
		Workers:              runtime.NumCPU(),
		LogLevel:             "info",
		GOFDRCutoff:          goenrich.DefaultFDRCutoff,
		RankFraction:         sweep.DefaultRankFraction,
		RankStep:             sweep.DefaultRankStep,
		CandidateFraction:    sweep.DefaultCandidateFraction,
		PvalueLadder:         append([]float64(nil), sweep.DefaultPvalueLadder...),
		Permutations:         5000,
		Seed:                 1,
		IdentifyFDR:          0.05,
		IdentifyPercentile:   99,
		IdentifyRankFraction: identify.DefaultRankFraction,
	}
}

// Load layers the TOML file at path (skipped if path is empty) and the
// environment over the defaults, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		expanded, err := fishnet.ExpandHome(path)
		if err != nil {
			return cfg, err
		}

		b, err := ioutil.ReadFile(expanded)
		if err != nil {
			return cfg, pfx.Err(err)
		}

		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, pfx.Err(fmt.Errorf("parsing %s: %w", path, err))
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, pfx.Err(err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings no run could use.
func (c Config) Validate() error {
	var errs []error

	if c.Store == "" {
		errs = append(errs, errors.New("store cannot be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Permutations < 1 {
		errs = append(errs, fmt.Errorf("permutations must be positive, got %d", c.Permutations))
	}
	if c.RankStep < 1 {
		errs = append(errs, fmt.Errorf("rank_step must be positive, got %d", c.RankStep))
	}

	fractions := []struct {
		name  string
		value float64
	}{
		{"go_fdr_cutoff", c.GOFDRCutoff},
		{"rank_fraction", c.RankFraction},
		{"candidate_fraction", c.CandidateFraction},
		{"identify_fdr", c.IdentifyFDR},
		{"identify_rank_fraction", c.IdentifyRankFraction},
	}
	for _, f := range fractions {
		if !inUnitInterval(f.value) {
			errs = append(errs, fmt.Errorf("%s must be in (0, 1], got %v", f.name, f.value))
		}
	}

	if c.IdentifyPercentile < 0 || c.IdentifyPercentile > 100 || math.IsNaN(c.IdentifyPercentile) {
		errs = append(errs, fmt.Errorf("identify_percentile must be in [0, 100], got %v", c.IdentifyPercentile))
	}

	if len(c.PvalueLadder) == 0 {
		errs = append(errs, errors.New("pvalue_ladder cannot be empty"))
	}
	for _, t := range c.PvalueLadder {
		if !inUnitInterval(t) {
			errs = append(errs, fmt.Errorf("pvalue_ladder value %v is not in (0, 1]", t))
		}
	}

	return errors.Join(errs...)
}

func inUnitInterval(v float64) bool {
	return v > 0 && v <= 1
}
