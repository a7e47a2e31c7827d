package main

import (
	"context"

	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/config"
	"github.com/carbocation/fishnet/goenrich"
	"github.com/carbocation/fishnet/mea"
	"github.com/carbocation/fishnet/metrics"
	"github.com/carbocation/fishnet/modules"
	"github.com/carbocation/fishnet/modulesig"
	"github.com/carbocation/fishnet/rankedgenes"
	"github.com/carbocation/fishnet/sweep"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// env is what every subcommand shares: settings, storage, the lookup caches
// and counters.
type env struct {
	cfg     config.Config
	store   artifact.Store
	log     *logrus.Logger
	metrics *metrics.Collector

	modules   *modules.Cache
	universes *goenrich.Cache
}

func newEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("store") {
		cfg.Store = c.String("store")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	store, err := artifact.Open(c.Context, cfg.Store)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:       cfg,
		store:     store,
		log:       log,
		metrics:   metrics.New(),
		modules:   modules.NewCache(store, cfg.Layout),
		universes: goenrich.NewCache(store, cfg.Layout, cfg.GOFDRCutoff),
	}, nil
}

func (e *env) calculator() *mea.Calculator {
	return &mea.Calculator{
		Modules:   e.modules,
		Universes: e.universes,
		Log:       e.log,
		Metrics:   e.metrics,
	}
}

// policy builds the threshold policy of variant for a table of n genes.
func (e *env) policy(variant sweep.Variant, n int) sweep.Policy {
	if variant == sweep.PvalueLadder {
		return sweep.PvaluePolicy(e.cfg.PvalueLadder, e.cfg.CandidateFraction)
	}
	return sweep.RankPolicy(n, e.cfg.RankFraction, e.cfg.RankStep)
}

func (e *env) genes(ctx context.Context, trait string, replicate int) (*rankedgenes.Set, error) {
	path := e.cfg.Layout.Path(artifact.GenePvalues{Trait: trait, Replicate: replicate})
	rc, err := artifact.OpenArtifact(ctx, e.store, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return rankedgenes.Read(path, rc)
}

func (e *env) significance(ctx context.Context, identifier string) (*modulesig.Table, error) {
	path := e.cfg.Layout.Path(artifact.MasterSummary{Identifier: identifier})
	rc, err := artifact.OpenArtifact(ctx, e.store, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return modulesig.Read(path, rc)
}

// finish writes the counters, if configured.
func (e *env) finish() error {
	return e.metrics.WriteTextfile(e.cfg.MetricsFile)
}

// action wraps a subcommand so structural errors exit non-zero.
func action(run func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := newEnv(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		if err := run(c, e); err != nil {
			return cli.Exit(err.Error(), 1)
		}

		if err := e.finish(); err != nil {
			return cli.Exit(err.Error(), 1)
		}

		return nil
	}
}
