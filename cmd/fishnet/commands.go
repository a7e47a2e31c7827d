package main

import (
	"bufio"
	"fmt"
	"io"
	"path"

	"github.com/carbocation/fishnet/aggregate"
	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/empirical"
	"github.com/carbocation/fishnet/identify"
	"github.com/carbocation/fishnet/modules"
	"github.com/carbocation/fishnet/permutation"
	"github.com/carbocation/fishnet/randomize"
	"github.com/carbocation/fishnet/sweep"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func traitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "trait", Required: true, Usage: "Trait name, without a permutation tag"},
		&cli.StringFlag{Name: "network", Required: true, Usage: "Network (module file) name"},
	}
}

func variantFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "variant",
		Value: sweep.RankLadder.String(),
		Usage: "Threshold ladder: rank or pvalue",
	}
}

func permutationsFlag() cli.Flag {
	return &cli.IntFlag{Name: "permutations", Usage: "Number of permuted replicates (default from config)"}
}

func permutations(c *cli.Context, e *env) int {
	if c.IsSet("permutations") {
		return c.Int("permutations")
	}
	return e.cfg.Permutations
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Count MEA passing genes of the true-label run at every threshold",
		Flags: append(traitFlags(),
			&cli.StringFlag{Name: "study", Usage: "GO study label (default: the trait)"},
			&cli.StringFlag{Name: "master", Usage: "Identifier of the master summary to read (default: master_summary.csv)"},
			variantFlag(),
		),
		Action: action(func(c *cli.Context, e *env) error {
			variant, err := sweep.ParseVariant(c.String("variant"))
			if err != nil {
				return err
			}

			genes, err := e.genes(c.Context, c.String("trait"), 0)
			if err != nil {
				return err
			}
			sig, err := e.significance(c.Context, c.String("master"))
			if err != nil {
				return err
			}

			in := sweep.Input{
				Trait:        c.String("trait"),
				Study:        c.String("study"),
				Network:      c.String("network"),
				Genes:        genes,
				Significance: sig,
			}
			policy := e.policy(variant, genes.Len())

			engine := &sweep.Engine{
				Calculator: e.calculator(),
				Workers:    e.cfg.Workers,
				Log:        e.log,
				Metrics:    e.metrics,
			}
			rows, err := engine.Run(c.Context, policy, in)
			if err != nil {
				return err
			}

			return sweep.Write(c.Context, e.store, e.cfg.Layout, policy, in, rows)
		}),
	}
}

func permuteCommand() *cli.Command {
	return &cli.Command{
		Name:  "permute",
		Usage: "Build the null distribution of passing counts from permuted replicates",
		Flags: append(traitFlags(),
			&cli.StringFlag{Name: "study", Usage: "GO study label (default: the trait)"},
			&cli.StringFlag{Name: "master", Usage: "Identifier of the master summary to read (default: master_summary.csv)"},
			&cli.Float64SliceFlag{Name: "threshold", Usage: "Threshold(s) to permute. Omit for the whole ladder."},
			&cli.BoolFlag{Name: "resume", Usage: "Reuse replicate checkpoints already in the store"},
			permutationsFlag(),
			variantFlag(),
		),
		Action: action(func(c *cli.Context, e *env) error {
			variant, err := sweep.ParseVariant(c.String("variant"))
			if err != nil {
				return err
			}

			// The rank ladder is always derived from the true-label table.
			genes, err := e.genes(c.Context, c.String("trait"), 0)
			if err != nil {
				return err
			}
			sig, err := e.significance(c.Context, c.String("master"))
			if err != nil {
				return err
			}
			policy := e.policy(variant, genes.Len())

			thresholds := policy.Thresholds
			if c.IsSet("threshold") {
				thresholds = c.Float64Slice("threshold")
			}

			engine := &permutation.Engine{
				Calculator: e.calculator(),
				Store:      e.store,
				Layout:     e.cfg.Layout,
				Workers:    e.cfg.Workers,
				Resume:     e.cfg.Resume || c.Bool("resume"),
				Log:        e.log,
				Metrics:    e.metrics,
			}

			for _, t := range thresholds {
				in := permutation.Input{
					Trait:        c.String("trait"),
					Network:      c.String("network"),
					Study:        c.String("study"),
					Threshold:    t,
					Permutations: permutations(c, e),
					Significance: sig,
				}

				out, err := engine.Run(c.Context, policy, in)
				if err != nil {
					return err
				}
				if err := engine.Write(c.Context, policy, in, out); err != nil {
					return err
				}
				e.metrics.ThresholdDone()

				e.log.WithFields(logrus.Fields{
					"trait":     in.Trait,
					"network":   in.Network,
					"threshold": policy.FormatThreshold(t),
				}).Info("Null distribution written")
			}

			return nil
		}),
	}
}

func summarizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Compare observed passing counts against their null distributions",
		Flags: append(traitFlags(), permutationsFlag(), variantFlag()),
		Action: action(func(c *cli.Context, e *env) error {
			variant, err := sweep.ParseVariant(c.String("variant"))
			if err != nil {
				return err
			}
			policy := e.policy(variant, 0)

			in := empirical.ReportInput{
				Trait:        c.String("trait"),
				Network:      c.String("network"),
				Permutations: permutations(c, e),
				Format:       policy.FormatThreshold,
			}

			rep := &empirical.Reporter{Store: e.store, Layout: e.cfg.Layout, Log: e.log}
			rows, err := rep.Report(c.Context, in)
			if err != nil {
				return err
			}

			return rep.Write(c.Context, in, rows)
		}),
	}
}

func identifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "identify",
		Usage: "Select the FISHNET genes of a finished run",
		Flags: append(traitFlags(),
			permutationsFlag(),
			&cli.Float64Flag{Name: "fdr", Usage: "Maximum empirical FDR (default from config)"},
			&cli.Float64Flag{Name: "percentile", Usage: "Minimum percentile of the observed count (default from config)"},
		),
		Action: action(func(c *cli.Context, e *env) error {
			criteria := identify.Criteria{
				FDR:          e.cfg.IdentifyFDR,
				Percentile:   e.cfg.IdentifyPercentile,
				RankFraction: e.cfg.IdentifyRankFraction,
			}
			if c.IsSet("fdr") {
				criteria.FDR = c.Float64("fdr")
			}
			if c.IsSet("percentile") {
				criteria.Percentile = c.Float64("percentile")
			}

			id := &identify.Identifier{Store: e.store, Layout: e.cfg.Layout, Log: e.log}
			row, err := id.Run(c.Context, identify.Input{
				Trait:        c.String("trait"),
				Network:      c.String("network"),
				Permutations: permutations(c, e),
				Criteria:     criteria,
			})
			if err != nil {
				return err
			}
			if row != nil {
				fmt.Fprintf(c.App.Writer, "%s\t%s\t%d genes\n", row.Trait, row.Network, row.NumFISHNETGenes)
			}

			return nil
		}),
	}
}

func randomizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "randomize",
		Usage: "Write permuted gene tables with uniformly drawn p-values",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "trait", Required: true, Usage: "Trait name, without a permutation tag"},
			&cli.Uint64Flag{Name: "seed", Usage: "Random seed (default from config)"},
			permutationsFlag(),
		},
		Action: action(func(c *cli.Context, e *env) error {
			seed := e.cfg.Seed
			if c.IsSet("seed") {
				seed = c.Uint64("seed")
			}

			r := &randomize.Randomizer{Store: e.store, Layout: e.cfg.Layout, Seed: seed, Log: e.log}
			return r.Replicates(c.Context, c.String("trait"), permutations(c, e))
		}),
	}
}

func backgroundCommand() *cli.Command {
	return &cli.Command{
		Name:  "background",
		Usage: "List the trait genes present in any module of each network",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "trait", Required: true, Usage: "Trait name, without a permutation tag"},
			&cli.StringSliceFlag{Name: "network", Required: true, Usage: "Network name. May be repeated."},
			&cli.StringFlag{Name: "algorithm", Usage: "Module algorithm label (default: the module directory name)"},
		},
		Action: action(func(c *cli.Context, e *env) error {
			algorithm := c.String("algorithm")
			if algorithm == "" {
				algorithm = path.Base(e.cfg.Layout.Modules)
			}

			genes, err := e.genes(c.Context, c.String("trait"), 0)
			if err != nil {
				return err
			}

			for _, network := range c.StringSlice("network") {
				ix, err := e.modules.Get(c.Context, network)
				if err != nil {
					return err
				}

				background := modules.Background(ix, genes.Symbols())
				key := artifact.BackgroundGenes{Algorithm: algorithm, Network: network}
				err = artifact.WriteFunc(c.Context, e.store, e.cfg.Layout.Path(key), func(w io.Writer) error {
					bw := bufio.NewWriter(w)
					for _, g := range background {
						if _, err := fmt.Fprintln(bw, g); err != nil {
							return err
						}
					}
					return bw.Flush()
				})
				if err != nil {
					return err
				}

				e.log.WithFields(logrus.Fields{
					"network": network,
					"genes":   len(background),
				}).Info("Background written")
			}

			return nil
		}),
	}
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:  "merge",
		Usage: "Merge module-significance shards into one master summary",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prefix", Required: true, Usage: "Store prefix holding the shard CSV files"},
			&cli.StringFlag{Name: "identifier", Usage: "Output is master_summary_{identifier}.csv, or master_summary.csv when empty"},
		},
		Action: action(func(c *cli.Context, e *env) error {
			out, err := aggregate.Merge(c.Context, e.store, e.cfg.Layout, c.String("prefix"), c.String("identifier"), e.log)
			if err != nil {
				return err
			}

			e.log.WithField("path", out).Info("Master summary written")
			return nil
		}),
	}
}
