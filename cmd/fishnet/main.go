// fishnet computes Module Enrichment Analysis passing genes for a trait and
// calibrates their count against a permutation null to pick the trait's
// FISHNET genes.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	// cli.Exit errors have already exited with their own code.
	if err := newApp().Run(os.Args); err != nil {
		logrus.Errorln(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fishnet",
		Usage: "MEA passing genes and their permutation-based empirical FDR",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML run file. Settings are overridden by FISHNET_* environment variables and then by flags.",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Artifact root: a directory, gs://bucket/prefix, s3://bucket/prefix or mem://",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Maximum number of thresholds or replicates evaluated concurrently",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "One of panic, fatal, error, warn, info, debug, trace",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Optional. Write run counters here in Prometheus textfile format.",
			},
		},
		Commands: []*cli.Command{
			sweepCommand(),
			permuteCommand(),
			summarizeCommand(),
			identifyCommand(),
			randomizeCommand(),
			backgroundCommand(),
			mergeCommand(),
		},
	}
}
