package empirical

import (
	"context"
	"errors"
	"io"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/tables"
	"github.com/sirupsen/logrus"
)

// Row is one threshold of the empirical FDR report.
type Row struct {
	Threshold float64
	Summary
	FDR                float64
	Observed           int
	ObservedPercentile float64
}

// Compute digests one threshold's null counts against the observed count.
func Compute(threshold float64, null []int, observed int) Row {
	x := make([]float64, len(null))
	for i, v := range null {
		x[i] = float64(v)
	}

	s := Summarize(x)
	return Row{
		Threshold:          threshold,
		Summary:            s,
		FDR:                FDR(s.Mean, observed),
		Observed:           observed,
		ObservedPercentile: PercentileOfScore(x, float64(observed)),
	}
}

// TableRow converts r to its persisted form.
func (r Row) TableRow() tables.FDRSummaryRow {
	return tables.FDRSummaryRow{
		Ranks:              tables.Threshold(r.Threshold),
		Average:            tables.Float(r.Mean),
		Median:             tables.Float(r.Median),
		SD:                 tables.Float(r.SD),
		ConfidenceInterval: tables.Interval{Lower: r.Lower, Upper: r.Upper},
		Percentile90:       tables.Float(r.P90),
		Percentile95:       tables.Float(r.P95),
		FDR:                tables.Float(r.FDR),
		NumMEAPassing:      r.Observed,
		ObservedPercentile: tables.Float(r.ObservedPercentile),
	}
}

// ReadNullCounts loads the replicate counts persisted for one threshold.
func ReadNullCounts(ctx context.Context, store artifact.Store, layout artifact.Layout, key artifact.NullCounts) ([]int, error) {
	path := layout.Path(key)
	rc, err := artifact.OpenArtifact(ctx, store, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows := make([]tables.ReplicateRow, 0)
	if err := tables.Read(path, rc, &rows, tables.ReplicateColumns...); err != nil {
		return nil, err
	}

	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Count
	}
	return out, nil
}

// Reporter builds the FDR summary of a trait and network from the
// true-label summary and the per-threshold null tables.
type Reporter struct {
	Store  artifact.Store
	Layout artifact.Layout
	Log    logrus.FieldLogger
}

// ReportInput names the run to summarize. Format renders a threshold the
// way the null tables' file names carry it.
type ReportInput struct {
	Trait        string
	Network      string
	Permutations int
	Format       func(threshold float64) string
}

// Report computes one Row per threshold of the true-label summary, in the
// order that summary lists them. A threshold whose null table is missing is
// logged and left out.
func (rep *Reporter) Report(ctx context.Context, in ReportInput) ([]Row, error) {
	log := rep.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	path := rep.Layout.Path(artifact.ORSummary{Trait: in.Trait, Network: in.Network})
	rc, err := artifact.OpenArtifact(ctx, rep.Store, path)
	if err != nil {
		return nil, err
	}
	observed := make([]tables.ORSummaryRow, 0)
	err = tables.Read(path, rc, &observed, tables.ORSummaryColumns...)
	rc.Close()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(observed))
	for _, o := range observed {
		threshold := float64(o.Threshold)
		key := artifact.NullCounts{
			Trait:        in.Trait,
			Network:      in.Network,
			Threshold:    in.Format(threshold),
			Permutations: in.Permutations,
		}

		null, err := ReadNullCounts(ctx, rep.Store, rep.Layout, key)
		var ma *fishnet.MissingArtifactError
		if errors.As(err, &ma) {
			log.WithFields(logrus.Fields{
				"trait":     in.Trait,
				"network":   in.Network,
				"threshold": key.Threshold,
				"key":       ma.Path,
			}).Warn("No null distribution for threshold, skipping")
			continue
		} else if err != nil {
			return nil, err
		}

		out = append(out, Compute(threshold, null, o.Count))
	}

	return out, nil
}

// Write persists rows as the FDR summary table.
func (rep *Reporter) Write(ctx context.Context, in ReportInput, rows []Row) error {
	path := rep.Layout.Path(artifact.FDRSummary{Trait: in.Trait, Network: in.Network, Permutations: in.Permutations})
	return artifact.WriteFunc(ctx, rep.Store, path, func(w io.Writer) error {
		out := make([]tables.FDRSummaryRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.TableRow())
		}
		return tables.Write(w, out)
	})
}

// ReadReport loads a persisted FDR summary table.
func ReadReport(ctx context.Context, store artifact.Store, layout artifact.Layout, key artifact.FDRSummary) ([]tables.FDRSummaryRow, error) {
	path := layout.Path(key)
	rc, err := artifact.OpenArtifact(ctx, store, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows := make([]tables.FDRSummaryRow, 0)
	if err := tables.Read(path, rc, &rows, tables.FDRSummaryColumns...); err != nil {
		return nil, err
	}
	return rows, nil
}
