// Package randomize writes permuted copies of a trait's gene table in which
// every p-value is replaced by a uniform draw, the null proxy used by the
// permutation runs.
package randomize

import (
	"context"
	"io"
	"strconv"

	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/tables"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Columns must be present in the true-label gene table.
var Columns = []string{"Genes", "p_vals"}

// Randomizer draws replicates. The same Seed always produces the same
// tables.
type Randomizer struct {
	Store  artifact.Store
	Layout artifact.Layout
	Seed   uint64
	Log    logrus.FieldLogger
}

// Replicates reads "0-{trait}" and writes "{i}-{trait}" for i in
// 1..permutations. Every other column is copied unchanged.
func (r *Randomizer) Replicates(ctx context.Context, trait string, permutations int) error {
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	path := r.Layout.Path(artifact.GenePvalues{Trait: trait, Replicate: 0})
	rc, err := artifact.OpenArtifact(ctx, r.Store, path)
	if err != nil {
		return err
	}
	recs, err := tables.ReadRecords(path, rc, Columns...)
	rc.Close()
	if err != nil {
		return err
	}

	pcol := recs.Column("p_vals")
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(r.Seed)}

	for i := 1; i <= permutations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		out := tables.Records{Header: recs.Header, Rows: make([][]string, len(recs.Rows))}
		for j, row := range recs.Rows {
			cp := append([]string(nil), row...)
			cp[pcol] = strconv.FormatFloat(uniform.Rand(), 'g', -1, 64)
			out.Rows[j] = cp
		}

		dest := r.Layout.Path(artifact.GenePvalues{Trait: trait, Replicate: i})
		if err := artifact.WriteFunc(ctx, r.Store, dest, func(w io.Writer) error {
			return tables.WriteRecords(w, out)
		}); err != nil {
			return err
		}

		if i%100 == 0 {
			log.WithFields(logrus.Fields{"trait": trait, "replicate": i}).Info("Wrote permuted gene tables")
		}
	}

	return nil
}
