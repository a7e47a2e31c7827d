// Package aggregate merges sharded module-significance tables into one
// master table.
package aggregate

import (
	"context"
	"io"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/tables"
	"github.com/sirupsen/logrus"
)

// SortColumn orders the merged table, ascending.
const SortColumn = "moduleBonPval"

// Merge concatenates every .csv shard under prefix, in lexical path order,
// sorts the rows by moduleBonPval and writes the result to the master
// summary named by identifier. Shards must share one header; nothing is
// written if they do not.
func Merge(ctx context.Context, store artifact.Store, layout artifact.Layout, prefix, identifier string, log logrus.FieldLogger) (string, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	paths, err := store.List(ctx, prefix)
	if err != nil {
		return "", err
	}

	dest := layout.Path(artifact.MasterSummary{Identifier: identifier})

	var merged tables.Records
	shards := 0
	for _, p := range paths {
		if path.Ext(p) != ".csv" || p == dest {
			continue
		}

		recs, err := readShard(ctx, store, p)
		if err != nil {
			return "", err
		}
		if recs.Header == nil {
			log.WithField("key", p).Debug("Skipping empty shard")
			continue
		}

		if merged.Header == nil {
			merged.Header = recs.Header
		}
		order, ok := columnOrder(merged.Header, recs.Header)
		if !ok {
			return "", &fishnet.SchemaMismatchError{Shard: p, Expected: merged.Header, Got: recs.Header}
		}

		for _, row := range recs.Rows {
			out := make([]string, len(order))
			for i, j := range order {
				out[i] = row[j]
			}
			merged.Rows = append(merged.Rows, out)
		}
		shards++
	}

	if merged.Header == nil {
		return "", &fishnet.MalformedInputError{Source: prefix, Message: "no shards to merge"}
	}

	col := merged.Column(SortColumn)
	if col < 0 {
		return "", &fishnet.MalformedInputError{Source: prefix, Missing: []string{SortColumn}}
	}
	sort.SliceStable(merged.Rows, func(i, j int) bool {
		return lessPvalue(merged.Rows[i][col], merged.Rows[j][col])
	})

	if err := artifact.WriteFunc(ctx, store, dest, func(w io.Writer) error {
		return tables.WriteRecords(w, merged)
	}); err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{"shards": shards, "rows": len(merged.Rows), "key": dest}).Info("Merged module-significance shards")

	return dest, nil
}

func readShard(ctx context.Context, store artifact.Store, p string) (tables.Records, error) {
	rc, err := artifact.OpenArtifact(ctx, store, p)
	if err != nil {
		return tables.Records{}, err
	}
	defer rc.Close()

	return tables.ReadRecords(p, rc)
}

// columnOrder maps each expected column to its position in got. Shards may
// list the same columns in a different order.
func columnOrder(expected, got []string) ([]int, bool) {
	if len(expected) != len(got) {
		return nil, false
	}

	at := make(map[string]int, len(got))
	for j, col := range got {
		at[strings.TrimSpace(col)] = j
	}

	order := make([]int, len(expected))
	for i, col := range expected {
		j, ok := at[strings.TrimSpace(col)]
		if !ok {
			return nil, false
		}
		order[i] = j
	}
	return order, true
}

// lessPvalue orders numerically with unparseable or missing values last.
func lessPvalue(a, b string) bool {
	pa, pb := parse(a), parse(b)
	if math.IsNaN(pa) {
		return false
	}
	if math.IsNaN(pb) {
		return true
	}
	return pa < pb
}

func parse(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
