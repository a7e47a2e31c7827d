// Package goenrich reduces a module's precomputed GO enrichment table to the
// set of genes annotated to a significantly enriched term.
package goenrich

import (
	"io"
	"sort"
	"strings"

	"github.com/carbocation/fishnet/tables"
)

// DefaultFDRCutoff is the enrichment FDR at or below which a GO term
// contributes its genes.
const DefaultFDRCutoff = 0.05

// Row is one GO term of a per-module enrichment table.
type Row struct {
	GeneSet     string       `csv:"geneSet"`
	Description string       `csv:"description"`
	Size        tables.Float `csv:"size"`
	Overlap     tables.Float `csv:"overlap"`
	FDR         tables.Float `csv:"FDR"`
	UserID      string       `csv:"userId"`
}

// Columns must all be present in an enrichment table.
var Columns = []string{"geneSet", "description", "size", "overlap", "FDR", "userId"}

// Universe is the set of genes annotated to any qualifying term.
type Universe map[string]struct{}

// Read parses an enrichment table. A table with no rows is valid.
func Read(source string, r io.Reader) ([]Row, error) {
	rows := make([]Row, 0)
	if err := tables.Read(source, r, &rows, Columns...); err != nil {
		return nil, err
	}

	return rows, nil
}

// Build unions the semicolon separated gene lists of every row whose FDR
// is at or below cutoff. Rows without an FDR never qualify.
func Build(rows []Row, cutoff float64) Universe {
	u := make(Universe)
	for _, row := range rows {
		if !(float64(row.FDR) <= cutoff) {
			continue
		}

		for _, gene := range strings.Split(row.UserID, ";") {
			gene = strings.TrimSpace(gene)
			if gene == "" {
				continue
			}
			u[gene] = struct{}{}
		}
	}

	return u
}

// Contains reports whether gene is in the universe.
func (u Universe) Contains(gene string) bool {
	_, ok := u[gene]
	return ok
}

// Sorted returns the genes in lexical order.
func (u Universe) Sorted() []string {
	out := make([]string, 0, len(u))
	for gene := range u {
		out = append(out, gene)
	}
	sort.Strings(out)
	return out
}
