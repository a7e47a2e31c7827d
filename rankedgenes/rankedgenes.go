// Package rankedgenes loads a trait's gene/p-value table and answers top-K
// queries against it.
package rankedgenes

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/pfx"
)

// NominalAlpha is the p-value at or below which a gene counts as nominally
// significant.
const NominalAlpha = 0.05

// Gene is one row of a gene/p-value table.
type Gene struct {
	Symbol string
	Pvalue float64
}

// Set is a gene list ordered by ascending p-value. Genes with equal
// p-values keep their input order and genes without a p-value sort last.
type Set struct {
	genes []Gene
}

// New sorts genes and returns them as a Set. A gene that appears twice is a
// malformed input.
func New(source string, genes []Gene) (*Set, error) {
	seen := make(map[string]struct{}, len(genes))
	sorted := make([]Gene, len(genes))
	for i, g := range genes {
		if _, dup := seen[g.Symbol]; dup {
			return nil, &fishnet.MalformedInputError{Source: source, Message: fmt.Sprintf("gene %q appears more than once", g.Symbol)}
		}
		seen[g.Symbol] = struct{}{}
		sorted[i] = g
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Pvalue, sorted[j].Pvalue
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a < b
	})

	return &Set{genes: sorted}, nil
}

// Read parses a delimited gene/p-value table. The delimiter is sniffed and
// the first two columns are taken as gene and p-value whatever their header
// says. The input may be compressed.
func Read(source string, r io.Reader) (*Set, error) {
	dr, err := fishnet.MaybeDecompress(r)
	if err != nil {
		return nil, &fishnet.MalformedInputError{Source: source, Err: err}
	}

	b, err := ioutil.ReadAll(dr)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return nil, &fishnet.MalformedInputError{Source: source, Missing: []string{"Gene", "pval"}}
	}

	cr := csv.NewReader(bytes.NewReader(b))
	cr.Comma = fishnet.SniffDelimiter(b)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &fishnet.MalformedInputError{Source: source, Err: err}
	}
	if len(header) < 2 {
		return nil, &fishnet.MalformedInputError{Source: source, Missing: []string{"Gene", "pval"}[len(header):]}
	}

	genes := make([]Gene, 0)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, &fishnet.MalformedInputError{Source: source, Err: err}
		}

		if len(row) < 2 {
			return nil, &fishnet.MalformedInputError{Source: source, Message: fmt.Sprintf("line %d has %d fields", line, len(row))}
		}

		p, err := parsePvalue(row[1])
		if err != nil {
			return nil, &fishnet.MalformedInputError{Source: source, Message: fmt.Sprintf("line %d", line), Err: err}
		}

		genes = append(genes, Gene{Symbol: strings.TrimSpace(row[0]), Pvalue: p})
	}

	return New(source, genes)
}

func parsePvalue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan":
		return math.NaN(), nil
	}

	return strconv.ParseFloat(s, 64)
}

// Len is the number of genes in the table.
func (s *Set) Len() int {
	return len(s.genes)
}

// Genes returns the sorted rows.
func (s *Set) Genes() []Gene {
	out := make([]Gene, len(s.genes))
	copy(out, s.genes)
	return out
}

// Top returns the symbols of the k most significant genes. k is clamped to
// [0, Len()].
func (s *Set) Top(k int) []string {
	if k < 0 {
		k = 0
	}
	if k > len(s.genes) {
		k = len(s.genes)
	}

	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = s.genes[i].Symbol
	}

	return out
}

// TopFraction returns the top int(Len()*fraction) genes.
func (s *Set) TopFraction(fraction float64) []string {
	return s.Top(FractionRank(s.Len(), fraction))
}

// FractionRank is the truncated rank that a fraction of n rows reaches.
func FractionRank(n int, fraction float64) int {
	return int(math.Floor(float64(n) * fraction))
}

// NominalCount counts the genes with p <= alpha.
func (s *Set) NominalCount(alpha float64) int {
	n := 0
	for _, g := range s.genes {
		if g.Pvalue <= alpha {
			n++
		}
	}
	return n
}

// Symbols returns every gene symbol in rank order.
func (s *Set) Symbols() []string {
	return s.Top(len(s.genes))
}
