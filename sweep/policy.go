package sweep

import (
	"fmt"
	"strings"

	"github.com/carbocation/fishnet/artifact"
	"github.com/carbocation/fishnet/modulesig"
	"github.com/carbocation/fishnet/rankedgenes"
)

// Variant selects how a threshold turns into a candidate set and a module
// selection.
type Variant int

const (
	// RankLadder admits the top-t genes at threshold t and uses every
	// enriched module.
	RankLadder Variant = iota
	// PvalueLadder admits a fixed top fraction of genes and keeps only
	// modules whose Bonferroni p-value is at or below t.
	PvalueLadder
)

func (v Variant) String() string {
	switch v {
	case RankLadder:
		return "rank"
	case PvalueLadder:
		return "pvalue"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant accepts "rank" or "pvalue".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rank", "or", "original":
		return RankLadder, nil
	case "pvalue", "bonferroni", "alternate":
		return PvalueLadder, nil
	}
	return RankLadder, fmt.Errorf("unknown ladder variant %q", s)
}

const (
	DefaultRankFraction      = 0.25
	DefaultRankStep          = 10
	DefaultCandidateFraction = 0.05
)

// DefaultPvalueLadder holds the module Bonferroni cutoffs of the p-value
// ladder.
var DefaultPvalueLadder = []float64{0.00005, 0.0001, 0.005, 0.01, 0.05, 0.1, 0.15, 0.20, 0.25}

// Ladder returns step, 2*step, ... below end = int(n*fraction), followed by
// end itself. An end below 1 gives an empty ladder.
func Ladder(n int, fraction float64, step int) []int {
	end := rankedgenes.FractionRank(n, fraction)
	if end < 1 || step < 1 {
		return []int{}
	}

	out := make([]int, 0, end/step+1)
	for t := step; t < end; t += step {
		out = append(out, t)
	}
	if len(out) == 0 || out[len(out)-1] != end {
		out = append(out, end)
	}

	return out
}

// Policy fixes the thresholds of a sweep and how each one is applied.
type Policy struct {
	Variant    Variant
	Thresholds []float64
	// CandidateFraction is the share of top genes admitted at every
	// threshold of a PvalueLadder.
	CandidateFraction float64
}

// RankPolicy builds the rank ladder for a table of n genes.
func RankPolicy(n int, fraction float64, step int) Policy {
	ranks := Ladder(n, fraction, step)
	thresholds := make([]float64, len(ranks))
	for i, r := range ranks {
		thresholds[i] = float64(r)
	}
	return Policy{Variant: RankLadder, Thresholds: thresholds}
}

// PvaluePolicy applies ladder with a top-fraction candidate set.
func PvaluePolicy(ladder []float64, candidateFraction float64) Policy {
	return Policy{
		Variant:           PvalueLadder,
		Thresholds:        append([]float64(nil), ladder...),
		CandidateFraction: candidateFraction,
	}
}

// Candidates returns the genes admitted at threshold.
func (p Policy) Candidates(genes *rankedgenes.Set, threshold float64) []string {
	if p.Variant == PvalueLadder {
		return genes.TopFraction(p.CandidateFraction)
	}
	return genes.Top(int(threshold))
}

// Filter narrows base to the modules eligible at threshold.
func (p Policy) Filter(base modulesig.Filter, threshold float64) modulesig.Filter {
	if p.Variant == PvalueLadder {
		return base.WithCutoff(threshold)
	}
	return base
}

// Denominator is what a passing count is divided by to give its fraction.
func (p Policy) Denominator(threshold float64, candidates int) float64 {
	if p.Variant == PvalueLadder {
		return float64(candidates)
	}
	return threshold
}

// FormatThreshold renders threshold the way file names carry it.
func (p Policy) FormatThreshold(threshold float64) string {
	if p.Variant == PvalueLadder {
		return artifact.FormatPvalue(threshold)
	}
	return artifact.FormatRank(int(threshold))
}
