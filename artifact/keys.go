package artifact

import (
	"fmt"
	"strconv"
	"strings"
)

// Key identifies one pipeline artifact independently of where it is stored.
// Layout turns a Key into a path.
type Key interface {
	artifactKey()
}

// GenePvalues is the gene/p-value table of a trait. Replicate 0 is the
// true-label run; replicates 1..N hold permuted p-values.
type GenePvalues struct {
	Trait     string
	Replicate int
}

// ModuleFile is the module membership file of one network.
type ModuleFile struct {
	Network string
}

// MasterSummary is the merged module-significance table. An empty
// Identifier names the default table consumed by the sweeps.
type MasterSummary struct {
	Identifier string
}

// GOEnrichment is the per-module GO enrichment table. Trait is the
// permutation-tagged trait ("0-maleWC", "17-maleWC").
type GOEnrichment struct {
	Study   string
	Trait   string
	Network string
	Module  int
}

// ORSummary is the per-threshold passing count table of the true-label run.
type ORSummary struct {
	Trait   string
	Network string
}

// ORGenes holds the passing gene lists of the true-label run.
type ORGenes struct {
	Trait   string
	Network string
}

// ReplicateCount is the checkpoint of one permutation replicate at one
// threshold, written as soon as the replicate completes.
type ReplicateCount struct {
	Trait     string
	Network   string
	Threshold string
	Replicate int
}

// NullCounts is the per-threshold table of every replicate's passing count.
type NullCounts struct {
	Trait        string
	Network      string
	Threshold    string
	Permutations int
}

// NullSummary is the one-row digest of a NullCounts table.
type NullSummary struct {
	Trait        string
	Network      string
	Threshold    string
	Permutations int
}

// FDRSummary is the empirical FDR table across thresholds.
type FDRSummary struct {
	Trait        string
	Network      string
	Permutations int
}

// FishnetGenes is the final gene selection at one FDR cutoff.
type FishnetGenes struct {
	Trait        string
	Network      string
	Permutations int
	FDR          float64
}

// BackgroundGenes lists the trait genes found in any module of a network.
type BackgroundGenes struct {
	Algorithm string
	Network   string
}

func (GenePvalues) artifactKey()     {}
func (ModuleFile) artifactKey()      {}
func (MasterSummary) artifactKey()   {}
func (GOEnrichment) artifactKey()    {}
func (ORSummary) artifactKey()       {}
func (ORGenes) artifactKey()         {}
func (ReplicateCount) artifactKey()  {}
func (NullCounts) artifactKey()      {}
func (NullSummary) artifactKey()     {}
func (FDRSummary) artifactKey()      {}
func (FishnetGenes) artifactKey()    {}
func (BackgroundGenes) artifactKey() {}

// TaggedTrait prefixes a trait with its replicate number, the way trait
// labels appear in module-significance tables and file names.
func TaggedTrait(replicate int, trait string) string {
	return fmt.Sprintf("%d-%s", replicate, trait)
}

// UntagTrait strips a leading "{replicate}-" tag, if present.
func UntagTrait(tagged string) (replicate int, trait string, ok bool) {
	parts := strings.SplitN(tagged, "-", 2)
	if len(parts) != 2 {
		return 0, tagged, false
	}
	replicate, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, tagged, false
	}
	return replicate, parts[1], true
}

// FormatRank renders a rank threshold.
func FormatRank(rank int) string {
	return strconv.Itoa(rank)
}

// FormatPvalue renders a p-value threshold with eight decimals and trailing
// zeros removed, e.g. 0.00005 -> "0.00005", 0.2 -> "0.2".
func FormatPvalue(p float64) string {
	s := strconv.FormatFloat(p, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
