package artifact

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Layout maps keys to store paths. Each field is a directory relative to the
// store root; empty means the root itself. Downstream stages locate files by
// constructed name rather than by manifest, so the file names produced here
// are a compatibility contract.
type Layout struct {
	GeneSets    string
	Modules     string
	GOSummaries string
	Results     string
	Raw         string
	Replicates  string
	Summary     string
	Background  string
}

// DefaultLayout mirrors the directory tree the pipeline has always used.
func DefaultLayout() Layout {
	return Layout{
		GeneSets:    "pvals",
		Modules:     "modules",
		GOSummaries: "GO_summaries",
		Results:     "results",
		Raw:         "results/raw",
		Replicates:  "results/raw/replicates",
		Summary:     "summary",
		Background:  "background_genes",
	}
}

// Path returns the store path of k.
func (l Layout) Path(k Key) string {
	switch k := k.(type) {
	case GenePvalues:
		return join(l.GeneSets, TaggedTrait(k.Replicate, k.Trait)+".csv")
	case ModuleFile:
		return join(l.Modules, k.Network+".txt")
	case MasterSummary:
		if k.Identifier == "" {
			return join(l.Results, "master_summary.csv")
		}
		return join(l.Results, fmt.Sprintf("master_summary_%s.csv", k.Identifier))
	case GOEnrichment:
		dir := fmt.Sprintf("GO_summaries_%s_%s", k.Trait, k.Network)
		file := fmt.Sprintf("sig_%s_%s_%s_%d.csv", k.Study, k.Trait, k.Network, k.Module)
		return join(l.GOSummaries, path.Join(dir, file))
	case ORSummary:
		return join(l.Raw, fmt.Sprintf("%s_%s_%s_or_summary.csv", k.Network, TaggedTrait(0, k.Trait), k.Network))
	case ORGenes:
		return join(l.Raw, fmt.Sprintf("%s_%s_%s_or_fishnet_genes.csv", k.Network, TaggedTrait(0, k.Trait), k.Network))
	case ReplicateCount:
		return join(l.Replicates, fmt.Sprintf("%s_%s_%s_rp_%d.csv", k.Trait, k.Threshold, k.Network, k.Replicate))
	case NullCounts:
		return join(l.Raw, fmt.Sprintf("%s_%s_%s_rp_mea_passing_across_%d_permutations.csv", k.Trait, k.Threshold, k.Network, k.Permutations))
	case NullSummary:
		return join(l.Raw, fmt.Sprintf("%s_%s_%s_rp_summary_%d_permutations.csv", k.Trait, k.Threshold, k.Network, k.Permutations))
	case FDRSummary:
		return join(l.Summary, fmt.Sprintf("%s_%s_summary_%d_permutations.csv", TaggedTrait(0, k.Trait), k.Network, k.Permutations))
	case FishnetGenes:
		return join(l.Summary, fmt.Sprintf("%s_%s_fishnet_genes_%d_permutations_%s.csv", k.Network, TaggedTrait(0, k.Trait), k.Permutations, pythonFloat(k.FDR)))
	case BackgroundGenes:
		return join(l.Background, fmt.Sprintf("%s-%s.txt", k.Algorithm, k.Network))
	}

	panic(fmt.Sprintf("artifact: unhandled key type %T", k))
}

func join(dir, file string) string {
	if dir == "" {
		return file
	}
	return path.Join(dir, file)
}

// pythonFloat renders f the way the historical file names did: shortest
// representation, always with a decimal point.
func pythonFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
