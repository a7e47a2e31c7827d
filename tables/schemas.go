package tables

// ORSummaryRow is one threshold of a true-label sweep along a rank ladder.
// Sweeps along a p-value ladder omit the fraction column; reading such a
// table leaves Fraction at zero.
type ORSummaryRow struct {
	Threshold Threshold `csv:"threshold"`
	Count     int       `csv:"mea_passing_genes"`
	Fraction  Float     `csv:"fraction_mea_passing_genes"`
}

// PvalueSummaryRow is one threshold of a true-label sweep along a p-value
// ladder.
type PvalueSummaryRow struct {
	Threshold Threshold `csv:"threshold"`
	Count     int       `csv:"mea_passing_genes"`
}

// ORGenesRow carries the passing genes of one threshold.
type ORGenesRow struct {
	Threshold Threshold `csv:"threshold"`
	Genes     GeneList  `csv:"mea_passing_genes"`
}

// ReplicateRow is one permutation replicate's passing count.
type ReplicateRow struct {
	Rank  Threshold `csv:"Rank"`
	Count int       `csv:"MEA_passing_genes"`
}

// CheckpointRow is what a finished replicate leaves behind so an
// interrupted run can resume without recomputing it.
type CheckpointRow struct {
	Rank       Threshold `csv:"Rank"`
	Count      int       `csv:"MEA_passing_genes"`
	Candidates int       `csv:"candidate_genes"`
	TotalGenes int       `csv:"total_genes"`
}

// NullSummaryRow digests the replicate counts of one threshold.
type NullSummaryRow struct {
	Threshold           Threshold `csv:"threshold"`
	AveragePassing      Float     `csv:"avg_mea_passing"`
	AverageFraction     Float     `csv:"avgFraction_mea_passing"`
	FalsePositivesPerFP Float     `csv:"FP_in_XXXX"`
}

// FDRSummaryRow is one threshold of the empirical FDR report.
type FDRSummaryRow struct {
	Ranks              Threshold `csv:"Ranks"`
	Average            Float     `csv:"Average"`
	Median             Float     `csv:"Median"`
	SD                 Float     `csv:"sd"`
	ConfidenceInterval Interval  `csv:"confidence_interval_95"`
	Percentile90       Float     `csv:"90_percentile"`
	Percentile95       Float     `csv:"95_percentile"`
	FDR                Float     `csv:"FDR"`
	NumMEAPassing      int       `csv:"num_MEA_passing"`
	ObservedPercentile Float     `csv:"original_run_percentile"`
}

// FishnetRow is the final FISHNET gene selection for a trait and network.
type FishnetRow struct {
	Threshold       Threshold `csv:"Threshold"`
	Network         string    `csv:"Network"`
	NumNominal      int       `csv:"numNominal"`
	Trait           string    `csv:"Trait"`
	NumFISHNETGenes int       `csv:"NumFISHNETGenes"`
	FISHNETGenes    GeneList  `csv:"FISHNETGenes"`
}

// Required column sets, checked before decoding.
var (
	ORSummaryColumns  = []string{"threshold", "mea_passing_genes"}
	ORGenesColumns    = []string{"threshold", "mea_passing_genes"}
	ReplicateColumns  = []string{"Rank", "MEA_passing_genes"}
	CheckpointColumns = []string{"Rank", "MEA_passing_genes", "candidate_genes", "total_genes"}
	FDRSummaryColumns = []string{"Ranks", "FDR", "num_MEA_passing", "original_run_percentile"}
)
