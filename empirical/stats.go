// Package empirical reduces a permutation null distribution and the
// true-label passing count to descriptive statistics and an empirical FDR.
package empirical

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ConfidenceLevel is the coverage of the reported interval of the mean.
const ConfidenceLevel = 0.95

// Summary describes one null distribution.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	// SD is the population standard deviation.
	SD float64
	// Lower and Upper bound the t confidence interval of the mean.
	Lower float64
	Upper float64
	P90   float64
	P95   float64
}

// Summarize computes the descriptive statistics of null. Every field but N
// is NaN for an empty distribution.
func Summarize(null []float64) Summary {
	nan := math.NaN()
	s := Summary{N: len(null), Mean: nan, Median: nan, SD: nan, Lower: nan, Upper: nan, P90: nan, P95: nan}
	if len(null) == 0 {
		return s
	}

	data := stats.Float64Data(null)
	s.Mean, _ = stats.Mean(data)
	s.Median, _ = stats.Median(data)
	s.SD, _ = stats.StandardDeviationPopulation(data)
	s.Lower, s.Upper = MeanInterval(null, ConfidenceLevel)
	s.P90 = Percentile(null, 90)
	s.P95 = Percentile(null, 95)

	return s
}

// MeanInterval is the two-sided Student-t confidence interval of the mean
// with len(x)-1 degrees of freedom and the standard error taken from the
// sample standard deviation. A single observation gives NaN bounds; a
// distribution without spread collapses to (mean, mean).
func MeanInterval(x []float64, level float64) (lower, upper float64) {
	n := len(x)
	if n < 2 {
		return math.NaN(), math.NaN()
	}

	mean := stat.Mean(x, nil)
	sem := stat.StdErr(stat.StdDev(x, nil), float64(n))
	if sem == 0 {
		return mean, mean
	}

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	half := t.Quantile(1-(1-level)/2) * sem

	return mean - half, mean + half
}

// Percentile returns the q-th percentile (0 <= q <= 100) of x, linearly
// interpolating between the two nearest order statistics.
func Percentile(x []float64, q float64) float64 {
	if len(x) == 0 || q < 0 || q > 100 {
		return math.NaN()
	}

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q / 100
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// PercentileOfScore is the percentile rank of score within x: the average
// of the share of values strictly below it and the share at or below it.
func PercentileOfScore(x []float64, score float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	var below, atOrBelow int
	for _, v := range x {
		if v < score {
			below++
		}
		if v <= score {
			atOrBelow++
		}
	}

	return float64(below+atOrBelow) * 50 / float64(len(x))
}

// FDR is the null mean over the observed count, NaN when nothing was
// observed.
func FDR(nullMean float64, observed int) float64 {
	if observed == 0 {
		return math.NaN()
	}
	return nullMean / float64(observed)
}

// FalsePositivesPer reports how many candidate genes it takes, on average,
// to see one false positive: 1/FPR with FPR = mean/totalGenes. It returns
// -1 when the rate is not positive.
func FalsePositivesPer(nullMean float64, totalGenes int) float64 {
	trueNegatives := float64(totalGenes) - nullMean
	fpr := nullMean / (nullMean + trueNegatives)
	if !(fpr > 0) {
		return -1
	}
	return 1 / fpr
}
