package fishnet

import (
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

// Delimiters that gene tables are known to use, in order of preference when
// the detector finds more than one consistent candidate.
var preferredDelimiters = []rune{',', '\t', ';', '|', ' '}

// SniffDelimiter returns the single most likely rune delimiting the values in
// sample, assuming a CSV-like table. Gene/p-value tables arrive as either
// comma or tab separated depending on which upstream tool wrote them.
func SniffDelimiter(sample []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(sample), '"')

	found := make(map[rune]struct{}, len(delimiters))
	for _, candidate := range delimiters {
		if len(candidate) > 0 {
			found[rune(candidate[0])] = struct{}{}
		}
	}

	for _, r := range preferredDelimiters {
		if _, ok := found[r]; ok {
			return r
		}
	}

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}
