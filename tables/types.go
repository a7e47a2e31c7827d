package tables

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Float serializes NaN as an empty cell and reads empty or "nan" cells back
// as NaN, which is how the downstream dataframe tooling represents missing
// values.
type Float float64

func (f Float) MarshalCSV() (string, error) {
	if math.IsNaN(float64(f)) {
		return "", nil
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 64), nil
}

func (f *Float) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na":
		*f = Float(math.NaN())
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Threshold is either an integer rank or a p-value cutoff. Integral values
// are written without a decimal point; "10.0" reads back as 10.
type Threshold float64

func (t Threshold) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(t), 'f', -1, 64), nil
}

func (t *Threshold) UnmarshalCSV(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*t = Threshold(v)
	return nil
}

// Rank returns the threshold as an integer rank.
func (t Threshold) Rank() int {
	return int(t)
}

// Interval is a closed (lower, upper) pair serialized as "lower:upper".
type Interval struct {
	Lower float64
	Upper float64
}

func (iv Interval) MarshalCSV() (string, error) {
	return reprFloat(iv.Lower) + ":" + reprFloat(iv.Upper), nil
}

func (iv *Interval) UnmarshalCSV(s string) error {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return fmt.Errorf("interval %q is not of the form lower:upper", s)
	}

	bounds := [2]float64{}
	for i, part := range parts {
		var f Float
		if err := f.UnmarshalCSV(part); err != nil {
			return err
		}
		bounds[i] = float64(f)
	}
	iv.Lower, iv.Upper = bounds[0], bounds[1]

	return nil
}

// reprFloat matches the interpreter-style float repr that earlier versions of
// the pipeline wrote inside interval cells: always a decimal point, "nan"
// for NaN.
func reprFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// GeneList is serialized as a printable list literal, e.g. ['G1', 'G2'].
type GeneList []string

func (g GeneList) MarshalCSV() (string, error) {
	b := strings.Builder{}
	b.WriteString("[")
	for i, gene := range g {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("'")
		b.WriteString(strings.ReplaceAll(gene, "'", "\\'"))
		b.WriteString("'")
	}
	b.WriteString("]")
	return b.String(), nil
}

func (g *GeneList) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return fmt.Errorf("gene list %q is not a list literal", s)
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	out := make(GeneList, 0)
	if inner == "" {
		*g = out
		return nil
	}

	for _, item := range strings.Split(inner, ",") {
		item = strings.TrimSpace(item)
		item = strings.Trim(item, `'"`)
		item = strings.ReplaceAll(item, "\\'", "'")
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	*g = out

	return nil
}

// Bool reads the spellings dataframe tools use for booleans and writes
// "True"/"False".
type Bool bool

func (b Bool) MarshalCSV() (string, error) {
	if b {
		return "True", nil
	}
	return "False", nil
}

func (b *Bool) UnmarshalCSV(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "1.0", "yes":
		*b = true
	case "false", "f", "0", "0.0", "no", "", "nan":
		*b = false
	default:
		return fmt.Errorf("%q is not a boolean", s)
	}
	return nil
}
