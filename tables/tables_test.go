package tables

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/carbocation/fishnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	s, err := Float(math.NaN()).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = Float(0.25).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "0.25", s)

	for _, in := range []string{"", "nan", "NaN", "NA"} {
		var f Float
		require.NoError(t, f.UnmarshalCSV(in), in)
		assert.True(t, math.IsNaN(float64(f)), in)
	}

	var f Float
	require.NoError(t, f.UnmarshalCSV(" 1e-3 "))
	assert.Equal(t, Float(0.001), f)
	assert.Error(t, f.UnmarshalCSV("abc"))
}

func TestThreshold(t *testing.T) {
	var th Threshold
	require.NoError(t, th.UnmarshalCSV("10.0"))
	assert.Equal(t, 10, th.Rank())

	s, err := Threshold(10).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "10", s)

	s, err = Threshold(0.00005).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "0.00005", s)
}

func TestInterval(t *testing.T) {
	s, err := Interval{Lower: 1, Upper: 2.5}.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "1.0:2.5", s)

	s, err = Interval{Lower: math.NaN(), Upper: math.NaN()}.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "nan:nan", s)

	var iv Interval
	require.NoError(t, iv.UnmarshalCSV("0.5:1.5"))
	assert.Equal(t, Interval{Lower: 0.5, Upper: 1.5}, iv)

	require.NoError(t, iv.UnmarshalCSV("nan:nan"))
	assert.True(t, math.IsNaN(iv.Lower))
	assert.True(t, math.IsNaN(iv.Upper))

	assert.Error(t, iv.UnmarshalCSV("0.5"))
}

func TestGeneList(t *testing.T) {
	s, err := GeneList{"G1", "G2"}.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "['G1', 'G2']", s)

	s, err = GeneList{}.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	var g GeneList
	require.NoError(t, g.UnmarshalCSV("['G1', 'G2']"))
	assert.Equal(t, GeneList{"G1", "G2"}, g)

	require.NoError(t, g.UnmarshalCSV("[]"))
	assert.Empty(t, g)

	assert.Error(t, g.UnmarshalCSV("G1,G2"))
}

func TestBool(t *testing.T) {
	for in, want := range map[string]bool{"True": true, "1": true, "1.0": true, "false": false, "0": false, "": false} {
		var b Bool
		require.NoError(t, b.UnmarshalCSV(in), in)
		assert.Equal(t, want, bool(b), in)
	}

	var b Bool
	assert.Error(t, b.UnmarshalCSV("maybe"))

	s, err := Bool(true).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "True", s)
}

func TestFDRSummaryRoundTrip(t *testing.T) {
	rows := []FDRSummaryRow{
		{
			Ranks:              10,
			Average:            1.25,
			Median:             1,
			SD:                 0.5,
			ConfidenceInterval: Interval{Lower: 0.5, Upper: 2},
			Percentile90:       2.3,
			Percentile95:       2.65,
			FDR:                Float(math.NaN()),
			NumMEAPassing:      0,
			ObservedPercentile: 0,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))
	assert.True(t, strings.HasPrefix(buf.String(), "Ranks,Average,Median,sd,confidence_interval_95,"))

	var got []FDRSummaryRow
	require.NoError(t, Read("summary.csv", &buf, &got))
	require.Len(t, got, 1)
	assert.Equal(t, Threshold(10), got[0].Ranks)
	assert.Equal(t, Interval{Lower: 0.5, Upper: 2}, got[0].ConfidenceInterval)
	assert.True(t, math.IsNaN(float64(got[0].FDR)))
}

func TestReadMissingColumns(t *testing.T) {
	var rows []ORSummaryRow
	err := Read("or.csv", strings.NewReader("threshold,other\n10,1\n"), &rows, "threshold", "mea_passing_genes")

	var mi *fishnet.MalformedInputError
	require.True(t, errors.As(err, &mi))
	assert.Equal(t, []string{"mea_passing_genes"}, mi.Missing)
	assert.Equal(t, "or.csv", mi.Source)
}

func TestReadEmpty(t *testing.T) {
	var rows []ORSummaryRow
	require.NoError(t, Read("or.csv", strings.NewReader(""), &rows, "threshold"))
	assert.Empty(t, rows)

	require.NoError(t, Read("or.csv", strings.NewReader("threshold,mea_passing_genes\n"), &rows, "threshold"))
	assert.Empty(t, rows)
}

func TestReadOmittedFractionColumn(t *testing.T) {
	var rows []ORSummaryRow
	require.NoError(t, Read("or.csv", strings.NewReader("threshold,mea_passing_genes\n0.05,3\n"), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Count)
	assert.Equal(t, Float(0), rows[0].Fraction)
}

func TestRecords(t *testing.T) {
	recs, err := ReadRecords("p.csv", strings.NewReader("Genes,p_vals,extra\nA,0.1,x\nB,0.2,y\n"), "Genes", "p_vals")
	require.NoError(t, err)
	assert.Equal(t, 1, recs.Column("p_vals"))
	assert.Equal(t, -1, recs.Column("absent"))
	assert.Len(t, recs.Rows, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, recs))
	assert.Equal(t, "Genes,p_vals,extra\nA,0.1,x\nB,0.2,y\n", buf.String())

	_, err = ReadRecords("p.csv", strings.NewReader(""), "Genes")
	var mi *fishnet.MalformedInputError
	assert.True(t, errors.As(err, &mi))

	recs, err = ReadRecords("p.csv", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs.Rows)
}
