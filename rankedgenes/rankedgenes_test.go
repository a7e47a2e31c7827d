package rankedgenes

import (
	"bytes"
	"compress/gzip"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/carbocation/fishnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSortsByPvalue(t *testing.T) {
	in := "Genes,p_vals\nG3,0.02\nG1,0.001\nG2,0.01\n"

	set, err := Read("0-trait.csv", strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []string{"G1", "G2", "G3"}, set.Symbols())
	assert.Equal(t, []string{"G1", "G2"}, set.Top(2))
}

func TestReadTabDelimited(t *testing.T) {
	in := "gene\tpvalue\nA\t0.5\nB\t0.1\n"

	set, err := Read("tabbed", strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, set.Symbols())
}

func TestReadGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("Gene,pval\nX,0.3\nY,0.2\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	set, err := Read("gz", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "X"}, set.Symbols())
}

func TestStableTies(t *testing.T) {
	set, err := New("ties", []Gene{
		{"C", 0.5},
		{"A", 0.1},
		{"B", 0.1},
		{"D", math.NaN()},
		{"E", 0.1},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "E", "C", "D"}, set.Symbols())
}

func TestTopClamps(t *testing.T) {
	set, err := New("clamp", []Gene{{"A", 0.1}, {"B", 0.2}})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, set.Top(10))
	assert.Empty(t, set.Top(-1))
	assert.Empty(t, set.Top(0))
}

func TestTopFraction(t *testing.T) {
	genes := make([]Gene, 0, 45)
	for i := 0; i < 45; i++ {
		genes = append(genes, Gene{Symbol: string(rune('a'+i%26)) + strings.Repeat("x", i/26), Pvalue: float64(i) / 100})
	}
	set, err := New("fraction", genes)
	require.NoError(t, err)

	// 45 * 0.05 = 2.25, truncated to 2
	assert.Len(t, set.TopFraction(0.05), 2)
	assert.Equal(t, 11, FractionRank(45, 0.25))
}

func TestNominalCount(t *testing.T) {
	set, err := New("nominal", []Gene{{"A", 0.01}, {"B", 0.05}, {"C", 0.06}, {"D", math.NaN()}})
	require.NoError(t, err)

	assert.Equal(t, 2, set.NominalCount(NominalAlpha))
}

func TestMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"one column", "Gene\nA\nB\n"},
		{"bad pvalue", "Gene,pval\nA,abc\n"},
		{"duplicate gene", "Gene,pval\nA,0.1\nA,0.2\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Read(c.name, strings.NewReader(c.in))
			require.Error(t, err)

			var mie *fishnet.MalformedInputError
			assert.True(t, errors.As(err, &mie), "got %T", err)
		})
	}
}
