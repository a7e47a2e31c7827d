package fishnet

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', SniffDelimiter([]byte("Genes,p_vals\nA,0.1\nB,0.2\n")))
	assert.Equal(t, '\t', SniffDelimiter([]byte("Genes\tp_vals\nA\t0.1\nB\t0.2\n")))
}

func TestMaybeDecompress(t *testing.T) {
	const body = "Genes,p_vals\nA,0.1\n"

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	for name, in := range map[string][]byte{"plain": []byte(body), "gzip": buf.Bytes()} {
		r, err := MaybeDecompress(bytes.NewReader(in))
		require.NoError(t, err, name)
		out, err := ioutil.ReadAll(r)
		require.NoError(t, err, name)
		assert.Equal(t, body, string(out), name)
	}

	r, err := MaybeDecompress(strings.NewReader(""))
	require.NoError(t, err)
	out, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestIsLocalized(t *testing.T) {
	assert.True(t, IsLocalized(&ModuleNotFoundError{Network: "n", Module: 3}))
	assert.True(t, IsLocalized(fmt.Errorf("wrapped: %w", &MissingArtifactError{Path: "p"})))
	assert.False(t, IsLocalized(&MalformedInputError{Source: "s"}))
	assert.False(t, IsLocalized(errors.New("other")))
}

func TestRequireColumns(t *testing.T) {
	assert.NoError(t, RequireColumns("t.csv", []string{"a", " b "}, "a", "b"))

	err := RequireColumns("t.csv", []string{"a"}, "a", "b", "c")
	var mi *MalformedInputError
	require.True(t, errors.As(err, &mi))
	assert.Equal(t, []string{"b", "c"}, mi.Missing)
	assert.Contains(t, err.Error(), "missing required columns [b c]")
}

func TestExpandHome(t *testing.T) {
	p, err := ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", p)

	p, err = ExpandHome("~/runs")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "/runs"))
	assert.False(t, strings.HasPrefix(p, "~"))
}
