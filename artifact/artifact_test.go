package artifact

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"io/ioutil"
	"testing"

	"github.com/carbocation/fishnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPaths(t *testing.T) {
	l := DefaultLayout()

	cases := []struct {
		key  Key
		want string
	}{
		{GenePvalues{Trait: "maleWC", Replicate: 3}, "pvals/3-maleWC.csv"},
		{ModuleFile{Network: "coexpr"}, "modules/coexpr.txt"},
		{MasterSummary{}, "results/master_summary.csv"},
		{MasterSummary{Identifier: "run2"}, "results/master_summary_run2.csv"},
		{GOEnrichment{Study: "maleWC", Trait: "1-maleWC", Network: "coexpr", Module: 7}, "GO_summaries/GO_summaries_1-maleWC_coexpr/sig_maleWC_1-maleWC_coexpr_7.csv"},
		{ORSummary{Trait: "maleWC", Network: "coexpr"}, "results/raw/coexpr_0-maleWC_coexpr_or_summary.csv"},
		{ORGenes{Trait: "maleWC", Network: "coexpr"}, "results/raw/coexpr_0-maleWC_coexpr_or_fishnet_genes.csv"},
		{ReplicateCount{Trait: "maleWC", Network: "coexpr", Threshold: "20", Replicate: 4}, "results/raw/replicates/maleWC_20_coexpr_rp_4.csv"},
		{NullCounts{Trait: "maleWC", Network: "coexpr", Threshold: "0.05", Permutations: 10}, "results/raw/maleWC_0.05_coexpr_rp_mea_passing_across_10_permutations.csv"},
		{NullSummary{Trait: "maleWC", Network: "coexpr", Threshold: "0.05", Permutations: 10}, "results/raw/maleWC_0.05_coexpr_rp_summary_10_permutations.csv"},
		{FDRSummary{Trait: "maleWC", Network: "coexpr", Permutations: 10}, "summary/0-maleWC_coexpr_summary_10_permutations.csv"},
		{FishnetGenes{Trait: "maleWC", Network: "coexpr", Permutations: 10, FDR: 0.05}, "summary/coexpr_0-maleWC_fishnet_genes_10_permutations_0.05.csv"},
		{FishnetGenes{Trait: "maleWC", Network: "coexpr", Permutations: 10, FDR: 1}, "summary/coexpr_0-maleWC_fishnet_genes_10_permutations_1.0.csv"},
		{BackgroundGenes{Algorithm: "modules", Network: "coexpr"}, "background_genes/modules-coexpr.txt"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, l.Path(c.key))
	}
}

func TestLayoutEmptyDirectoryIsRoot(t *testing.T) {
	l := Layout{}
	assert.Equal(t, "master_summary.csv", l.Path(MasterSummary{}))
	assert.Equal(t, "0-t.csv", l.Path(GenePvalues{Trait: "t"}))
}

func TestTraitTags(t *testing.T) {
	assert.Equal(t, "12-maleWC", TaggedTrait(12, "maleWC"))

	rep, trait, ok := UntagTrait("12-male-WC")
	assert.True(t, ok)
	assert.Equal(t, 12, rep)
	assert.Equal(t, "male-WC", trait)

	_, trait, ok = UntagTrait("maleWC")
	assert.False(t, ok)
	assert.Equal(t, "maleWC", trait)

	_, trait, ok = UntagTrait("male-WC")
	assert.False(t, ok)
	assert.Equal(t, "male-WC", trait)
}

func TestFormatThresholds(t *testing.T) {
	assert.Equal(t, "30", FormatRank(30))
	assert.Equal(t, "0.00005", FormatPvalue(0.00005))
	assert.Equal(t, "0.0001", FormatPvalue(0.0001))
	assert.Equal(t, "0.2", FormatPvalue(0.20))
	assert.Equal(t, "1", FormatPvalue(1))
}

func TestOpenSelectsStore(t *testing.T) {
	s, err := Open(context.Background(), "mem://")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	dir := t.TempDir()
	s, err = Open(context.Background(), dir)
	require.NoError(t, err)
	require.IsType(t, &Filesystem{}, s)
	assert.Equal(t, dir, s.(*Filesystem).Root())
}

func TestSplitBucket(t *testing.T) {
	bucket, prefix := splitBucket("my-bucket/runs/2024/")
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "runs/2024", prefix)

	bucket, prefix = splitBucket("my-bucket")
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "", prefix)

	assert.Equal(t, "runs/a.csv", joinPrefix("runs", "/a.csv"))
	assert.Equal(t, "a.csv", joinPrefix("", "a.csv"))
}

func TestOpenArtifactMissing(t *testing.T) {
	m := NewMemory()

	_, err := OpenArtifact(context.Background(), m, "nope.csv")
	var ma *fishnet.MissingArtifactError
	require.True(t, errors.As(err, &ma))
	assert.Equal(t, "nope.csv", ma.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	err := WriteFunc(ctx, s, "a/b.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "x,y\n1,2\n")
		return err
	})
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "a/b.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "a/b.csv")
	require.NoError(t, err)
	b, err := ioutil.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,2\n", string(b))

	failed := errors.New("boom")
	err = WriteFunc(ctx, s, "a/c.csv", func(w io.Writer) error {
		io.WriteString(w, "partial")
		return failed
	})
	assert.ErrorIs(t, err, failed)

	ok, err = s.Exists(ctx, "a/c.csv")
	require.NoError(t, err)
	assert.False(t, ok, "a failed write must not be committed")

	require.NoError(t, WriteFunc(ctx, s, "z.csv", func(w io.Writer) error { return nil }))

	paths, err := s.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b.csv"}, paths)

	paths, err = s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b.csv", "z.csv"}, paths)

	_, err = s.Open(ctx, "a/missing.csv")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	testStore(t, m)

	require.NoError(t, m.Remove("z.csv"))
	assert.True(t, errors.Is(m.Remove("z.csv"), fs.ErrNotExist))
}

func TestFilesystemStore(t *testing.T) {
	f, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	testStore(t, f)

	_, err = f.Open(context.Background(), "../outside.csv")
	assert.Error(t, err)
}
