package pipeline_test

import (
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/pipeline"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const testGFF = `##gff-version 3
chr1	HAVANA	transcript	50500	50600	.	+	.	gene_id "G1"; transcript_id "T1";
chr1	HAVANA	transcript	50400	50600	.	+	.	gene_id "G1"; transcript_id "T2";
chr1	HAVANA	transcript	60700	60900	.	-	.	gene_id "G2"; transcript_id "T3";
chr1	HAVANA	transcript	60800	60900	.	-	.	gene_id "G2"; transcript_id "T4";
chr1	HAVANA	transcript	70500	70600	.	+	.	gene_id "G3"; transcript_id "T5";
`

const testExpression = `gene_id LID1:longPolyA.K562.cell LID2:longPolyA.HeLa-S3.cell LID3:longPolyA.K562.nucleus LID4:total.K562.cell
G1 1.0:2.0:0.01 0:0:NA 9:9:0 0:0:0
G2 0.5:0.5:0.05 9:9:0 0:0:0 0:0:0
G3 5:5:0.5 9:9:0 0:0:0 0:0:0
G4 5:5:0 0:0:0 0:0:0 0:0:0
G5 0.2:0.3:0 9:9:0 9:9:0 9:9:0
G6 9:9:NA 0:0:0 0:0:0 0:0:0
`

func TestReadTSS(t *testing.T) {
	tss, err := pipeline.ReadTSS(strings.NewReader(testGFF))
	assert.NoError(t, err)
	expect.EQ(t, tss, []pipeline.TSS{
		{GeneID: "G1", Chrom: "chr1", Pos: 50400},
		{GeneID: "G2", Chrom: "chr1", Pos: 60800},
		{GeneID: "G3", Chrom: "chr1", Pos: 70500},
	})

	for _, bad := range []string{
		"chr1\tx\ttranscript\t10\n",
		"chr1\tx\ttranscript\t10\t20\t.\t+\t.\ttranscript_id \"T\";\n",
		"chr1\tx\ttranscript\tten\t20\t.\t+\t.\tgene_id \"G\";\n",
	} {
		_, err = pipeline.ReadTSS(strings.NewReader(bad))
		expect.True(t, errors.Is(errors.Invalid, err), "input %q: got %v", bad, err)
	}
}

func TestReadExpression(t *testing.T) {
	genes, err := pipeline.ReadExpression(strings.NewReader(testExpression), "K562", pipeline.DefaultExpressionOpts)
	assert.NoError(t, err)
	expect.EQ(t, genes, []string{"G1", "G2", "G4"})

	genes, err = pipeline.ReadExpression(strings.NewReader(testExpression), "HeLa-S3", pipeline.DefaultExpressionOpts)
	assert.NoError(t, err)
	expect.EQ(t, genes, []string{"G2", "G3", "G5"})

	_, err = pipeline.ReadExpression(strings.NewReader("id a\n"), "K562", pipeline.DefaultExpressionOpts)
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = pipeline.ReadExpression(strings.NewReader("gene_id LID1:longPolyA.K562.cell\nG1 x:1:0\n"), "K562", pipeline.DefaultExpressionOpts)
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}

func TestActiveTSS(t *testing.T) {
	tss, err := pipeline.ReadTSS(strings.NewReader(testGFF))
	assert.NoError(t, err)
	s := pipeline.ActiveTSS(tss, []string{"G2", "G4", "G1", "G2"})
	expect.EQ(t, s.Schema, interval.Generic)
	expect.EQ(t, s.Intervals, []interval.Interval{
		{Chrom: "chr1", Start: 60799, End: 60800, Name: "G2"},
		{Chrom: "chr1", Start: 50399, End: 50400, Name: "G1"},
	})
}
