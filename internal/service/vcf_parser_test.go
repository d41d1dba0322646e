package service

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// minimalVCF builds a single-sample VCF with the given data rows.
func minimalVCF(rows ...string) string {
	lines := []string{
		"##fileformat=VCFv4.2",
		"##source=pharmaguard-test",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tPATIENT_1",
	}
	lines = append(lines, rows...)
	return strings.Join(lines, "\n")
}

func TestValidateContent(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	tests := []struct {
		name       string
		content    string
		wantValid  bool
		wantReason string
	}{
		{"empty content", "", false, "File is empty"},
		{"whitespace only", "  \n\t ", false, "File is empty"},
		{
			"missing fileformat declaration",
			"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n",
			false,
			"Not a valid VCF file (missing ##fileformat header)",
		},
		{
			"missing CHROM header",
			"##fileformat=VCFv4.2\n##source=test\n",
			false,
			"Missing #CHROM header line",
		},
		{
			"well-formed minimal file",
			minimalVCF("chr22\t42522500\trs3892097\tC\tT\t99\tPASS\tGENE=CYP2D6\tGT\t1/1"),
			true,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := parser.ValidateContent(tt.content)
			assert.Equal(t, tt.wantValid, v.Valid)
			assert.Equal(t, tt.wantReason, v.Reason)
		})
	}
}

func TestValidateContentFileformatWindow(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	// Declaration buried past the first 500 characters is not accepted.
	padding := "##" + strings.Repeat("x", 600) + "\n"
	content := padding + "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n"

	v := parser.ValidateContent(content)
	assert.False(t, v.Valid)
	assert.Contains(t, v.Reason, "missing ##fileformat header")
}

func TestParseMinimalRoundTrip(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	content := minimalVCF("chr22\t42522500\trs3892097\tC\tT\t99.5\tPASS\tGENE=CYP2D6;STAR=CYP2D6*4;CLINSIG=Pathogenic;AF=0.21;DP=35\tGT\t1/1")

	variants, err := parser.Parse(content)
	require.NoError(t, err)
	require.Len(t, variants, 1)

	v := variants[0]
	assert.Equal(t, "rs3892097", v.RSID)
	assert.Equal(t, "CYP2D6", v.Gene)
	assert.Equal(t, "chr22", v.Chromosome)
	assert.Equal(t, int64(42522500), v.Position)
	assert.Equal(t, "C", v.Ref)
	assert.Equal(t, "T", v.Alt)
	require.NotNil(t, v.Qual)
	assert.InDelta(t, 99.5, *v.Qual, 0.0001)
	assert.Equal(t, "PASS", v.Filter)
	assert.Equal(t, "1/1", v.Genotype)
	assert.False(t, v.Phased)
	require.NotNil(t, v.StarAllele)
	assert.Equal(t, "CYP2D6*4", *v.StarAllele)
	assert.Equal(t, "Pathogenic", v.ClinicalSignificance)
	assert.InDelta(t, 0.21, v.AlleleFreq, 0.0001)
	assert.Equal(t, 35, v.Depth)
	assert.Equal(t, "PATIENT_1", v.Sample)
}

func TestParseNoSampleColumns(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	content := strings.Join([]string{
		"##fileformat=VCFv4.2",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT",
		"chr10\t94981296\trs1799853\tC\tT\t99\tPASS\tGENE=CYP2C9\tGT",
	}, "\n")

	_, err := parser.Parse(content)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoSampleData)
}

func TestParseMissingGenotypeSkipsSample(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	for _, gt := range []string{"./.", ".|."} {
		t.Run(gt, func(t *testing.T) {
			content := minimalVCF("chr10\t94981296\trs1799853\tC\tT\t99\tPASS\tGENE=CYP2C9\tGT\t" + gt)
			variants, err := parser.Parse(content)
			require.NoError(t, err)
			assert.Empty(t, variants)
		})
	}
}

func TestParseNonPanelGeneDiscarded(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	content := minimalVCF(
		"chr17\t43044295\trs80357906\tA\tG\t99\tPASS\tGENE=BRCA1\tGT\t1/1",
		"chr7\t117559590\t.\tG\tA\t99\tPASS\tGT\tGT\t0/1",
	)

	variants, err := parser.Parse(content)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestParseMultiSample(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	content := strings.Join([]string{
		"##fileformat=VCFv4.2",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tPATIENT_1\tPATIENT_2",
		"chr10\t94981296\trs1799853\tC\tT\t99\tPASS\tGENE=CYP2C9\tGT:DP\t0|1:30\t./.:0",
	}, "\n")

	variants, err := parser.Parse(content)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "PATIENT_1", variants[0].Sample)
	assert.Equal(t, "0|1", variants[0].Genotype)
	assert.True(t, variants[0].Phased)
}

func TestParseStripsInlineMetaLines(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	// ## block comments interleaved after the header are non-standard but
	// occur in hand-crafted files; they must not break the parse.
	content := strings.Join([]string{
		"##fileformat=VCFv4.2",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tPATIENT_1",
		"## warfarin pathway block",
		"chr10\t94981296\trs1799853\tC\tT\t99\tPASS\tGENE=CYP2C9\tGT\t0/1",
		"## another inline comment",
		"chr16\t31096368\trs9923231\tC\tT\t99\tPASS\tGENE=VKORC1\tGT\t1/1",
	}, "\n")

	variants, err := parser.Parse(content)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "CYP2C9", variants[0].Gene)
	assert.Equal(t, "VKORC1", variants[1].Gene)
}

func TestParseWindowsLineEndings(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	content := strings.ReplaceAll(
		minimalVCF("chr10\t94981296\trs1799853\tC\tT\t99\tPASS\tGENE=CYP2C9\tGT\t0/1"),
		"\n", "\r\n",
	)

	variants, err := parser.Parse(content)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "CYP2C9", variants[0].Gene)
}

func TestParseFieldDefaulting(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	// Malformed AF/DP and absent STAR/CLINSIG degrade to defaults instead of
	// failing the parse.
	content := minimalVCF("chr10\t94981296\t.\tC\tT\t.\t.\tGENE=CYP2C9;AF=not-a-number;DP=many\tGT\t0/1")

	variants, err := parser.Parse(content)
	require.NoError(t, err)
	require.Len(t, variants, 1)

	v := variants[0]
	assert.Equal(t, ".", v.RSID)
	assert.Nil(t, v.Qual)
	assert.Equal(t, "PASS", v.Filter)
	assert.Nil(t, v.StarAllele)
	assert.Equal(t, "Unknown", v.ClinicalSignificance)
	assert.Equal(t, 0.0, v.AlleleFreq)
	assert.Equal(t, 0, v.Depth)
}

func TestParseFailedFilters(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	content := minimalVCF("chr10\t94981296\trs1799853\tC\tT\t12\tq10;s50\tGENE=CYP2C9\tGT\t0/1")

	variants, err := parser.Parse(content)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "q10,s50", variants[0].Filter)
}

func TestParseMultiallelicAlt(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	content := minimalVCF("chr10\t94981296\trs1799853\tC\tT,G\t99\tPASS\tGENE=CYP2C9;AF=0.1,0.05\tGT\t1/2")

	variants, err := parser.Parse(content)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "T,G", variants[0].Alt)
	// First AF element is used for multiallelic annotations.
	assert.InDelta(t, 0.1, variants[0].AlleleFreq, 0.0001)
}

func TestParseIdempotent(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	content := minimalVCF(
		"chr10\t94981296\trs1799853\tC\tT\t99\tPASS\tGENE=CYP2C9;STAR=CYP2C9*2\tGT\t0/1",
		"chr16\t31096368\trs9923231\tC\tT\t88\tPASS\tGENE=VKORC1\tGT\t1|1",
	)

	first, err := parser.Parse(content)
	require.NoError(t, err)
	second, err := parser.Parse(content)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGeneCoverage(t *testing.T) {
	parser := NewVCFParserService(testLogger())

	variants := []domain.Variant{
		{Gene: "VKORC1"},
		{Gene: "CYP2C9"},
		{Gene: "CYP2C9"},
		{Gene: "CYP2D6"},
	}

	coverage := parser.GeneCoverage(variants)
	assert.Equal(t, []string{"CYP2C9", "CYP2D6", "VKORC1"}, coverage)

	assert.Empty(t, parser.GeneCoverage(nil))
}
