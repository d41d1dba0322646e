package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// Fixed VCF column layout preceding the per-sample columns.
const (
	colChrom = iota
	colPos
	colID
	colRef
	colAlt
	colQual
	colFilter
	colInfo
	colFormat
	fixedColumnCount
)

// VCFParserService turns raw VCF text into validated, panel-filtered variant
// records. Clinical files arrive from varied lab pipelines, so parsing favors
// partial data over strict rejection: malformed INFO subfields degrade to
// documented defaults instead of failing an otherwise-valid file.
type VCFParserService struct {
	logger *logrus.Logger
}

// NewVCFParserService creates a new VCF parser service
func NewVCFParserService(logger *logrus.Logger) *VCFParserService {
	return &VCFParserService{logger: logger}
}

// ValidateContent performs the advisory structural checks on uploaded VCF
// text. Callers are expected to invoke it before Parse, but Parse does not
// re-verify every condition.
func (s *VCFParserService) ValidateContent(content string) domain.VCFValidation {
	if strings.TrimSpace(content) == "" {
		return domain.VCFValidation{Valid: false, Reason: "File is empty"}
	}

	head := content
	if len(head) > 500 {
		head = head[:500]
	}
	if !strings.Contains(head, "##fileformat=VCF") {
		return domain.VCFValidation{Valid: false, Reason: "Not a valid VCF file (missing ##fileformat header)"}
	}

	hasChromHeader := false
	for i, line := range strings.Split(content, "\n") {
		if i >= 50 {
			break
		}
		if strings.HasPrefix(line, "#CHROM") {
			hasChromHeader = true
			break
		}
	}
	if !hasChromHeader {
		return domain.VCFValidation{Valid: false, Reason: "Missing #CHROM header line"}
	}

	return domain.VCFValidation{Valid: true, Reason: ""}
}

// Parse extracts panel-gene variant records from VCF text. It returns
// domain.ErrNoSampleData when the file declares no sample columns, since a
// file without samples carries no actionable genotype data. All other
// malformed-field conditions are absorbed via defaulting.
func (s *VCFParserService) Parse(content string) ([]domain.Variant, error) {
	lines := splitNormalized(content)

	header, dataLines := stripInlineMeta(lines)
	samples := sampleColumns(header)
	if len(samples) == 0 {
		return nil, domain.ErrNoSampleData
	}

	variants := make([]domain.Variant, 0)
	for _, line := range dataLines {
		fields := strings.Split(line, "\t")
		if len(fields) < fixedColumnCount {
			s.logger.WithField("fields", len(fields)).Debug("Skipping malformed VCF row")
			continue
		}

		pos, err := strconv.ParseInt(fields[colPos], 10, 64)
		if err != nil || pos < 1 {
			s.logger.WithFields(logrus.Fields{
				"chrom": fields[colChrom],
				"pos":   fields[colPos],
			}).Warn("Skipping VCF row with unreadable position")
			continue
		}

		info := parseInfo(fields[colInfo])

		gene, ok := infoString(info, "GENE")
		if !ok || !domain.IsPanelGene(gene) {
			continue
		}

		gtIndex := genotypeIndex(fields[colFormat])
		if gtIndex < 0 {
			continue
		}

		for i, sample := range samples {
			sampleField := ""
			if fixedColumnCount+i < len(fields) {
				sampleField = fields[fixedColumnCount+i]
			}

			gt, ok := genotypeCall(sampleField, gtIndex)
			if !ok {
				continue
			}

			variants = append(variants, buildVariant(fields, info, gene, pos, gt, sample))
		}
	}

	s.logger.WithFields(logrus.Fields{
		"variants": len(variants),
		"samples":  len(samples),
	}).Info("VCF parsing completed")

	return variants, nil
}

// GeneCoverage returns the distinct panel genes observed across the variant
// sequence, sorted for stable output. Duplicates collapse.
func (s *VCFParserService) GeneCoverage(variants []domain.Variant) []string {
	seen := make(map[string]struct{})
	for _, v := range variants {
		seen[v.Gene] = struct{}{}
	}

	genes := make([]string, 0, len(seen))
	for gene := range seen {
		genes = append(genes, gene)
	}
	sort.Strings(genes)
	return genes
}

// splitNormalized splits content into lines after collapsing CR and CRLF
// endings to LF, so line handling is dialect-independent.
func splitNormalized(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// stripInlineMeta drops ## meta lines that appear after the #CHROM header.
// Meta lines are only valid before the header in standard VCF; some producers
// interleave them mid-data, which a strict columnar parse cannot tolerate.
// Returns the header line ("" if none) and the remaining data lines.
func stripInlineMeta(lines []string) (header string, data []string) {
	pastHeader := false
	for _, line := range lines {
		if strings.HasPrefix(line, "#CHROM") {
			pastHeader = true
			header = line
			continue
		}
		if pastHeader && strings.HasPrefix(line, "##") {
			continue
		}
		if pastHeader && line != "" && !strings.HasPrefix(line, "#") {
			data = append(data, line)
		}
	}
	return header, data
}

// sampleColumns returns the per-sample column names declared after FORMAT.
func sampleColumns(header string) []string {
	if header == "" {
		return nil
	}
	cols := strings.Split(header, "\t")
	if len(cols) <= fixedColumnCount {
		return nil
	}
	return cols[fixedColumnCount:]
}

// genotypeIndex finds the position of the GT subfield in the FORMAT column,
// or -1 when the row carries no genotype calls.
func genotypeIndex(format string) int {
	for i, key := range strings.Split(format, ":") {
		if key == "GT" {
			return i
		}
	}
	return -1
}

// genotypeCall extracts the GT value for one sample. A missing call (both
// alleles ".") yields ok=false so that sample/record pairing is skipped
// without affecting other samples.
func genotypeCall(sampleField string, gtIndex int) (string, bool) {
	if sampleField == "" || sampleField == "." {
		return "", false
	}
	parts := strings.Split(sampleField, ":")
	if gtIndex >= len(parts) {
		return "", false
	}
	gt := parts[gtIndex]
	if gt == "" || gt == "./." || gt == ".|." {
		return "", false
	}
	return gt, true
}

func buildVariant(fields []string, info map[string]string, gene string, pos int64, gt, sample string) domain.Variant {
	star, hasStar := infoString(info, "STAR")
	v := domain.Variant{
		RSID:                 parseID(fields[colID]),
		Gene:                 gene,
		Chromosome:           fields[colChrom],
		Position:             pos,
		Ref:                  fields[colRef],
		Alt:                  parseAlt(fields[colAlt]),
		Qual:                 parseQual(fields[colQual]),
		Filter:               parseFilter(fields[colFilter]),
		Genotype:             gt,
		Phased:               strings.Contains(gt, "|"),
		ClinicalSignificance: infoStringDefault(info, "CLINSIG", "Unknown"),
		AlleleFreq:           infoFloat(info, "AF", 0.0),
		Depth:                infoInt(info, "DP", 0),
		Sample:               sample,
	}
	if hasStar {
		v.StarAllele = &star
	}
	return v
}

// parseID normalizes the ID column: an absent identifier stays ".".
func parseID(raw string) string {
	if raw == "" {
		return "."
	}
	return raw
}

// parseAlt joins the non-missing alternate alleles with commas.
func parseAlt(raw string) string {
	if raw == "" || raw == "." {
		return ""
	}
	alleles := make([]string, 0, 2)
	for _, a := range strings.Split(raw, ",") {
		if a != "" && a != "." {
			alleles = append(alleles, a)
		}
	}
	return strings.Join(alleles, ",")
}

// parseQual returns nil for a missing quality value.
func parseQual(raw string) *float64 {
	if raw == "" || raw == "." {
		return nil
	}
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &q
}

// parseFilter defaults to PASS when the source marks no filter failure and
// UNKNOWN when the field is unreadable. Multiple failed filters are reported
// comma-joined.
func parseFilter(raw string) string {
	switch raw {
	case "":
		return "UNKNOWN"
	case ".", "PASS":
		return "PASS"
	default:
		return strings.Join(strings.Split(raw, ";"), ",")
	}
}

// parseInfo splits the semicolon-separated key=value INFO block. Bare flags
// map to an empty value.
func parseInfo(raw string) map[string]string {
	info := make(map[string]string)
	if raw == "" || raw == "." {
		return info
	}
	for _, pair := range strings.Split(raw, ";") {
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			info[key] = ""
			continue
		}
		info[key] = value
	}
	return info
}

// Typed INFO accessors. Each attempts a conversion and falls back to its
// documented default on failure, so one malformed subfield never aborts an
// otherwise-valid parse. Multi-valued fields use their first element, which
// matches how multiallelic annotations are reduced upstream.

func infoString(info map[string]string, key string) (string, bool) {
	raw, ok := info[key]
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(firstValue(raw))
	if value == "" {
		return "", false
	}
	return value, true
}

func infoStringDefault(info map[string]string, key, def string) string {
	if value, ok := infoString(info, key); ok {
		return value
	}
	return def
}

func infoFloat(info map[string]string, key string, def float64) float64 {
	raw, ok := info[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(firstValue(raw), 64)
	if err != nil {
		return def
	}
	return f
}

func infoInt(info map[string]string, key string, def int) int {
	raw, ok := info[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(firstValue(raw))
	if err != nil {
		return def
	}
	return n
}

func firstValue(raw string) string {
	value, _, _ := strings.Cut(raw, ",")
	return value
}
