package domain

import (
	"time"
)

// TargetGenes is the fixed pharmacogene panel this system recognizes.
// A variant is only retained during ingestion if its GENE annotation is a
// member of this set. The set is built once and never mutated.
var TargetGenes = map[string]struct{}{
	// Core PGx genes
	"CYP2C9": {}, "CYP2C19": {}, "CYP2D6": {}, "CYP4F2": {}, "CYP3A4": {},
	"SLCO1B1": {}, "TPMT": {}, "DPYD": {}, "NUDT15": {}, "ABCB1": {}, "TYMS": {},
	// Warfarin pathway genes
	"VKORC1": {}, "GGCX": {}, "CALU": {},
	// Clotting pathway genes
	"PROS1": {}, "F5": {},
}

// IsPanelGene reports whether the gene symbol is part of the fixed PGx panel.
func IsPanelGene(gene string) bool {
	_, ok := TargetGenes[gene]
	return ok
}

// Variant represents one genomic call for one sample at one panel gene,
// extracted from an uploaded VCF file. Records are immutable once produced.
type Variant struct {
	// Identifiers
	RSID       string `json:"rsid" db:"rsid"` // "." when the source carries no ID
	Gene       string `json:"gene" db:"gene"`
	Chromosome string `json:"chrom" db:"chromosome"`
	Position   int64  `json:"pos" db:"position"`

	// Allele data. Alt is the comma-joined list of alternate alleles.
	Ref string `json:"ref" db:"reference"`
	Alt string `json:"alt" db:"alternative"`

	// Quality
	Qual   *float64 `json:"qual" db:"qual"`
	Filter string   `json:"filter" db:"filter"`

	// Genotype call. Phased is true iff the allele separator is "|".
	Genotype string `json:"genotype" db:"genotype"`
	Phased   bool   `json:"phased" db:"phased"`

	// Annotations
	StarAllele           *string `json:"star_allele" db:"star_allele"`
	ClinicalSignificance string  `json:"clinical_significance" db:"clinical_significance"`
	AlleleFreq           float64 `json:"allele_freq" db:"allele_freq"`
	Depth                int     `json:"depth" db:"depth"`

	// Provenance
	Sample string `json:"sample" db:"sample"`
}

// AnalysisRequest represents an incoming drug risk analysis request.
// The phenotype code and its confidence come from an external
// diplotype-to-phenotype caller; this core never infers them.
type AnalysisRequest struct {
	VCFContent    string  `json:"vcf_content" binding:"required"`
	Drug          string  `json:"drug" binding:"required"`
	PhenotypeCode string  `json:"phenotype_code,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	Sample        string  `json:"sample,omitempty"`
}

// AnalysisReport represents the outcome of a single VCF upload analyzed
// against one drug. It is the unit of persistence and retrieval.
type AnalysisReport struct {
	ID            string     `json:"id"`
	Drug          string     `json:"drug"`
	PrimaryGene   string     `json:"primary_gene"`
	Genes         []string   `json:"genes"`
	PhenotypeCode string     `json:"phenotype_code"`
	Variants      []Variant  `json:"variants"`
	GeneCoverage  []string   `json:"gene_coverage"`
	Risk          RiskResult `json:"risk"`
	Sample        string     `json:"sample,omitempty"`
	ProcessingMs  int64      `json:"processing_time_ms"`
	CreatedAt     time.Time  `json:"created_at"`
}
