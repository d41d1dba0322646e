package domain

import (
	"context"
)

// VariantIngestor validates and parses uploaded VCF text into normalized,
// panel-filtered variant records.
type VariantIngestor interface {
	ValidateContent(content string) VCFValidation
	Parse(content string) ([]Variant, error)
	GeneCoverage(variants []Variant) []string
}

// RiskAssessor resolves a (drug, phenotype code) pair to a clinical
// recommendation. Implementations must be total: any input yields a usable
// result, defaulting to an explicit Unknown classification.
type RiskAssessor interface {
	Assess(drug, phenotypeCode string, confidence float64) RiskResult
	DrugGenes(drug string) (DrugGenes, bool)
	KnownDrugs() []string
}

// PhenotypeCaller is the external diplotype-to-phenotype collaborator.
// Phenotype inference is explicitly outside this system.
type PhenotypeCaller interface {
	CallPhenotype(ctx context.Context, gene, sample string) (code string, confidence float64, err error)
}

// VariantRepository defines the interface for variant data persistence
type VariantRepository interface {
	SaveVariants(ctx context.Context, reportID string, variants []Variant) error
	GetByReport(ctx context.Context, reportID string) ([]Variant, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
