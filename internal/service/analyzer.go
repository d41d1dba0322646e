package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/cache"
	"github.com/pharmaguard-server/internal/domain"
)

// AnalyzerService orchestrates one upload end to end: validate the VCF text,
// extract panel variants, and resolve the drug risk from the externally
// supplied phenotype classification. It owns no mutable state beyond its
// advisory cache and is safe for concurrent use.
type AnalyzerService struct {
	logger     *logrus.Logger
	parser     domain.VariantIngestor
	risk       domain.RiskAssessor
	phenotypes domain.PhenotypeCaller
	cache      *cache.AssessmentCache
}

// NewAnalyzerService creates a new analyzer. The phenotype caller and the
// cache are optional; pass nil to disable external phenotype resolution or
// caching.
func NewAnalyzerService(
	logger *logrus.Logger,
	parser domain.VariantIngestor,
	risk domain.RiskAssessor,
	phenotypes domain.PhenotypeCaller,
	assessmentCache *cache.AssessmentCache,
) *AnalyzerService {
	return &AnalyzerService{
		logger:     logger,
		parser:     parser,
		risk:       risk,
		phenotypes: phenotypes,
		cache:      assessmentCache,
	}
}

// Analyze runs the full pipeline for one (VCF, drug) pair. The phenotype code
// either arrives in the request or is fetched from the external phenotype
// caller for the drug's primary gene; it is never inferred here.
func (s *AnalyzerService) Analyze(ctx context.Context, req *domain.AnalysisRequest) (*domain.AnalysisReport, error) {
	startTime := time.Now()

	s.logger.WithFields(logrus.Fields{
		"drug":          req.Drug,
		"content_bytes": len(req.VCFContent),
	}).Info("Starting PGx analysis")

	if v := s.parser.ValidateContent(req.VCFContent); !v.Valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrVCFValidation, v.Reason)
	}

	variants, err := s.parser.Parse(req.VCFContent)
	if err != nil {
		return nil, fmt.Errorf("parsing VCF content: %w", err)
	}

	genes, known := s.risk.DrugGenes(req.Drug)
	primary := genes.Primary()

	code := req.PhenotypeCode
	confidence := req.Confidence
	if code == "" && s.phenotypes != nil {
		if !known {
			return nil, fmt.Errorf("resolving phenotype for %q: %w", req.Drug, domain.ErrUnknownDrug)
		}
		code, confidence, err = s.phenotypes.CallPhenotype(ctx, primary, req.Sample)
		if err != nil {
			return nil, fmt.Errorf("calling external phenotype service: %w", err)
		}
	}

	risk := s.assess(ctx, req.Drug, code, confidence)

	report := &domain.AnalysisReport{
		ID:            uuid.New().String(),
		Drug:          req.Drug,
		PrimaryGene:   primary,
		Genes:         genes,
		PhenotypeCode: code,
		Variants:      variants,
		GeneCoverage:  s.parser.GeneCoverage(variants),
		Risk:          risk,
		Sample:        req.Sample,
		ProcessingMs:  time.Since(startTime).Milliseconds(),
		CreatedAt:     time.Now().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":      report.ID,
		"drug":           report.Drug,
		"phenotype_code": report.PhenotypeCode,
		"risk_label":     report.Risk.RiskLabel,
		"variants":       len(report.Variants),
		"gene_coverage":  len(report.GeneCoverage),
		"processing_ms":  report.ProcessingMs,
	}).Info("PGx analysis completed")

	return report, nil
}

// assess resolves the risk through the cache when one is attached. The risk
// engine itself is cheap; the cache mainly spares the Redis tier's siblings
// from recomputing identical assessments across instances.
func (s *AnalyzerService) assess(ctx context.Context, drug, code string, confidence float64) domain.RiskResult {
	if s.cache == nil {
		return s.risk.Assess(drug, code, confidence)
	}

	if result, ok := s.cache.Get(ctx, drug, code, confidence); ok {
		return result
	}

	result := s.risk.Assess(drug, code, confidence)
	s.cache.Put(ctx, drug, code, confidence, result)
	return result
}
