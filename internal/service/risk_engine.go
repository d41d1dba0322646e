package service

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// RiskEngineService resolves a (drug, phenotype code) pair to a clinical
// recommendation. Assess is total: it never fails and always returns a usable
// result, failing open to an explicit Unknown classification when no table
// entry applies. An advisory system must never crash its caller.
type RiskEngineService struct {
	logger *logrus.Logger
	table  []riskTableEntry
	exact  map[riskKey]*domain.RiskEntry
}

type riskKey struct {
	drug      string
	phenotype string
}

// NewRiskEngineService creates a new risk engine over the static CPIC-derived
// risk table. The exact-match index is built once; the ordered table itself
// backs the prefix-fallback scan.
func NewRiskEngineService(logger *logrus.Logger) *RiskEngineService {
	return newRiskEngineWithTable(logger, riskTable)
}

func newRiskEngineWithTable(logger *logrus.Logger, table []riskTableEntry) *RiskEngineService {
	exact := make(map[riskKey]*domain.RiskEntry, len(table))
	for i := range table {
		e := &table[i]
		exact[riskKey{e.Drug, e.Phenotype}] = &e.Entry
	}
	return &RiskEngineService{
		logger: logger,
		table:  table,
		exact:  exact,
	}
}

// Assess looks up the risk for a drug and phenotype code and attaches the
// caller-supplied confidence verbatim, with no clamping: the score belongs to
// the external phenotype caller and is not reinterpreted here.
//
// Resolution order: exact (drug, code) match, then the first table entry in
// definition order whose drug matches and whose stored code is a prefix of
// the supplied code (e.g. stored "IM" matches supplied "IM (CYP2C9)"), then
// the Unknown default.
func (s *RiskEngineService) Assess(drug, phenotypeCode string, confidence float64) domain.RiskResult {
	drug = strings.ToUpper(drug)

	entry := s.exact[riskKey{drug, phenotypeCode}]
	if entry == nil {
		for i := range s.table {
			row := &s.table[i]
			if row.Drug == drug && strings.HasPrefix(phenotypeCode, row.Phenotype) {
				entry = &row.Entry
				break
			}
		}
	}

	if entry == nil {
		s.logger.WithFields(logrus.Fields{
			"drug":           drug,
			"phenotype_code": phenotypeCode,
		}).Warn("No risk table entry matched, failing open to Unknown")
		entry = &defaultRiskEntry
	}

	result := domain.RiskResult{
		RiskEntry:       copyEntry(entry),
		ConfidenceScore: confidence,
	}

	s.logger.WithFields(logrus.Fields{
		"drug":           drug,
		"phenotype_code": phenotypeCode,
		"risk_label":     result.RiskLabel,
		"severity":       result.Severity,
	}).Info("Drug risk assessed")

	return result
}

// DrugGenes returns the ordered gene list for a drug, case-insensitively.
func (s *RiskEngineService) DrugGenes(drug string) (domain.DrugGenes, bool) {
	genes, ok := drugGeneMap[strings.ToUpper(drug)]
	if !ok {
		return nil, false
	}
	out := make(domain.DrugGenes, len(genes))
	copy(out, genes)
	return out, true
}

// KnownDrugs returns the supported drug names, sorted.
func (s *RiskEngineService) KnownDrugs() []string {
	drugs := make([]string, 0, len(drugGeneMap))
	for drug := range drugGeneMap {
		drugs = append(drugs, drug)
	}
	sort.Strings(drugs)
	return drugs
}

// copyEntry deep-copies a risk entry so callers can never reach back into the
// static table.
func copyEntry(entry *domain.RiskEntry) domain.RiskEntry {
	out := *entry
	if entry.DosingAdjustment != nil {
		v := *entry.DosingAdjustment
		out.DosingAdjustment = &v
	}
	if entry.CPICGuideline != nil {
		v := *entry.CPICGuideline
		out.CPICGuideline = &v
	}
	out.Alternatives = make([]string, len(entry.Alternatives))
	copy(out.Alternatives, entry.Alternatives)
	return out
}
