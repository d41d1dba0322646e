package domain

// RiskEntry holds the clinical recommendation for one (drug, phenotype code)
// pair in the static risk table. Entries are read-only reference data from
// published CPIC guidelines; the resolver copies them and never mutates the
// table.
type RiskEntry struct {
	RiskLabel        RiskLabel `json:"risk_label"`
	Severity         Severity  `json:"severity"`
	Action           string    `json:"action"`
	DosingAdjustment *string   `json:"dosing_adjustment"`
	Monitoring       string    `json:"monitoring"`
	CPICGuideline    *string   `json:"cpic_guideline"`
	Alternatives     []string  `json:"alternatives"`
}

// RiskResult is a resolved risk entry annotated with the confidence score of
// the external phenotype caller. The confidence is passed through verbatim
// and carries whatever range the caller uses, typically [0,1].
type RiskResult struct {
	RiskEntry
	ConfidenceScore float64 `json:"confidence_score"`
}

// DrugGenes is an ordered gene list for one drug. The first element is the
// primary gene whose phenotype drives the risk lookup; the remaining genes
// are contextual and are reported but not primary drivers.
type DrugGenes []string

// Primary returns the primary pharmacogene for the drug, or "" when the
// list is empty.
func (g DrugGenes) Primary() string {
	if len(g) == 0 {
		return ""
	}
	return g[0]
}
