package service

import (
	"github.com/pharmaguard-server/internal/domain"
)

// Static PGx reference data. Built once at process initialization and treated
// as immutable for the lifetime of the process; no lock is needed because no
// writer exists after init.

// drugGeneMap maps each supported drug to its ordered gene list. The first
// gene is the primary pharmacogene whose phenotype drives the risk lookup;
// the rest are contextual and reported alongside results.
var drugGeneMap = map[string]domain.DrugGenes{
	"WARFARIN":     {"CYP2C9", "VKORC1", "CYP4F2", "GGCX", "CALU", "CYP2C19", "PROS1", "F5"},
	"CODEINE":      {"CYP2D6"},
	"CLOPIDOGREL":  {"CYP2C19", "ABCB1"},
	"SIMVASTATIN":  {"SLCO1B1", "CYP3A4"},
	"AZATHIOPRINE": {"TPMT", "NUDT15"},
	"FLUOROURACIL": {"DPYD", "TYMS"},
}

// riskTableEntry is one (drug, phenotype code) row of the risk table.
type riskTableEntry struct {
	Drug      string
	Phenotype string
	Entry     domain.RiskEntry
}

// riskTable holds the clinical recommendations in definition order. The slice
// order is load-bearing: prefix fallback scans it linearly and the first
// matching entry wins, so ambiguous prefix matches resolve by table position.
var riskTable = []riskTableEntry{
	// WARFARIN - CYP2C9
	{"WARFARIN", "PM", domain.RiskEntry{
		RiskLabel:        domain.RiskToxic,
		Severity:         domain.SeverityHigh,
		Action:           "High bleeding risk — reduce dose significantly or choose alternative anticoagulant.",
		DosingAdjustment: strPtr("Reduce by 50–75%"),
		Monitoring:       "INR weekly",
		CPICGuideline:    strPtr("CPIC Warfarin 2017"),
		Alternatives:     []string{"APIXABAN", "RIVAROXABAN"},
	}},
	{"WARFARIN", "IM", domain.RiskEntry{
		RiskLabel:        domain.RiskAdjustDosage,
		Severity:         domain.SeverityMedium,
		Action:           "Reduced metabolism — start with lower warfarin dose.",
		DosingAdjustment: strPtr("Reduce by 25–50%"),
		Monitoring:       "INR every 2 weeks",
		CPICGuideline:    strPtr("CPIC Warfarin 2017"),
		Alternatives:     []string{},
	}},
	{"WARFARIN", "NM", domain.RiskEntry{
		RiskLabel:        domain.RiskSafe,
		Severity:         domain.SeverityLow,
		Action:           "Normal warfarin metabolism expected. Use standard dosing.",
		DosingAdjustment: strPtr("Standard dose"),
		Monitoring:       "Routine INR",
		CPICGuideline:    strPtr("CPIC Warfarin 2017"),
		Alternatives:     []string{},
	}},
	{"WARFARIN", "UM", domain.RiskEntry{
		RiskLabel:        domain.RiskIneffective,
		Severity:         domain.SeverityMedium,
		Action:           "Ultrarapid metabolism — warfarin may be ineffective at standard doses.",
		DosingAdjustment: strPtr("May need higher dose"),
		Monitoring:       "INR closely",
		CPICGuideline:    strPtr("CPIC Warfarin 2017"),
		Alternatives:     []string{"APIXABAN"},
	}},
	// WARFARIN - VKORC1 sensitivity and clotting pathway
	{"WARFARIN", "Sensitive", domain.RiskEntry{
		RiskLabel:        domain.RiskAdjustDosage,
		Severity:         domain.SeverityMedium,
		Action:           "VKORC1 variant detected — patient is sensitive to warfarin.",
		DosingAdjustment: strPtr("Reduce by 20–40%"),
		Monitoring:       "INR weekly initially",
		CPICGuideline:    strPtr("CPIC Warfarin 2017"),
		Alternatives:     []string{},
	}},
	{"WARFARIN", "Resistant", domain.RiskEntry{
		RiskLabel:        domain.RiskIneffective,
		Severity:         domain.SeverityMedium,
		Action:           "VKORC1 resistance variant — higher warfarin dose likely needed.",
		DosingAdjustment: strPtr("May need higher dose"),
		Monitoring:       "INR closely",
		CPICGuideline:    strPtr("CPIC Warfarin 2017"),
		Alternatives:     []string{},
	}},
	{"WARFARIN", "Thrombophilic", domain.RiskEntry{
		RiskLabel:        domain.RiskAdjustDosage,
		Severity:         domain.SeverityHigh,
		Action:           "Factor V Leiden detected — higher INR target may be required.",
		DosingAdjustment: strPtr("Higher target INR (2.5–3.5)"),
		Monitoring:       "INR and clotting studies",
		CPICGuideline:    strPtr("CPIC Warfarin 2017"),
		Alternatives:     []string{},
	}},
	{"WARFARIN", "Deficient", domain.RiskEntry{
		RiskLabel:        domain.RiskToxic,
		Severity:         domain.SeverityHigh,
		Action:           "Protein S deficiency — increased bleeding risk with warfarin.",
		DosingAdjustment: strPtr("Use with extreme caution"),
		Monitoring:       "INR weekly + bleeding signs",
		CPICGuideline:    strPtr("CPIC Warfarin 2017"),
		Alternatives:     []string{"APIXABAN", "RIVAROXABAN"},
	}},

	// CODEINE - CYP2D6
	{"CODEINE", "PM", domain.RiskEntry{
		RiskLabel:        domain.RiskIneffective,
		Severity:         domain.SeverityMedium,
		Action:           "Poor metabolizer — codeine cannot be converted to morphine. Use alternative.",
		DosingAdjustment: strPtr("Avoid codeine"),
		Monitoring:       "Pain response",
		CPICGuideline:    strPtr("CPIC Codeine 2021"),
		Alternatives:     []string{"MORPHINE", "HYDROMORPHONE"},
	}},
	{"CODEINE", "UM", domain.RiskEntry{
		RiskLabel:        domain.RiskToxic,
		Severity:         domain.SeverityHigh,
		Action:           "Ultrarapid metabolizer — dangerous morphine accumulation. Avoid codeine.",
		DosingAdjustment: strPtr("Contraindicated"),
		Monitoring:       "Respiratory function",
		CPICGuideline:    strPtr("CPIC Codeine 2021"),
		Alternatives:     []string{"MORPHINE", "HYDROMORPHONE"},
	}},
	{"CODEINE", "IM", domain.RiskEntry{
		RiskLabel:        domain.RiskAdjustDosage,
		Severity:         domain.SeverityLow,
		Action:           "Intermediate metabolizer — reduced analgesic effect possible.",
		DosingAdjustment: strPtr("Standard or slightly higher dose"),
		Monitoring:       "Pain response",
		CPICGuideline:    strPtr("CPIC Codeine 2021"),
		Alternatives:     []string{},
	}},
	{"CODEINE", "NM", domain.RiskEntry{
		RiskLabel:        domain.RiskSafe,
		Severity:         domain.SeverityLow,
		Action:           "Normal codeine metabolism expected.",
		DosingAdjustment: strPtr("Standard dose"),
		Monitoring:       "Routine",
		CPICGuideline:    strPtr("CPIC Codeine 2021"),
		Alternatives:     []string{},
	}},

	// CLOPIDOGREL - CYP2C19
	{"CLOPIDOGREL", "PM", domain.RiskEntry{
		RiskLabel:        domain.RiskIneffective,
		Severity:         domain.SeverityHigh,
		Action:           "Poor metabolizer — clopidogrel cannot be activated. High risk of treatment failure.",
		DosingAdjustment: strPtr("Avoid clopidogrel"),
		Monitoring:       "Platelet function",
		CPICGuideline:    strPtr("CPIC Clopidogrel 2022"),
		Alternatives:     []string{"TICAGRELOR", "PRASUGREL"},
	}},
	{"CLOPIDOGREL", "IM", domain.RiskEntry{
		RiskLabel:        domain.RiskAdjustDosage,
		Severity:         domain.SeverityMedium,
		Action:           "Reduced activation — consider alternative antiplatelet therapy.",
		DosingAdjustment: strPtr("Consider alternative"),
		Monitoring:       "Platelet function",
		CPICGuideline:    strPtr("CPIC Clopidogrel 2022"),
		Alternatives:     []string{"TICAGRELOR"},
	}},
	{"CLOPIDOGREL", "NM", domain.RiskEntry{
		RiskLabel:        domain.RiskSafe,
		Severity:         domain.SeverityLow,
		Action:           "Normal clopidogrel activation expected.",
		DosingAdjustment: strPtr("Standard dose"),
		Monitoring:       "Routine",
		CPICGuideline:    strPtr("CPIC Clopidogrel 2022"),
		Alternatives:     []string{},
	}},
	{"CLOPIDOGREL", "UM", domain.RiskEntry{
		RiskLabel:        domain.RiskSafe,
		Severity:         domain.SeverityLow,
		Action:           "Ultrarapid metabolizer — may have enhanced effect.",
		DosingAdjustment: strPtr("Standard dose, monitor bleeding"),
		Monitoring:       "Bleeding signs",
		CPICGuideline:    strPtr("CPIC Clopidogrel 2022"),
		Alternatives:     []string{},
	}},

	// SIMVASTATIN - SLCO1B1
	{"SIMVASTATIN", "Poor Function", domain.RiskEntry{
		RiskLabel:        domain.RiskToxic,
		Severity:         domain.SeverityHigh,
		Action:           "High risk of statin-induced myopathy. Use lower dose or alternative.",
		DosingAdjustment: strPtr("Max 20mg/day or switch"),
		Monitoring:       "CK levels monthly",
		CPICGuideline:    strPtr("CPIC Simvastatin 2022"),
		Alternatives:     []string{"ROSUVASTATIN", "PRAVASTATIN"},
	}},
	{"SIMVASTATIN", "Decreased Function", domain.RiskEntry{
		RiskLabel:        domain.RiskAdjustDosage,
		Severity:         domain.SeverityMedium,
		Action:           "Moderately increased myopathy risk.",
		DosingAdjustment: strPtr("Max 40mg/day"),
		Monitoring:       "CK levels",
		CPICGuideline:    strPtr("CPIC Simvastatin 2022"),
		Alternatives:     []string{},
	}},
	{"SIMVASTATIN", "NM", domain.RiskEntry{
		RiskLabel:        domain.RiskSafe,
		Severity:         domain.SeverityLow,
		Action:           "Normal simvastatin transport. Standard dosing appropriate.",
		DosingAdjustment: strPtr("Standard dose"),
		Monitoring:       "Routine",
		CPICGuideline:    strPtr("CPIC Simvastatin 2022"),
		Alternatives:     []string{},
	}},

	// AZATHIOPRINE - TPMT
	{"AZATHIOPRINE", "PM", domain.RiskEntry{
		RiskLabel:        domain.RiskToxic,
		Severity:         domain.SeverityHigh,
		Action:           "TPMT poor metabolizer — very high risk of life-threatening myelosuppression.",
		DosingAdjustment: strPtr("Reduce by 90% or use alternative"),
		Monitoring:       "CBC weekly",
		CPICGuideline:    strPtr("CPIC Azathioprine 2018"),
		Alternatives:     []string{"MYCOPHENOLATE"},
	}},
	{"AZATHIOPRINE", "IM", domain.RiskEntry{
		RiskLabel:        domain.RiskAdjustDosage,
		Severity:         domain.SeverityMedium,
		Action:           "Intermediate metabolizer — increased myelosuppression risk.",
		DosingAdjustment: strPtr("Reduce by 30–50%"),
		Monitoring:       "CBC every 2 weeks",
		CPICGuideline:    strPtr("CPIC Azathioprine 2018"),
		Alternatives:     []string{},
	}},
	{"AZATHIOPRINE", "NM", domain.RiskEntry{
		RiskLabel:        domain.RiskSafe,
		Severity:         domain.SeverityLow,
		Action:           "Normal TPMT activity. Standard azathioprine dosing appropriate.",
		DosingAdjustment: strPtr("Standard dose"),
		Monitoring:       "Routine CBC",
		CPICGuideline:    strPtr("CPIC Azathioprine 2018"),
		Alternatives:     []string{},
	}},

	// FLUOROURACIL - DPYD
	{"FLUOROURACIL", "PM", domain.RiskEntry{
		RiskLabel:        domain.RiskToxic,
		Severity:         domain.SeverityHigh,
		Action:           "DPYD poor metabolizer — life-threatening 5-FU toxicity risk.",
		DosingAdjustment: strPtr("Avoid or reduce by 50%+"),
		Monitoring:       "Toxicity signs closely",
		CPICGuideline:    strPtr("CPIC Fluorouracil 2022"),
		Alternatives:     []string{"CAPECITABINE at reduced dose"},
	}},
	{"FLUOROURACIL", "IM", domain.RiskEntry{
		RiskLabel:        domain.RiskAdjustDosage,
		Severity:         domain.SeverityMedium,
		Action:           "Intermediate DPYD function — increased toxicity risk.",
		DosingAdjustment: strPtr("Reduce by 25–50%"),
		Monitoring:       "Toxicity monitoring",
		CPICGuideline:    strPtr("CPIC Fluorouracil 2022"),
		Alternatives:     []string{},
	}},
	{"FLUOROURACIL", "NM", domain.RiskEntry{
		RiskLabel:        domain.RiskSafe,
		Severity:         domain.SeverityLow,
		Action:           "Normal DPYD activity. Standard 5-FU dosing appropriate.",
		DosingAdjustment: strPtr("Standard dose"),
		Monitoring:       "Routine",
		CPICGuideline:    strPtr("CPIC Fluorouracil 2022"),
		Alternatives:     []string{},
	}},
}

// defaultRiskEntry is the fail-open result when no table entry applies. The
// Unknown/none pairing keeps an absent-data advisory clearly distinguishable
// from an actual Safe finding downstream.
var defaultRiskEntry = domain.RiskEntry{
	RiskLabel:        domain.RiskUnknown,
	Severity:         domain.SeverityNone,
	Action:           "Insufficient pharmacogenomic data to determine risk.",
	DosingAdjustment: nil,
	Monitoring:       "Standard clinical monitoring recommended.",
	CPICGuideline:    nil,
	Alternatives:     []string{},
}

func strPtr(s string) *string {
	return &s
}
